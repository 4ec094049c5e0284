package core

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	fifty := strings.Repeat("abcdefghij", 5)

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "short message kept", message: "Explain chunking", want: "Explain chunking"},
		{name: "surrounding whitespace trimmed", message: "  Explain chunking \n", want: "Explain chunking"},
		{name: "exactly thirty kept", message: strings.Repeat("x", 30), want: strings.Repeat("x", 30)},
		{name: "fifty truncated", message: fifty, want: fifty[:27] + "..."},
		{name: "blank falls back to default", message: "   ", want: DefaultSessionTitle},
		{name: "multibyte counted by rune", message: strings.Repeat("한", 31), want: strings.Repeat("한", 27) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.message); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestDocumentIDs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "markdown plain", got: MarkdownDocumentID("guide.md"), want: "doc-guide.md"},
		{name: "markdown whitespace", got: MarkdownDocumentID("user  guide v2.md"), want: "doc-user-guide-v2.md"},
		{name: "markdown unsafe chars", got: MarkdownDocumentID(`a:b*c?"d<e>f|g.md`), want: "doc-abcdefg.md"},
		{name: "pdf", got: PDFDocumentID("annual report.pdf"), want: "pdf-annual-report_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDocumentID_Stable(t *testing.T) {
	if MarkdownDocumentID("notes.md") != MarkdownDocumentID("notes.md") {
		t.Fatal("document ids must be stable across calls")
	}
}
