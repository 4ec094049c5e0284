package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "simple content", content: "doc-guide.md#0"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	if IDFromContent("doc-a.md#0") == IDFromContent("doc-a.md#1") {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestContentHash_Deterministic(t *testing.T) {
	text := "# Guide\n\nChunking splits documents."
	if ContentHash(text) != ContentHash(text) {
		t.Fatal("ContentHash() is not deterministic")
	}
	if len(ContentHash(text)) != 64 {
		t.Errorf("ContentHash() length = %d, want 64", len(ContentHash(text)))
	}
}

func TestContentHash_SingleCharacterMutation(t *testing.T) {
	base := "retrieval augmented generation"
	mutations := []string{
		"Retrieval augmented generation",
		"retrieval augmented generation.",
		"retrieval augmented generatio",
		"retrieval  augmented generation",
	}
	for _, m := range mutations {
		if ContentHash(base) == ContentHash(m) {
			t.Errorf("ContentHash(%q) collided with ContentHash(%q)", m, base)
		}
	}
}

func TestRole_String(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "USER"},
		{RoleAssistant, "ASSISTANT"},
		{RoleSystem, "SYSTEM"},
		{Role(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.role.String(); got != tt.want {
			t.Errorf("Role(%d).String() = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestRole_Visible(t *testing.T) {
	if !RoleUser.Visible() || !RoleAssistant.Visible() {
		t.Error("user and assistant messages must be visible")
	}
	if RoleSystem.Visible() {
		t.Error("system messages must not be visible")
	}
}
