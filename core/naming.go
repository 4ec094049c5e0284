package core

import (
	"regexp"
	"strings"
)

const (
	// DefaultSessionID is the session used when a request names no session
	// or an unknown one.
	DefaultSessionID = "default"

	// DefaultSessionTitle is the title of a freshly created session.
	DefaultSessionTitle = "새 채팅"

	maxTitleLength       = 30
	truncatedTitleLength = 27
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// SanitizeFilename removes characters that are unsafe in identifiers and
// replaces runs of whitespace with a single dash.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return whitespaceRun.ReplaceAllString(name, "-")
}

// MarkdownDocumentID derives the stable document id of a markdown file.
func MarkdownDocumentID(filename string) string {
	return "doc-" + SanitizeFilename(filename)
}

// PDFDocumentID derives the stable document id of a PDF file.
// The whole file is treated as a single page-1 document.
func PDFDocumentID(filename string) string {
	base := strings.TrimSuffix(filename, ".pdf")
	return "pdf-" + SanitizeFilename(base) + "_1"
}

// DeriveTitle builds a session title from the first message of a conversation.
// Titles longer than 30 characters are cut to 27 characters plus "...".
func DeriveTitle(message string) string {
	title := strings.TrimSpace(message)
	if title == "" {
		return DefaultSessionTitle
	}
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		return string(runes[:truncatedTitleLength]) + "..."
	}
	return title
}
