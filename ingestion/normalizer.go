package ingestion

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/ragchat/core"
)

var (
	markupTag     = regexp.MustCompile(`<[^>]*>`)
	anyWhitespace = regexp.MustCompile(`\s+`)
	blankLines    = regexp.MustCompile(`\n{2,}`)
	fencedCode    = regexp.MustCompile("```[\\s\\S]*?```")
	// Hangul syllables and jamo, ASCII letters and digits, whitespace and common punctuation.
	disallowedChars = regexp.MustCompile(`[^\x{AC00}-\x{D7AF}\x{1100}-\x{11FF}\x{3130}-\x{318F}\x{A960}-\x{A97F}\x{D7B0}-\x{D7FF}a-zA-Z0-9\s\-_.,()\[\]{}"':;!?@#$%&*+=|\\/<>]`)
)

// NormalizerConfig toggles the individual cleaning stages.
type NormalizerConfig struct {
	Enabled            bool
	StripTags          bool
	CollapseWhitespace bool
	CollapseNewlines   bool
	StripCodeBlocks    bool
	StripSpecialChars  bool
}

// DefaultNormalizerConfig only strips markup. Whitespace and newline
// collapsing are off because both erase the blank lines the chunker
// prefers to split on.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		Enabled:   true,
		StripTags: true,
	}
}

// Fingerprint identifies the enabled stages. It is mixed into document
// hashes so that changing the configuration reprocesses every document.
func (c NormalizerConfig) Fingerprint() string {
	if !c.Enabled {
		return "norm:off"
	}
	flag := func(b bool) byte {
		if b {
			return '1'
		}
		return '0'
	}
	return "norm:" + string([]byte{
		flag(c.StripTags),
		flag(c.CollapseWhitespace),
		flag(c.CollapseNewlines),
		flag(c.StripCodeBlocks),
		flag(c.StripSpecialChars),
	})
}

// Normalizer cleans document text. It is stateless and safe for concurrent use.
type Normalizer struct {
	config NormalizerConfig
}

// NewNormalizer creates a Normalizer with the given stages.
func NewNormalizer(config NormalizerConfig) *Normalizer {
	return &Normalizer{config: config}
}

// Config returns the normalizer's configuration.
func (n *Normalizer) Config() NormalizerConfig {
	return n.config
}

// NormalizeText applies the enabled stages in their fixed order:
// tags, whitespace, newlines, code blocks, special characters, trim.
func (n *Normalizer) NormalizeText(text string) string {
	if !n.config.Enabled {
		return text
	}
	if n.config.StripTags {
		text = markupTag.ReplaceAllString(text, "")
	}
	if n.config.CollapseWhitespace {
		text = anyWhitespace.ReplaceAllString(text, " ")
	}
	if n.config.CollapseNewlines {
		text = blankLines.ReplaceAllString(text, "\n")
	}
	if n.config.StripCodeBlocks {
		text = fencedCode.ReplaceAllString(text, "")
	}
	if n.config.StripSpecialChars {
		text = disallowedChars.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// Normalize returns doc unchanged when normalization leaves its text as is.
// Otherwise it returns a copy carrying the new text and normalization metadata.
func (n *Normalizer) Normalize(doc core.Document) core.Document {
	normalized := n.NormalizeText(doc.Text)
	if normalized == doc.Text {
		return doc
	}

	meta := make(map[string]string, len(doc.Metadata)+5)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta["original_length"] = strconv.Itoa(len([]rune(doc.Text)))
	meta["normalized_length"] = strconv.Itoa(len([]rune(normalized)))
	meta["normalization_applied"] = "true"
	meta["code_blocks_removed"] = strconv.FormatBool(n.config.StripCodeBlocks)
	meta["special_chars_cleaned"] = strconv.FormatBool(n.config.StripSpecialChars)

	return core.Document{ID: doc.ID, Text: normalized, Metadata: meta}
}
