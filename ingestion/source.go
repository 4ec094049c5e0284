package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/ragchat/core"
	"github.com/tmc/langchaingo/documentloaders"
)

// DocumentSource reads raw documents of one kind.
// Failures on individual files are logged and skipped, never returned.
type DocumentSource interface {
	Name() string
	Read(ctx context.Context) ([]core.Document, error)
}

var (
	mdHeader = regexp.MustCompile(`(?m)^\s*#{1,6}\s`)
	mdLink   = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	mdImage  = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
)

// MarkdownSource reads every file matching Pattern as one document.
type MarkdownSource struct {
	Pattern string
	logger  *slog.Logger
}

// NewMarkdownSource creates a source for the glob pattern, e.g. "documents/*.md".
func NewMarkdownSource(pattern string, logger *slog.Logger) *MarkdownSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarkdownSource{Pattern: pattern, logger: logger.With("source", "markdown")}
}

// Name returns "markdown".
func (s *MarkdownSource) Name() string {
	return "markdown"
}

// Read loads all matching files. Empty files are skipped.
func (s *MarkdownSource) Read(ctx context.Context) ([]core.Document, error) {
	paths, err := filepath.Glob(s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("markdown source: %w", err)
	}
	if len(paths) == 0 {
		s.logger.Warn("no markdown files found", "pattern", s.Pattern)
		return nil, nil
	}

	docs := make([]core.Document, 0, len(paths))
	for _, path := range paths {
		doc, ok, err := s.readFile(ctx, path)
		if err != nil {
			s.logger.Error("skipping unreadable markdown file", "path", path, "err", err)
			continue
		}
		if !ok {
			s.logger.Warn("skipping empty markdown file", "path", path)
			continue
		}
		docs = append(docs, doc)
	}
	s.logger.Info("markdown files loaded", "found", len(paths), "loaded", len(docs))
	return docs, nil
}

func (s *MarkdownSource) readFile(ctx context.Context, path string) (core.Document, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Document{}, false, err
	}
	defer f.Close()

	loaded, err := documentloaders.NewText(f).Load(ctx)
	if err != nil {
		return core.Document{}, false, err
	}
	var sb strings.Builder
	for _, d := range loaded {
		sb.WriteString(d.PageContent)
	}
	content := sb.String()
	if strings.TrimSpace(content) == "" {
		return core.Document{}, false, nil
	}

	filename := filepath.Base(path)
	return core.Document{
		ID:       core.MarkdownDocumentID(filename),
		Text:     content,
		Metadata: markdownMetadata(filename, content),
	}, true, nil
}

func markdownMetadata(filename, content string) map[string]string {
	return map[string]string{
		"source":          filename,
		"type":            "markdown",
		"content_length":  strconv.Itoa(len([]rune(content))),
		"has_headers":     strconv.FormatBool(mdHeader.MatchString(content)),
		"has_code_blocks": strconv.FormatBool(strings.Contains(content, "```")),
		"has_links":       strconv.FormatBool(mdLink.MatchString(content)),
		"has_images":      strconv.FormatBool(mdImage.MatchString(content)),
		"line_count":      strconv.Itoa(len(strings.Split(strings.TrimRight(content, "\n"), "\n"))),
	}
}

// PDFSource reads every file matching Pattern as a single document.
// Pages are joined; layout is not preserved.
type PDFSource struct {
	Pattern string
	logger  *slog.Logger
}

// NewPDFSource creates a source for the glob pattern, e.g. "documents/*.pdf".
func NewPDFSource(pattern string, logger *slog.Logger) *PDFSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFSource{Pattern: pattern, logger: logger.With("source", "pdf")}
}

// Name returns "pdf".
func (s *PDFSource) Name() string {
	return "pdf"
}

// Read loads all matching files. Files that fail to parse are skipped.
func (s *PDFSource) Read(ctx context.Context) ([]core.Document, error) {
	paths, err := filepath.Glob(s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("pdf source: %w", err)
	}

	var docs []core.Document
	for _, path := range paths {
		doc, err := s.readFile(ctx, path)
		if err != nil {
			s.logger.Error("skipping unreadable pdf file", "path", path, "err", err)
			continue
		}
		docs = append(docs, doc)
	}
	s.logger.Info("pdf files loaded", "found", len(paths), "loaded", len(docs))
	return docs, nil
}

func (s *PDFSource) readFile(ctx context.Context, path string) (doc core.Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Document{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return core.Document{}, err
	}

	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse %s: %v", path, r)
		}
	}()

	pages, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return core.Document{}, err
	}
	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		texts = append(texts, p.PageContent)
	}
	content := strings.Join(texts, "\n")

	filename := filepath.Base(path)
	return core.Document{
		ID:   core.PDFDocumentID(filename),
		Text: content,
		Metadata: map[string]string{
			"file_name":      filename,
			"source":         filename,
			"type":           "pdf",
			"content_length": strconv.Itoa(len([]rune(content))),
			"page_number":    "1",
		},
	}, nil
}
