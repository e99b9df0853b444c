package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrEmptyDocument = errors.New("empty_document")

// Sink displays a finished document: a file, a writer, a print dialog.
type Sink interface {
	Display(ctx context.Context, doc Document) error
}

// Print hands doc to sink. Rendering and printing stay separate steps.
func Print(ctx context.Context, sink Sink, doc Document) error {
	if doc.HTML == "" {
		return ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return sink.Display(ctx, doc)
}

// FileSink writes documents into Dir using the document filename.
type FileSink struct {
	Dir string
}

func (s FileSink) Display(_ context.Context, doc Document) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	name := doc.Filename
	if name == "" {
		name = DocumentFilename(doc.InvoiceNumber, "html")
	}
	return os.WriteFile(filepath.Join(s.Dir, name), []byte(doc.HTML), 0o644)
}

// WriterSink streams the HTML to W.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Display(_ context.Context, doc Document) error {
	_, err := io.WriteString(s.W, doc.HTML)
	return err
}
