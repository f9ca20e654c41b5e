// Package jsonfile writes harvest documents to disk as indented JSON.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultIndent is the number of spaces per nesting level.
const DefaultIndent = 4

// Writer writes one JSON document to a fixed path. The file is replaced
// atomically: readers see either the previous document or the new one.
type Writer struct {
	path   string
	indent string
	rename func(oldpath, newpath string) error
	log    *slog.Logger
}

// NewWriter creates a Writer for path. A negative indent uses DefaultIndent;
// zero writes compact JSON.
func NewWriter(path string, indent int, logger *slog.Logger) *Writer {
	if indent < 0 {
		indent = DefaultIndent
	}
	return &Writer{
		path:   path,
		indent: strings.Repeat(" ", indent),
		rename: os.Rename,
		log:    logger.With("adapter", "jsonfile"),
	}
}

// Path returns the destination file.
func (w *Writer) Path() string { return w.path }

// WriteDocument encodes doc and replaces the destination file with it.
// Parent directories are created as needed.
func (w *Writer) WriteDocument(ctx context.Context, doc any) error {
	return w.StageDocument(ctx, doc, nil)
}

// StageDocument writes doc to a temp file next to the destination and then
// calls commit. The destination is replaced only if commit returns nil; a
// commit error is returned as is and leaves the destination untouched. A nil
// commit behaves like WriteDocument.
func (w *Writer) StageDocument(ctx context.Context, doc any, commit func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if w.indent == "" {
		data, err = json.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", w.indent)
	}
	if err != nil {
		return fmt.Errorf("jsonfile: marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonfile: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("jsonfile: chmod %s: %w", tmpName, err)
	}
	if commit != nil {
		if err := commit(ctx); err != nil {
			return err
		}
	}
	if err := w.rename(tmpName, w.path); err != nil {
		return fmt.Errorf("jsonfile: rename to %s: %w", w.path, err)
	}

	w.log.InfoContext(ctx, "document written", slog.String("path", w.path), slog.Int("bytes", len(data)))
	return nil
}
