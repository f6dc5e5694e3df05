package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gardar/ocralign/pkg/align"
	"github.com/gardar/ocralign/pkg/gdocai"
	"github.com/gardar/ocralign/pkg/hocr"
	"github.com/gardar/ocralign/pkg/pagexml"
	"github.com/gardar/ocralign/pkg/plaintext"
)

var (
	hocrExtensions    = []string{".hocr", ".html", ".htm"}
	pagexmlExtensions = []string{".xml"}
)

// batch aligns documents against one shared reference.
type batch struct {
	aligner *align.Aligner
	ref     *align.Reference
	outDir  string
	logger  io.Writer // Progress and skipped files
	now     func() time.Time
}

// inputFiles returns path itself, or the files in directory path with one
// of the extensions, sorted by name.
func inputFiles(path string, exts []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				files = append(files, filepath.Join(path, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), path)
	}
	return files, nil
}

// alignText aligns the lines of a plain text file.
func (b *batch) alignText(ctx context.Context, path string) (*align.Run, error) {
	lines, err := plaintext.ReadLinesFile(path)
	if err != nil {
		return nil, err
	}
	return b.aligner.RunReference(ctx, lines, b.ref)
}

// alignHOCR aligns every hOCR document at path and writes the rewritten
// documents to <out>/hocr. Documents that fail are reported and skipped.
func (b *batch) alignHOCR(ctx context.Context, path string) (*align.Run, error) {
	files, err := inputFiles(path, hocrExtensions)
	if err != nil {
		return nil, err
	}
	return b.documents(ctx, files, "hocr", func(file string) ([]string, func([]align.LineResult) ([]byte, error), error) {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, err
		}
		doc, err := hocr.Parse(data)
		if err != nil {
			return nil, nil, err
		}
		return doc.Texts(), func(results []align.LineResult) ([]byte, error) {
			doc.Apply(results, b.logger)
			return doc.Bytes()
		}, nil
	})
}

// alignPageXML aligns every PAGE-XML document at path and writes the rewritten
// documents to <out>/xml. Documents that fail are reported and skipped.
func (b *batch) alignPageXML(ctx context.Context, path string) (*align.Run, error) {
	files, err := inputFiles(path, pagexmlExtensions)
	if err != nil {
		return nil, err
	}
	return b.documents(ctx, files, "xml", func(file string) ([]string, func([]align.LineResult) ([]byte, error), error) {
		doc, err := pagexml.ParseFile(file)
		if err != nil {
			return nil, nil, err
		}
		return doc.Texts(), func(results []align.LineResult) ([]byte, error) {
			doc.Apply(results, b.now(), b.logger)
			return doc.Bytes()
		}, nil
	})
}

// openFunc loads a document and returns its lines and a function that
// renders it with the results applied.
type openFunc func(file string) ([]string, func([]align.LineResult) ([]byte, error), error)

func (b *batch) documents(ctx context.Context, files []string, subdir string, open openFunc) (*align.Run, error) {
	dir := filepath.Join(b.outDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	var runs []*align.Run
	for _, file := range files {
		run, err := b.document(ctx, file, dir, open)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			if len(files) == 1 {
				return nil, err
			}
			fmt.Fprintf(b.logger, "Skipping %s: %v\n", file, err)
			continue
		}
		runs = append(runs, run)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("none of the %d documents could be aligned", len(files))
	}
	return align.MergeRuns(b.aligner.Config().Threshold, runs...), nil
}

func (b *batch) document(ctx context.Context, file, dir string, open openFunc) (*align.Run, error) {
	lines, render, err := open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	run, err := b.aligner.RunReference(ctx, lines, b.ref)
	if err != nil {
		return nil, err
	}
	data, err := render(run.Lines)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", file, err)
	}
	out := filepath.Join(dir, filepath.Base(file))
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(b.logger, "Updated document saved to: %s\n", out)
	return run, nil
}

// alignPDF recognizes a PDF with Document AI and aligns its lines. With debugPath
// set the raw response is saved there as JSON.
func (b *batch) alignPDF(ctx context.Context, path string, cfg *gdocai.Config, debugPath string) (*align.Run, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	lines, raw, err := gdocai.RecognizeLines(ctx, content, cfg)
	if debugPath != "" && raw != nil {
		if js, jerr := gdocai.ToJSON(raw); jerr == nil {
			if werr := os.WriteFile(debugPath, []byte(js), 0o644); werr != nil {
				fmt.Fprintf(b.logger, "Failed to save API response: %v\n", werr)
			}
		}
	}
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(b.logger, "Document AI recognized %d lines\n", len(lines))
	return b.aligner.RunReference(ctx, gdocai.Texts(lines), b.ref)
}
