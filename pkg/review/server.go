// Package review serves aligned runs for people to check and correct.
//
// A run is created from an uploaded or pasted reference and OCR lines, kept
// in memory, and shown ten lines per page with the character differences
// between each line and its final text highlighted. Reviewers can replace
// the final text of any line; downloads always reflect those overrides.
package review

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gardar/ocralign/pkg/align"
	"github.com/gardar/ocralign/pkg/hocr"
	"github.com/gardar/ocralign/pkg/pagexml"
	"github.com/gardar/ocralign/pkg/plaintext"
	"github.com/gardar/ocralign/pkg/report"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultPageSize is the number of lines shown per page.
const DefaultPageSize = 10

const maxUploadSize = 32 << 20

// downloads are the file routes of a run.
var downloads = []string{"alignment.csv", "alignment.txt", "confusions.csv", "summary.yml"}

var templates = template.Must(template.New("review").Funcs(template.FuncMap{
	"mark": func(s string) string {
		if s == "" {
			return report.AbsentMark
		}
		return s
	},
}).ParseFS(templateFS, "templates/*.html"))

// Options configures a Server.
type Options struct {
	ReferenceDir      string    // Directory of selectable reference .txt files
	ReferenceEncoding string    // Encoding of reference files and uploads
	PageSize          int       // Lines per page (0 = DefaultPageSize)
	Logger            io.Writer // Request log (nil = silent)
}

// Server is the review HTTP handler.
type Server struct {
	aligner *align.Aligner
	store   *Store
	opts    Options
	router  chi.Router
	now     func() time.Time
}

// New returns a Server that aligns new runs with a.
func New(a *align.Aligner, opts Options) *Server {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	s := &Server{
		aligner: a,
		store:   NewStore(),
		opts:    opts,
		now:     time.Now,
	}
	s.router = s.routes()
	return s
}

// Store returns the server's session store.
func (s *Server) Store() *Store { return s.store }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.opts.Logger != nil {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  log.New(s.opts.Logger, "", log.LstdFlags),
			NoColor: true,
		}))
	}
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/runs", s.handleCreate)
	r.Get("/runs/{runID}", s.handleRun)
	r.Post("/runs/{runID}/lines/{index}", s.handleFinal)
	r.Get("/runs/{runID}/{file}", s.handleDownload)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	refs, err := s.references()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "index", map[string]any{
		"References": refs,
		"Sessions":   s.store.List(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, fmt.Sprintf("failed to read form: %v", err), http.StatusBadRequest)
		return
	}

	reference, err := s.formReference(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lines, name, err := formLines(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	run, err := s.aligner.Run(r.Context(), lines, reference)
	if err != nil {
		http.Error(w, fmt.Sprintf("alignment failed: %v", err), http.StatusInternalServerError)
		return
	}

	id := s.store.Add(name, run, s.now())
	http.Redirect(w, r, "/runs/"+id, http.StatusSeeOther)
}

// row is one line of the review table.
type row struct {
	Number int
	Line   align.LineResult
	Diff   template.HTML
	Low    bool
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.Get(chi.URLParam(r, "runID"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	pages := (len(sess.Lines) + s.opts.PageSize - 1) / s.opts.PageSize
	if pages == 0 {
		pages = 1
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	page = max(1, min(page, pages))

	start := (page - 1) * s.opts.PageSize
	end := min(start+s.opts.PageSize, len(sess.Lines))

	rows := make([]row, 0, end-start)
	for _, l := range sess.Lines[start:end] {
		rows = append(rows, row{
			Number: l.Index + 1,
			Line:   l,
			Diff:   template.HTML(align.Highlight(l.Normalized, l.Final)),
			Low:    l.Score < float64(sess.Summary.Threshold),
		})
	}

	pageNums := make([]int, pages)
	for i := range pageNums {
		pageNums[i] = i + 1
	}

	s.render(w, "run", map[string]any{
		"Session":   sess,
		"Top":       sess.Confusions.Top(s.aligner.Config().TopConfusions),
		"Rows":      rows,
		"First":     start + 1,
		"Last":      end,
		"Page":      page,
		"Pages":     pageNums,
		"Downloads": downloads,
	})
}

func (s *Server) handleFinal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid line index", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.SetFinal(id, index, strings.TrimSpace(r.PostFormValue("final"))); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	page := index/s.opts.PageSize + 1
	http.Redirect(w, r, fmt.Sprintf("/runs/%s?page=%d", id, page), http.StatusSeeOther)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.Get(chi.URLParam(r, "runID"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	paths := report.PathsFor("", sess.ID)
	var (
		name        string
		contentType string
		write       func(io.Writer) error
	)
	switch chi.URLParam(r, "file") {
	case "alignment.csv":
		name, contentType = paths.Alignment, "text/csv; charset=utf-8"
		write = func(w io.Writer) error { return report.WriteAlignment(w, sess.Lines) }
	case "alignment.txt":
		name, contentType = paths.Text, "text/plain; charset=utf-8"
		write = func(w io.Writer) error { return report.WriteText(w, sess.Lines) }
	case "confusions.csv":
		name, contentType = paths.Confusions, "text/csv; charset=utf-8"
		write = func(w io.Writer) error { return report.WriteConfusions(w, sess.Confusions) }
	case "summary.yml":
		name, contentType = paths.Summary, "application/yaml"
		write = func(w io.Writer) error { return report.WriteSummary(w, sess.Summary) }
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := write(w); err != nil {
		s.logf("Failed to write %s: %v", name, err)
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.opts.Logger != nil {
		fmt.Fprintf(s.opts.Logger, format+"\n", args...)
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf strings.Builder
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, fmt.Sprintf("failed to render page: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := io.WriteString(w, buf.String()); err != nil {
		s.logf("Failed to write %s page: %v", name, err)
	}
}

// references lists the .txt files of the reference directory.
func (s *Server) references() ([]string, error) {
	if s.opts.ReferenceDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(s.opts.ReferenceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// formReference reads the reference from, in order, a selected reference
// file, an uploaded file or the pasted text.
func (s *Server) formReference(r *http.Request) (string, error) {
	if name := r.FormValue("reference"); name != "" {
		refs, err := s.references()
		if err != nil {
			return "", err
		}
		for _, ref := range refs {
			if ref == name {
				return plaintext.ReadReferenceFile(filepath.Join(s.opts.ReferenceDir, name), s.opts.ReferenceEncoding)
			}
		}
		return "", fmt.Errorf("%w: unknown reference %q", align.ErrReferenceUnavailable, name)
	}

	data, _, err := formFile(r, "reference_file")
	if err != nil {
		return "", err
	}
	if data != nil {
		return plaintext.DecodeReference(data, s.opts.ReferenceEncoding)
	}

	if text := r.FormValue("reference_text"); strings.TrimSpace(text) != "" {
		return text, nil
	}
	return "", fmt.Errorf("%w: no reference given", align.ErrReferenceUnavailable)
}

// formLines reads the OCR lines from an uploaded file or the pasted text
// and names their source. Uploads ending in .xml are read as PAGE-XML,
// .hocr, .html and .htm as hOCR, anything else as plain text.
func formLines(r *http.Request) ([]string, string, error) {
	data, filename, err := formFile(r, "ocr_file")
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		text := r.FormValue("ocr_text")
		lines, err := plaintext.ReadLines(strings.NewReader(text))
		if err != nil {
			return nil, "", err
		}
		if len(lines) == 0 {
			return nil, "", errors.New("no OCR lines given")
		}
		return lines, "pasted text", nil
	}

	var lines []string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml":
		doc, err := pagexml.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, "", err
		}
		lines = doc.Texts()
	case ".hocr", ".html", ".htm":
		doc, err := hocr.Parse(data)
		if err != nil {
			return nil, "", err
		}
		lines = doc.Texts()
	default:
		lines, err = plaintext.ReadLines(bytes.NewReader(data))
		if err != nil {
			return nil, "", err
		}
	}
	return lines, filename, nil
}

// formFile returns the content and name of an uploaded file, or nil data
// when the field is absent.
func formFile(r *http.Request, field string) ([]byte, string, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload %s: %w", field, err)
	}
	return data, hdr.Filename, nil
}
