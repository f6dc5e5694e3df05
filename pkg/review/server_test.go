package review

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocralign/pkg/align"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "genesis.txt"), []byte("אבג דהו זחט"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	a, err := align.New(align.DefaultConfig())
	require.NoError(t, err)
	s := New(a, Options{ReferenceDir: dir})
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, dir
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, s, req)
}

// createRun posts a run and returns its id.
func createRun(t *testing.T, s *Server, form url.Values) string {
	t.Helper()
	rec := postForm(t, s, "/runs", form)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/runs/"), loc)
	return strings.TrimPrefix(loc, "/runs/")
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, httptest.NewRequest(http.MethodGet, path, nil))
}

func TestIndexListsReferences(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<option value="genesis.txt">`)
	assert.NotContains(t, body, "notes.md")
}

func TestCreateAndReviewRun(t *testing.T) {
	s, _ := newTestServer(t)

	id := createRun(t, s, url.Values{
		"reference": {"genesis.txt"},
		"ocr_text":  {"אבג דהר\n\nזחט\n"},
	})
	assert.Len(t, id, 8)

	rec := get(t, s, "/runs/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Lines processed: 2")
	assert.Contains(t, body, `<span class="del"`)
	assert.Contains(t, body, `value="אבג דהו"`)

	sessions := s.Store().List()
	require.Len(t, sessions, 1)
	assert.Equal(t, "pasted text", sessions[0].Name)

	index := get(t, s, "/")
	assert.Contains(t, index.Body.String(), "2024-05-01 12:00:00")
}

func TestOverrideChangesDownloads(t *testing.T) {
	s, _ := newTestServer(t)
	id := createRun(t, s, url.Values{
		"reference_text": {"אבג דהו זחט"},
		"ocr_text":       {"אבג דהר\nזחט"},
	})

	rec := postForm(t, s, fmt.Sprintf("/runs/%s/lines/1", id), url.Values{"final": {" זחי "}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, fmt.Sprintf("/runs/%s?page=1", id), rec.Header().Get("Location"))

	txt := get(t, s, "/runs/"+id+"/alignment.txt")
	require.Equal(t, http.StatusOK, txt.Code)
	assert.Equal(t, "אבג דהו\nזחי\n", txt.Body.String())
	assert.Contains(t, txt.Header().Get("Content-Disposition"), fmt.Sprintf("alignment_%s.txt", id))

	csvRec := get(t, s, "/runs/"+id+"/alignment.csv")
	require.Equal(t, http.StatusOK, csvRec.Code)
	assert.Contains(t, csvRec.Body.String(), "זחט,100,8,זחי")

	conf := get(t, s, "/runs/"+id+"/confusions.csv")
	assert.Contains(t, conf.Body.String(), "ר,ו,1")

	summary := get(t, s, "/runs/"+id+"/summary.yml")
	assert.Contains(t, summary.Body.String(), "lines_processed: 2")

	assert.Equal(t, http.StatusNotFound, get(t, s, "/runs/"+id+"/secrets.txt").Code)
}

func TestOverrideErrors(t *testing.T) {
	s, _ := newTestServer(t)
	id := createRun(t, s, url.Values{"reference_text": {"אבג"}, "ocr_text": {"אבג"}})

	assert.Equal(t, http.StatusNotFound, postForm(t, s, "/runs/"+id+"/lines/5", url.Values{"final": {"x"}}).Code)
	assert.Equal(t, http.StatusNotFound, postForm(t, s, "/runs/nope/lines/0", url.Values{"final": {"x"}}).Code)
	assert.Equal(t, http.StatusBadRequest, postForm(t, s, "/runs/"+id+"/lines/one", url.Values{"final": {"x"}}).Code)
}

func TestPagination(t *testing.T) {
	s, _ := newTestServer(t)

	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, "אבג")
	}
	id := createRun(t, s, url.Values{"reference_text": {"אבג דהו"}, "ocr_text": {strings.Join(lines, "\n")}})

	first := get(t, s, "/runs/"+id).Body.String()
	assert.Contains(t, first, "Lines 1-10")
	assert.Contains(t, first, fmt.Sprintf(`<a href="/runs/%s?page=2">2</a>`, id))

	second := get(t, s, "/runs/"+id+"?page=2").Body.String()
	assert.Contains(t, second, "Lines 11-12")
	assert.Contains(t, second, "<strong>2</strong>")

	// Out-of-range pages clamp to the last page.
	assert.Contains(t, get(t, s, "/runs/"+id+"?page=9").Body.String(), "Lines 11-12")

	rec := postForm(t, s, "/runs/"+id+"/lines/11", url.Values{"final": {"אבג"}})
	assert.Equal(t, fmt.Sprintf("/runs/%s?page=2", id), rec.Header().Get("Location"))
}

func TestCreateRejectsMissingInput(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"no reference", url.Values{"ocr_text": {"אבג"}}},
		{"unknown reference", url.Values{"reference": {"../etc/passwd"}, "ocr_text": {"אבג"}}},
		{"no lines", url.Values{"reference_text": {"אבג"}, "ocr_text": {"  \n "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, s, "/runs", tt.form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, s.Store().List())
}

func TestCreateFromUploads(t *testing.T) {
	s, _ := newTestServer(t)

	const hocrDoc = `<html><body>
<div class="ocr_page" id="page_1" title="bbox 0 0 100 100">
<span class="ocr_line" id="line_1" title="bbox 0 0 100 10"><span class="ocrx_word" id="w1">זחט</span></span>
</div></body></html>`

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	ref, err := mw.CreateFormFile("reference_file", "ref.txt")
	require.NoError(t, err)
	_, err = io.WriteString(ref, "\ufeffאבג דהו זחט")
	require.NoError(t, err)
	ocr, err := mw.CreateFormFile("ocr_file", "page.hocr")
	require.NoError(t, err)
	_, err = io.WriteString(ocr, hocrDoc)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/runs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(t, s, req)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	sessions := s.Store().List()
	require.Len(t, sessions, 1)
	assert.Equal(t, "page.hocr", sessions[0].Name)

	sess, ok := s.Store().Get(sessions[0].ID)
	require.True(t, ok)
	require.Len(t, sess.Lines, 1)
	assert.Equal(t, "זחט", sess.Lines[0].Match)
	assert.Equal(t, 8, sess.Lines[0].Offset)
}

func TestUnknownRun(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/runs/deadbeef").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/runs/deadbeef/alignment.csv").Code)
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore()
	run := &align.Run{
		Lines:      []align.LineResult{{Raw: "אבד", Match: "אבג", Final: "אבג"}},
		Confusions: align.NewConfusionCount(),
	}
	id := store.Add("test", run, time.Now())

	sess, ok := store.Get(id)
	require.True(t, ok)
	sess.Lines[0].Final = "changed"

	require.NoError(t, store.SetFinal(id, 0, "אבה"))
	again, _ := store.Get(id)
	assert.Equal(t, "אבה", again.Lines[0].Final)
	assert.Equal(t, "אבג", run.Lines[0].Final)
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct{ header http.Header }

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }
func (w *brokenWriter) WriteHeader(int)           {}

func TestWriteFailuresAreLogged(t *testing.T) {
	a, err := align.New(align.DefaultConfig())
	require.NoError(t, err)
	var log strings.Builder
	s := New(a, Options{Logger: &log})

	id := createRun(t, s, url.Values{"reference_text": {"אבג"}, "ocr_text": {"אבג"}})
	log.Reset()

	s.ServeHTTP(&brokenWriter{header: http.Header{}}, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, log.String(), "Failed to write index page")

	s.ServeHTTP(&brokenWriter{header: http.Header{}}, httptest.NewRequest(http.MethodGet, "/runs/"+id+"/alignment.txt", nil))
	assert.Contains(t, log.String(), fmt.Sprintf("Failed to write alignment_%s.txt", id))
}
