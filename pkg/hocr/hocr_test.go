package hocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocralign/pkg/align"
)

const sampleHOCR = `<!DOCTYPE html>
<html>
<head>
<meta http-equiv="Content-Type" content="text/html; charset=utf-8" />
<meta name="ocr-system" content="tesseract" />
</head>
<body>
<div class="ocr_page" id="page_1" title="bbox 0 0 1000 1000; ppageno 0">
 <div class="ocr_carea" id="block_1_1">
  <p class="ocr_par" id="par_1_1">
   <span class="ocr_line" id="line_1_1" title="bbox 10 10 500 40; baseline 0 -5">
    <span class="ocrx_word" id="word_1_1" title="bbox 10 10 100 40; x_wconf 90">אבג</span>
    <span class="ocrx_word" id="word_1_2" title="bbox 110 10 200 40; x_wconf 80">דהר</span>
   </span>
   <span class="ocr_line" id="line_1_2" title="bbox 10 50 500 80">
    <span class="ocrx_word" id="word_1_3" title="bbox 10 50 100 80">זחט</span>
   </span>
  </p>
 </div>
</div>
<div class="ocr_page" id="page_2" title="bbox 0 0 1000 1000; ppageno 1">
 <span class="ocr_line" id="line_2_1" title="bbox 10 10 500 40">
  <span class="ocrx_word" id="word_2_1" title="bbox 10 10 100 40">יכל</span>
  <span class="ocrx_word" id="word_2_2" title="bbox 110 10 200 40">מנ</span>
  <span class="ocrx_word" id="word_2_3" title="bbox 210 10 300 40">ס</span>
 </span>
</div>
</body>
</html>`

func TestParseLines(t *testing.T) {
	doc, err := Parse([]byte(sampleHOCR))
	require.NoError(t, err)

	assert.Equal(t, []string{"אבג דהר", "זחט", "יכל מנ ס"}, doc.Texts())

	lines := doc.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "line_1_1", lines[0].ID)
	assert.Equal(t, 0, lines[0].Page)
	assert.Equal(t, 1, lines[2].Page)
	assert.Equal(t, BoundingBox{X1: 10, Y1: 10, X2: 500, Y2: 40}, lines[0].BBox)
	assert.Equal(t, 85.0, lines[0].Confidence)
	assert.Equal(t, 0.0, lines[1].Confidence)
}

func TestParseSkipsEmptyLines(t *testing.T) {
	data := []byte(`<html><body><div class="ocr_page" id="page_1">
<span class="ocr_line" id="line_1"><span class="ocrx_word" id="w1">אבד</span></span>
<span class="ocr_line" id="line_2"><span class="ocrx_word" id="w2"> </span></span>
<span class="ocr_line" id="line_3"></span>
<span class="ocr_line" id="line_4"><span class="ocrx_word" id="w4">זחי</span></span>
</div></body></html>`)

	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"אבד", "זחי"}, doc.Texts())
	assert.Equal(t, "line_4", doc.Lines()[1].ID)

	// Results pair with the listed lines only.
	results := []align.LineResult{
		{Raw: "אבד", Final: "אבג", Score: 66.7},
		{Raw: "זחי", Final: "זחט", Score: 66.7},
	}
	assert.Equal(t, 2, doc.Apply(results, nil))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<span class="ocrx_word" id="w4">זחט</span>`)
	assert.Contains(t, string(out), `<span class="ocr_line" id="line_3"></span>`)
}

func TestParseRequiresPages(t *testing.T) {
	_, err := Parse([]byte(`<html><body><p>nothing here</p></body></html>`))
	assert.Error(t, err)
}

func TestParseLegacyCharset(t *testing.T) {
	// "אב" in Windows-1255.
	data := []byte("<html><head><meta charset=\"windows-1255\"></head><body>" +
		"<div class='ocr_page'><span class='ocr_line'><span class='ocrx_word'>\xe0\xe1</span></span></div></body></html>")

	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"אב"}, doc.Texts())

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), `charset="utf-8"`)
	assert.Contains(t, string(out), "אב")
}

func TestApply(t *testing.T) {
	doc, err := Parse([]byte(sampleHOCR))
	require.NoError(t, err)

	results := []align.LineResult{
		{Raw: "אבג דהר", Final: "אבג דהו", Score: 85},
		{Raw: "זחט", Final: "זחט", Score: 100},
		{Raw: "יכל מנ ס", Final: "יכל מנס", Score: 93},
	}
	var log strings.Builder
	assert.Equal(t, 2, doc.Apply(results, &log))
	assert.Contains(t, log.String(), "Updated line 1")
	assert.Contains(t, log.String(), "Kept line 2")

	out, err := doc.Bytes()
	require.NoError(t, err)
	html := string(out)

	// Same word count: word spans keep their boxes.
	assert.Contains(t, html, `<span class="ocrx_word" id="word_1_2" title="bbox 110 10 200 40; x_wconf 80">דהו</span>`)
	// Different word count: the first span takes the line box and all text.
	assert.Contains(t, html, `<span class="ocrx_word" id="word_2_1" title="bbox 10 10 500 40">יכל מנס</span>`)
	assert.NotContains(t, html, "word_2_2")
	assert.NotContains(t, html, "word_2_3")

	reparsed, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"אבג דהו", "זחט", "יכל מנס"}, reparsed.Texts())
}

func TestApplyRespectsFloor(t *testing.T) {
	doc, err := Parse([]byte(sampleHOCR))
	require.NoError(t, err)

	results := []align.LineResult{{Raw: "אבג דהר", Final: "אבג דהו", Score: 50}}
	assert.Equal(t, 0, doc.Apply(results, nil))
	assert.Equal(t, "אבג דהר", doc.Lines()[0].Text)
}

func TestSetTextWithoutWords(t *testing.T) {
	doc, err := Parse([]byte(`<html><body><div class="ocr_page"><span class="ocr_line">אבד</span></div></body></html>`))
	require.NoError(t, err)

	line := doc.Lines()[0]
	assert.Equal(t, "אבד", line.Text)
	line.SetText("אבג")

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<span class="ocr_line">אבג</span>`)
}

func TestParseTitle(t *testing.T) {
	props := ParseTitle("bbox 100 200 300 400; x_wconf 95;; baseline 0.1 -3")
	assert.Equal(t, []string{"100", "200", "300", "400"}, props["bbox"])
	assert.Equal(t, []string{"95"}, props["x_wconf"])
	assert.Equal(t, []string{"0.1", "-3"}, props["baseline"])

	assert.Nil(t, ParseBoundingBoxFromTitle("x_wconf 95"))
	assert.Nil(t, ParseBoundingBoxFromTitle("bbox 1 2 3"))
	assert.Equal(t, &BoundingBox{1, 2, 3, 4}, ParseBoundingBoxFromTitle("bbox 1 2 3 4"))
}
