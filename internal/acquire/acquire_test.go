package acquire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plivedi/meddocs/internal/common"
	"github.com/plivedi/meddocs/internal/document"
)

// fakeRunner returns canned output per command name.
type fakeRunner struct {
	stdout map[string]string
	errs   map[string]error
	calls  []string
}

func (f *fakeRunner) Run(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name)
	if err, ok := f.errs[name]; ok {
		return nil, nil, err
	}
	return []byte(f.stdout[name]), nil, nil
}

func newTestExtractor(t *testing.T, r Runner) *Extractor {
	t.Helper()
	e := NewExtractor(common.OCRConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if r != nil {
		e.runner = r
	}
	return e
}

func TestFromText(t *testing.T) {
	doc := FromText("  Book dentist next Friday at 3pm  ")
	assert.Equal(t, "Book dentist next Friday at 3pm", doc.Text)
	assert.Equal(t, document.OriginDirectText, doc.Origin)
	assert.Nil(t, doc.OCRMeta)
}

func TestExtractPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("Total: INR 1200\r\n\r\n\r\nPaid: 1000"), 0o644))

	e := newTestExtractor(t, nil)
	doc, err := e.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Total: INR 1200\n\nPaid: 1000", doc.Text)
	assert.Equal(t, document.OriginOCRExtracted, doc.Origin)
	assert.Equal(t, "plain-text", doc.OCRMeta["method"])
	assert.Equal(t, 1, doc.OCRMeta["pages"])
	assert.IsType(t, float64(0), doc.OCRMeta["confidence"])
}

func TestExtractImageRunsTesseract(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"tesseract": "Hemoglobin 10.2 g/dL (Low)\n"}}
	e := newTestExtractor(t, r)

	doc, err := e.Extract(context.Background(), "/tmp/report.png")
	require.NoError(t, err)

	assert.Equal(t, []string{"tesseract"}, r.calls)
	assert.Equal(t, "Hemoglobin 10.2 g/dL (Low)", doc.Text)
	assert.Equal(t, "image-ocr", doc.OCRMeta["method"])
}

func TestExtractPDFDigitalText(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"pdftotext": "page one\fpage two"}}
	e := newTestExtractor(t, r)

	doc, err := e.Extract(context.Background(), "/tmp/bill.pdf")
	require.NoError(t, err)

	assert.Equal(t, []string{"pdftotext"}, r.calls, "digital extraction must not fall back to OCR")
	assert.Equal(t, 2, doc.OCRMeta["pages"])
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	// Empty pdftotext output means a scanned PDF; rasterization follows but
	// renders no pages here, so the whole acquisition fails loudly.
	r := &fakeRunner{stdout: map[string]string{"pdftotext": "   "}}
	e := newTestExtractor(t, r)

	_, err := e.Extract(context.Background(), "/tmp/scan.pdf")
	require.Error(t, err)
	assert.Contains(t, r.calls, "pdftoppm")
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := newTestExtractor(t, nil)
	_, err := e.Extract(context.Background(), "/tmp/notes.docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestExtractSurfacesToolFailure(t *testing.T) {
	r := &fakeRunner{errs: map[string]error{"tesseract": fmt.Errorf("exit status 1")}}
	e := newTestExtractor(t, r)

	_, err := e.Extract(context.Background(), "/tmp/report.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
}

func TestCleanupText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "crlf and tabs", in: "a\tb\r\nc", want: "a b\nc"},
		{name: "runs of spaces", in: "Total:    1200", want: "Total: 1200"},
		{name: "box noise line removed", in: "Total 1200\n-----\nPaid 1000", want: "Total 1200\n\nPaid 1000"},
		{name: "blank run collapsed", in: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "surrounding space trimmed", in: "  hi  \n", want: "hi"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanupText(tt.in))
		})
	}
}

func TestExecRunnerSurfacesMissingBinary(t *testing.T) {
	r := execRunner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	_, _, err := r.Run(context.Background(), "definitely-not-a-real-binary")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lo...(truncated)", truncate("long output", 2))
}

func TestHeuristicConfidence(t *testing.T) {
	gibberish := heuristicConfidence("xyz abc")
	rich := heuristicConfidence("Visit on 26/09/2025 at 14:30, Hemoglobin 10.2 g/dL, Total 1,200")

	assert.Equal(t, 0.2, gibberish)
	assert.Greater(t, rich, gibberish)
	assert.LessOrEqual(t, rich, 1.0)
}
