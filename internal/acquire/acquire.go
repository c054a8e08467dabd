// Package acquire is the text-acquisition collaborator: it turns an uploaded
// document (image, PDF, spreadsheet, or plain text) into a document.Raw with
// an opaque confidence/diagnostics payload. The interpretation pipelines
// never look inside that payload.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/plivedi/meddocs/constants"
	"github.com/plivedi/meddocs/internal/common"
	"github.com/plivedi/meddocs/internal/document"
)

type Extractor struct {
	cfg    common.OCRConfig
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg common.OCRConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// FromText wraps user-supplied text without acquisition.
func FromText(text string) document.Raw {
	return document.NewDirect(strings.TrimSpace(text))
}

// Extract picks a strategy based on file extension and returns the raw
// document plus the acquisition diagnostics as opaque metadata.
func (e *Extractor) Extract(ctx context.Context, path string) (document.Raw, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text acquisition", "path", path, "ext", ext)

	var (
		text   string
		method string
		pages  int
		err    error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.TXT:
		var raw []byte
		raw, err = os.ReadFile(path)
		text, method, pages = string(raw), "plain-text", 1
	case constants.PDF:
		text, pages, err = e.extractPDF(ctx, path)
		method = "pdf"
	case constants.IMAGE:
		text, err = e.tesseractOCR(ctx, path)
		method, pages = "image-ocr", 1
	case constants.XLSX:
		text, err = extractXLSX(path)
		method, pages = "xlsx", 1
	default:
		return document.Raw{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	if err != nil {
		e.logger.Error("acquisition failed", "path", path, "method", method, "error", err)
		return document.Raw{}, err
	}

	text = cleanupText(text)
	meta := map[string]any{
		"method":      method,
		"pages":       pages,
		"confidence":  heuristicConfidence(text),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	e.logger.Info("acquisition.ok", "path", path, "method", method, "pages", pages, "chars", len(text))
	return document.NewExtracted(text, meta), nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

// extractPDF tries digital text extraction first and falls back to
// rasterize+OCR for scanned documents.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, _, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err == nil && strings.TrimSpace(string(out)) != "" {
		text := string(out)
		// A form-feed \f is used as page separator by default
		return text, 1 + strings.Count(text, "\f"), nil
	}
	return e.pdfToOCR(ctx, path)
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (string, int, error) {
	tmpDir, err := os.MkdirTemp("", "meddocs-pp-*")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	if _, _, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix); err != nil {
		return "", 0, err
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	for _, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			e.logger.Warn("page ocr failed", "image", img, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	return b.String(), len(matches), nil
}
