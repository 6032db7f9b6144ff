package pdftext

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/16mlwood-afk/invoice-parser-sub000/constants"
	"github.com/16mlwood-afk/invoice-parser-sub000/internal/common"
)

// Document is the text content of one ingested invoice file.
type Document struct {
	Path      string
	Format    string
	Text      string
	PageCount int
	ByteSize  int64
}

// Reader turns invoice files into plain text. PDFs go through the embedded
// text layer; txt files are assumed to be pre-extracted invoice text.
type Reader struct {
	logger *slog.Logger
}

func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read loads and normalizes one file. Unsupported extensions are an input
// error; files without a text layer yield an extraction error so the caller
// can route them to recovery.
func (r *Reader) Read(path string) (*Document, error) {
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return nil, common.NewAppError("UNSUPPORTED_FILE",
			fmt.Sprintf("extension %q is not supported", filepath.Ext(path)), common.ErrInvalidInput)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	doc := &Document{Path: path, Format: format, ByteSize: info.Size()}
	switch format {
	case "PDF":
		text, pages, err := readPDF(path)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf text layer: %v", common.ErrExtraction, err)
		}
		doc.Text = text
		doc.PageCount = pages
	case "TXT":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		doc.Text = string(raw)
		doc.PageCount = 1
	}

	doc.Text = Normalize(doc.Text)
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: no text content in %s", common.ErrExtraction, path)
	}

	r.logger.Debug("pdftext.read",
		"path", path, "format", format, "pages", doc.PageCount, "bytes", doc.ByteSize)
	return doc, nil
}

func readPDF(path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	pages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String(), pages, nil
}
