package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/lu4p/cat"
)

// extractPDF returns the plain text of every page, one page per line block.
func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n\n"), nil
}

var (
	// paragraph and run patterns inside word/document.xml; attributes vary across producers
	docxParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	docxText      = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
)

// extractDOCX reads word/document.xml and returns one line per paragraph.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	f, err := zr.Open("word/document.xml")
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: read document.xml: %w", err)
	}
	var lines []string
	for _, para := range docxParagraph.FindAllString(string(body), -1) {
		var b strings.Builder
		for _, m := range docxText.FindAllStringSubmatch(para, -1) {
			b.WriteString(m[1])
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n\n"), nil
}

// extractOffice handles odt and rtf.
func extractOffice(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return text, nil
}

// extractPlain returns content as a string, replacing invalid UTF-8.
func extractPlain(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}
