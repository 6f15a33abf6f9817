// Package e2e provides end-to-end tests; this file writes minimal corpus files
// in every table and document format the loader reads.
package e2e

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Transaction is one corpus row or paragraph.
type Transaction struct {
	Description string
	Amount      float64
	Fraud       bool
}

// SupportedFileExtensions is the list of file extensions written by WriteFixture.
// PDF is not generated here (no minimal PDF with extractable text); .odt/.rtf
// go through the same paragraph splitting as .docx.
var SupportedFileExtensions = []string{".txt", ".md", ".docx", ".csv", ".xlsx"}

// WriteFixture returns the bytes of a file of type ext holding txs. Tables get a
// header row and one row per transaction; documents get one paragraph each.
func WriteFixture(ext string, txs []Transaction) ([]byte, error) {
	switch ext {
	case ".txt", ".md":
		parts := make([]string, len(txs))
		for i, tx := range txs {
			parts[i] = tx.Description
		}
		return []byte(strings.Join(parts, "\n\n")), nil
	case ".docx":
		return minimalDocx(txs), nil
	case ".csv":
		return minimalCSV(txs), nil
	case ".xlsx":
		return minimalXlsx(txs)
	default:
		return nil, fmt.Errorf("unsupported fixture extension %s", ext)
	}
}

func minimalDocx(txs []Transaction) []byte {
	var body strings.Builder
	for _, tx := range txs {
		body.WriteString(`<w:p><w:r><w:t>` + tx.Description + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func minimalCSV(txs []Transaction) []byte {
	var b strings.Builder
	b.WriteString("description,amount,is_fraud\n")
	for _, tx := range txs {
		fmt.Fprintf(&b, "%q,%.2f,%t\n", tx.Description, tx.Amount, tx.Fraud)
	}
	return []byte(b.String())
}

func minimalXlsx(txs []Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"description", "amount", "is_fraud"}); err != nil {
		return nil, err
	}
	for i, tx := range txs {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow("Sheet1", cell, &[]interface{}{tx.Description, tx.Amount, tx.Fraud}); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
