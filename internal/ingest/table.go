package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/cyborgbench/internal/models"
)

// ErrNoTextColumn is returned when a table has no "text" column.
var ErrNoTextColumn = errors.New("table has no text column")

// columns maps a header row to column positions; -1 means absent.
type columns struct {
	id, text, amount, label, metadata int
}

func parseHeader(header []string) (columns, error) {
	c := columns{id: -1, text: -1, amount: -1, label: -1, metadata: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "id":
			c.id = i
		case "text", "description":
			c.text = i
		case "amount":
			c.amount = i
		case "label", "is_fraud":
			c.label = i
		case "metadata":
			c.metadata = i
		}
	}
	if c.text < 0 {
		return c, ErrNoTextColumn
	}
	return c, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseLabel accepts 0/1, true/false and fraud/normal.
func parseLabel(s string) int {
	switch strings.ToLower(s) {
	case "1", "true", "fraud", "yes":
		return models.LabelFraud
	default:
		return models.LabelNormal
	}
}

// rowsToRecords converts table rows (header first) into records from source.
func rowsToRecords(rows [][]string, source string) ([]*models.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}
	var recs []*models.Record
	for n, row := range rows[1:] {
		text := cell(row, cols.text)
		if text == "" {
			continue
		}
		rec := &models.Record{
			ID:       cell(row, cols.id),
			Text:     text,
			Label:    parseLabel(cell(row, cols.label)),
			Metadata: cell(row, cols.metadata),
			Source:   source,
		}
		if rec.ID == "" {
			rec.ID = recordID(source, n)
		}
		if a := cell(row, cols.amount); a != "" {
			v, err := strconv.ParseFloat(strings.TrimPrefix(a, "$"), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid amount %q", n+2, a)
			}
			rec.Amount = v
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func readCSV(content []byte, source string) ([]*models.Record, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rowsToRecords(rows, source)
}

// readXLSX reads the first sheet.
func readXLSX(content []byte, source string) ([]*models.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rowsToRecords(rows, source)
}
