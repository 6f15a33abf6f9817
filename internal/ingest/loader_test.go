package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/cyborgbench/internal/models"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0600))
}

func TestLoader_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "financial.csv")
	writeFile(t, path, []byte("text,amount,label,metadata\n"+
		"Purchase at Uber for transport. Status: Cleared.,12.40,0,merchant:Uber\n"+
		"\"Urgent wire transfer detected. Destination: Panama.\",$20000,1,keyword:offshore\n"+
		",5,0,empty\n"))

	recs, err := NewLoader(nil, true, nil).LoadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 12.4, recs[0].Amount)
	assert.Equal(t, "merchant:Uber", recs[0].Metadata)
	assert.True(t, recs[1].IsFraud())
	assert.Equal(t, 20000.0, recs[1].Amount)
	assert.NotEmpty(t, recs[0].ID)

	again, err := NewLoader(nil, true, nil).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, recs[0].ID, again[0].ID, "ids are stable across loads")
}

func TestLoader_CSVWithoutTextColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	writeFile(t, path, []byte("a,b\n1,2\n"))
	_, err := NewLoader(nil, true, nil).LoadFile(path)
	assert.ErrorIs(t, err, ErrNoTextColumn)
}

func TestLoader_CSVBadAmount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	writeFile(t, path, []byte("text,amount\nsome purchase,abc\n"))
	_, err := NewLoader(nil, true, nil).LoadFile(path)
	assert.Error(t, err)
}

func TestLoader_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"id", "description", "is_fraud"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"tx-1", "Gift card purchase sent to unverified account", "true"})
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tx.xlsx")
	writeFile(t, path, buf.Bytes())

	recs, err := NewLoader(nil, true, nil).LoadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "tx-1", recs[0].ID)
	assert.Equal(t, models.LabelFraud, recs[0].Label)
}

func TestLoader_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, _ = w.Write([]byte(`<w:document><w:body>` +
		`<w:p w:rsidR="00A1"><w:r><w:t>Quarterly review of </w:t></w:r><w:r><w:t xml:space="preserve">wire transfers.</w:t></w:r></w:p>` +
		`<w:p><w:pPr/><w:r><w:t>Second paragraph about offshore accounts.</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	require.NoError(t, zw.Close())
	path := filepath.Join(t.TempDir(), "memo.docx")
	writeFile(t, path, buf.Bytes())

	recs, err := NewLoader(nil, true, nil).LoadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Quarterly review of wire transfers.", recs[0].Text)
	assert.Equal(t, "file:memo.docx", recs[0].Metadata)
}

func TestLoader_plainParagraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, path, []byte("First paragraph spans\ntwo lines.\n\n3\n\n  Second paragraph is here.  \n"))
	recs, err := NewLoader(nil, true, nil).LoadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "First paragraph spans two lines.", recs[0].Text)
	assert.Equal(t, "Second paragraph is here.", recs[1].Text)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
}

func TestLoader_invalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	writeFile(t, path, []byte("not a pdf"))
	_, err := NewLoader(nil, true, nil).LoadFile(path)
	assert.Error(t, err)
}

func TestLoader_LoadPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("Top level paragraph text."))
	writeFile(t, filepath.Join(dir, "nested", "b.txt"), []byte("Nested paragraph text here."))
	writeFile(t, filepath.Join(dir, ".hidden", "c.txt"), []byte("Hidden paragraph text here."))
	writeFile(t, filepath.Join(dir, "image.png"), []byte("binary"))
	writeFile(t, filepath.Join(dir, "broken.pdf"), []byte("not a pdf"))

	ctx := context.Background()
	recs, err := NewLoader(nil, true, nil).LoadPaths(ctx, []string{dir})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	flat, err := NewLoader(nil, false, nil).LoadPaths(ctx, []string{dir})
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	onlyMD, err := NewLoader([]string{"md"}, true, nil).LoadPaths(ctx, []string{dir})
	require.NoError(t, err)
	assert.Empty(t, onlyMD)

	_, err = NewLoader(nil, true, nil).LoadPaths(ctx, []string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestLoader_Supports(t *testing.T) {
	l := NewLoader([]string{".csv", "XLSX"}, true, nil)
	assert.True(t, l.Supports("a.CSV"))
	assert.True(t, l.Supports("b.xlsx"))
	assert.False(t, l.Supports("c.txt"))
}
