package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/models"
)

// DefaultExtensions are the file types the loader reads.
var DefaultExtensions = []string{".csv", ".xlsx", ".pdf", ".docx", ".odt", ".rtf", ".txt", ".md"}

// minParagraphLen drops page numbers and stray headings.
const minParagraphLen = 12

var blankLines = regexp.MustCompile(`\n\s*\n`)

// Loader turns files into records. Tables (csv, xlsx) give one record per
// row; documents give one record per paragraph.
type Loader struct {
	extensions map[string]struct{}
	recursive  bool
	logger     *zap.Logger
}

// NewLoader creates a loader for extensions (with leading dot). Empty means DefaultExtensions.
func NewLoader(extensions []string, recursive bool, logger *zap.Logger) *Loader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{extensions: make(map[string]struct{}, len(extensions)), recursive: recursive, logger: logger}
	for _, e := range extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		l.extensions[e] = struct{}{}
	}
	return l
}

// Supports reports whether path has a loadable extension.
func (l *Loader) Supports(path string) bool {
	_, ok := l.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadFile reads one file.
func (l *Loader) LoadFile(path string) ([]*models.Record, error) {
	ext := strings.ToLower(filepath.Ext(path))
	source, err := filepath.Abs(path)
	if err != nil {
		source = path
	}
	switch ext {
	case ".odt", ".rtf":
		text, err := extractOffice(path)
		if err != nil {
			return nil, err
		}
		return paragraphs(text, source), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	switch ext {
	case ".csv":
		return readCSV(content, source)
	case ".xlsx":
		return readXLSX(content, source)
	case ".pdf":
		text, err := extractPDF(content)
		if err != nil {
			return nil, err
		}
		return paragraphs(text, source), nil
	case ".docx":
		text, err := extractDOCX(content)
		if err != nil {
			return nil, err
		}
		return paragraphs(text, source), nil
	default:
		return paragraphs(extractPlain(content), source), nil
	}
}

// LoadPaths loads every supported file under paths. Unreadable files are
// logged and skipped.
func (l *Loader) LoadPaths(ctx context.Context, paths []string) ([]*models.Record, error) {
	var all []*models.Record
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			recs, err := l.LoadFile(root)
			if err != nil {
				return nil, err
			}
			all = append(all, recs...)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				if path != root && (!l.recursive || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if !l.Supports(path) {
				return nil
			}
			recs, err := l.LoadFile(path)
			if err != nil {
				l.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
				return nil
			}
			all = append(all, recs...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return all, nil
}

// paragraphs splits document text on blank lines into normal-labelled records.
func paragraphs(text, source string) []*models.Record {
	var recs []*models.Record
	meta := "file:" + filepath.Base(source)
	for _, p := range blankLines.Split(text, -1) {
		p = strings.Join(strings.Fields(p), " ")
		if len(p) < minParagraphLen {
			continue
		}
		recs = append(recs, &models.Record{
			ID:       recordID(source, len(recs)),
			Text:     p,
			Label:    models.LabelNormal,
			Metadata: meta,
			Source:   source,
		})
	}
	return recs
}

// recordID is stable for a source and position, so re-ingesting a file
// replaces its records instead of duplicating them.
func recordID(source string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+strconv.Itoa(n))).String()
}
