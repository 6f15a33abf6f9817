package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/cyborgbench/internal/models"
)

// recordDoc is the shape stored in bleve.
type recordDoc struct {
	Text     string `json:"text"`
	Metadata string `json:"metadata"`
	Label    int    `json:"label"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	// standard analyzer: lowercase + tokenize, no stemming, so "uber" matches "Uber" exactly
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("metadata", text)
	doc.AddFieldMappingsAt("label", bleve.NewNumericFieldMapping())
	im.AddDocumentMapping("record", doc)
	im.DefaultType = "record"
	im.DefaultMapping = doc
	return im
}

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the mapping, remove the index directory to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemBleveIndex creates an in-memory index.
func NewMemBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func toDoc(rec *models.Record) recordDoc {
	// "merchant:Uber" would otherwise be a single token
	return recordDoc{Text: rec.Text, Metadata: strings.ReplaceAll(rec.Metadata, ":", " "), Label: rec.Label}
}

// Index indexes one record.
func (b *BleveIndex) Index(ctx context.Context, rec *models.Record) error {
	return b.index.Index(rec.ID, toDoc(rec))
}

// IndexBatch indexes records in a single bleve batch.
func (b *BleveIndex) IndexBatch(ctx context.Context, recs []*models.Record) error {
	batch := b.index.NewBatch()
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(rec.ID, toDoc(rec)); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", rec.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search runs a match (or fuzzy) query over text and metadata and returns up
// to limit results. With MetadataBoost > 1 the two fields are searched
// separately and their scores added.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	boost := 1.0
	fuzzy := false
	fuzziness := 2
	if opts != nil {
		if opts.MetadataBoost > 0 {
			boost = opts.MetadataBoost
		}
		fuzzy = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	if boost <= 1.0 {
		hits, err := b.run(b.buildQuery(query, fuzzy, fuzziness, ""), limit)
		if err != nil {
			return nil, err
		}
		out := make([]*Result, 0, len(hits))
		for id, score := range hits {
			out = append(out, &Result{ID: id, Score: score})
		}
		return sortResults(out, limit), nil
	}

	reqSize := max(limit*2, 50)
	textHits, err := b.run(b.buildQuery(query, fuzzy, fuzziness, "text"), reqSize)
	if err != nil {
		return nil, err
	}
	metaHits, err := b.run(b.buildQuery(query, fuzzy, fuzziness, "metadata"), reqSize)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(textHits)+len(metaHits))
	for id, s := range textHits {
		scores[id] += s
	}
	for id, s := range metaHits {
		scores[id] += s * boost
	}
	out := make([]*Result, 0, len(scores))
	for id, s := range scores {
		out = append(out, &Result{ID: id, Score: s})
	}
	return sortResults(out, limit), nil
}

func (b *BleveIndex) run(q blevequery.Query, size int) (map[string]float64, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = size
	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	hits := make(map[string]float64, len(res.Hits))
	for _, hit := range res.Hits {
		hits[hit.ID] = hit.Score
	}
	return hits, nil
}

func sortResults(rs []*Result, limit int) []*Result {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		return rs[i].ID < rs[j].ID
	})
	if len(rs) > limit {
		rs = rs[:limit]
	}
	return rs
}

// buildQuery returns a match query, or a disjunction of fuzzy term queries.
// An empty field searches all fields.
func (b *BleveIndex) buildQuery(query string, fuzzy bool, fuzziness int, field string) blevequery.Query {
	terms := tokenizeQuery(query)
	if !fuzzy || len(terms) == 0 {
		mq := bleve.NewMatchQuery(query)
		if field != "" {
			mq.SetField(field)
		}
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		if field != "" {
			fq.SetField(field)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Delete removes a record from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of records in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Terms returns every indexed term of the text and metadata fields with its
// document frequency.
func (b *BleveIndex) Terms() (map[string]int, error) {
	terms := make(map[string]int)
	for _, field := range []string{"text", "metadata"} {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if int(entry.Count) > terms[entry.Term] {
				terms[entry.Term] = int(entry.Count)
			}
		}
		_ = dict.Close()
	}
	return terms, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
