// Package ingest builds records for the indexes: a synthetic transaction
// generator and loaders for csv, xlsx and document files.
package ingest

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/cyborgbench/internal/models"
)

// SourceSynthetic marks generated records.
const SourceSynthetic = "synthetic"

var (
	merchants  = []string{"Starbucks", "Walmart", "Amazon", "Uber", "Netflix", "Target", "Whole Foods", "Shell Station"}
	categories = []string{"groceries", "entertainment", "transport", "utilities", "dining", "shopping"}

	fraudKeywords       = []string{"offshore", "urgent", "crypto", "gift card", "unverified", "suspicious", "shell company"}
	suspiciousCountries = []string{"Cayman Islands", "Panama", "Unknown", "Russia", "Cyprus"}
)

// Generator produces synthetic financial transactions. Normal purchases are
// small and cleared; fraudulent ones are large wire transfers with a red-flag
// keyword and a suspicious destination.
type Generator struct {
	rng       *rand.Rand
	fraudRate float64
	year      time.Time
}

// NewGenerator creates a generator. The same seed yields the same records,
// IDs included. fraudRate is clamped to [0,1].
func NewGenerator(seed int64, fraudRate float64) *Generator {
	return &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		fraudRate: math.Min(math.Max(fraudRate, 0), 1),
		year:      time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Generate returns n records.
func (g *Generator) Generate(n int) []*models.Record {
	recs := make([]*models.Record, 0, n)
	for i := 0; i < n; i++ {
		if g.rng.Float64() < g.fraudRate {
			recs = append(recs, g.fraud())
		} else {
			recs = append(recs, g.normal())
		}
	}
	return recs
}

func (g *Generator) pick(s []string) string {
	return s[g.rng.Intn(len(s))]
}

func (g *Generator) amount(lo, hi float64) float64 {
	return math.Round((lo+g.rng.Float64()*(hi-lo))*100) / 100
}

func (g *Generator) id() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (g *Generator) normal() *models.Record {
	merchant := g.pick(merchants)
	date := g.year.AddDate(0, 0, g.rng.Intn(365))
	return &models.Record{
		ID:       g.id(),
		Text:     fmt.Sprintf("Purchase at %s for %s. Date: %s. Status: Cleared.", merchant, g.pick(categories), date.Format("2006-01-02")),
		Amount:   g.amount(5, 300),
		Label:    models.LabelNormal,
		Metadata: "merchant:" + merchant,
		Source:   SourceSynthetic,
	}
}

func (g *Generator) fraud() *models.Record {
	keyword := g.pick(fraudKeywords)
	amount := g.amount(1000, 50000)
	return &models.Record{
		ID: g.id(),
		Text: fmt.Sprintf("Urgent wire transfer detected. Keyword: %s. Destination: %s. Amount: $%.2f. Risk: High.",
			keyword, g.pick(suspiciousCountries), amount),
		Amount:   amount,
		Label:    models.LabelFraud,
		Metadata: "keyword:" + keyword,
		Source:   SourceSynthetic,
	}
}
