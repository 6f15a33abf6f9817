package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/cyborgbench/internal/models"
)

func TestChatReply(t *testing.T) {
	assert.Equal(t, greetingReply, ChatReply("hey"))
	assert.Equal(t, capabilityReply, ChatReply("Who are you?"))
	assert.Equal(t, capabilityReply, ChatReply("help"))
	assert.Equal(t, fallbackReply, ChatReply("what's the weather"))
}

func TestSearchReply(t *testing.T) {
	res := &SearchResult{
		Corrected: "wire transfer",
		Hits: []*Hit{
			{Record: &models.Record{Text: "Urgent wire transfer detected.", Label: models.LabelFraud}, Score: 0.91},
			{Record: &models.Record{Text: "Purchase at Uber for transport."}, Score: 0.42},
		},
	}
	got := SearchReply(res)
	lines := strings.Split(got, "\n")
	assert.Equal(t, `Showing results for "wire transfer".`, lines[0])
	assert.Equal(t, "Found 2 similar transactions, 1 flagged as fraud.", lines[1])
	assert.Equal(t, "1. [FRAUD] Urgent wire transfer detected. (match 0.91)", lines[2])
	assert.Equal(t, "2. [CLEARED] Purchase at Uber for transport. (match 0.42)", lines[3])
	assert.Equal(t, "Risk: High", lines[4])
}

func TestSearchReply_noHits(t *testing.T) {
	assert.Equal(t, "No similar transactions found.", SearchReply(&SearchResult{}))
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, "Low", riskLevel(0, 3))
	assert.Equal(t, "Medium", riskLevel(1, 3))
	assert.Equal(t, "High", riskLevel(2, 3))
}
