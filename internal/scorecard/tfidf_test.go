package scorecard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarityIdenticalTexts(t *testing.T) {
	score := CosineSimilarity("indexes speed up lookups", "indexes speed up lookups")
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestCosineSimilarityDisjointVocabulary(t *testing.T) {
	score := CosineSimilarity("apples oranges bananas", "trucks engines diesel")
	assert.Equal(t, 0.0, score)
}

func TestCosineSimilarityEmptyInput(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity("", "some answer"))
	assert.Equal(t, 0.0, CosineSimilarity("some answer", ""))
	assert.Equal(t, 0.0, CosineSimilarity("", ""))
	assert.Equal(t, 0.0, CosineSimilarity("!!! ...", "punctuation only"))
}

func TestCosineSimilarityPartialOverlap(t *testing.T) {
	score := CosineSimilarity(
		"a database index speeds up queries",
		"an index makes database queries faster",
	)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)
}

func TestCosineSimilarityIgnoresCaseAndPunctuation(t *testing.T) {
	score := CosineSimilarity("SQL joins combine tables!", "sql JOINS combine tables")
	assert.InDelta(t, 1.0, score, 1e-9)
}
