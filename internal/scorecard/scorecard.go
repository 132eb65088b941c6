package scorecard

import (
	"fmt"
	"log"

	"github.com/anindya-dev/interview-assistant-backend/internal/llm"
)

// Scorer grades a candidate answer against a model-generated reference
// answer. The reference answer is never shown to the candidate.
type Scorer interface {
	ReferenceAnswer(question, topic string) (string, error)
	Similarity(a, b string) float64
}

// LLMScorer generates reference answers through the Gemini client and
// scores with TF-IDF cosine similarity
type LLMScorer struct {
	generator llm.Generator
}

// NewLLMScorer creates a new scorer backed by the given generator
func NewLLMScorer(generator llm.Generator) *LLMScorer {
	return &LLMScorer{generator: generator}
}

// ReferenceAnswer asks the model to provide an ideal answer to a given
// interview question
func (s *LLMScorer) ReferenceAnswer(question, topic string) (string, error) {
	prompt := fmt.Sprintf(`You are a world-class expert in %s. Provide a concise, ideal answer to the following technical interview question. Focus on accuracy and clarity.

Question: %s

Ideal Answer:`, topic, question)

	answer, err := s.generator.Generate(prompt)
	if err != nil {
		log.Printf("⚠️  Reference answer generation failed: %v", err)
		return "", err
	}
	return answer, nil
}

// Similarity returns the TF-IDF cosine similarity between two texts,
// degrading to 0 on empty input
func (s *LLMScorer) Similarity(a, b string) float64 {
	return CosineSimilarity(a, b)
}
