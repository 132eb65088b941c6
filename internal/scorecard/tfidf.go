package scorecard

import (
	"math"
	"strings"
	"unicode"
)

// CosineSimilarity computes the cosine similarity between the TF-IDF
// vectors of two texts over their shared two-document corpus. The result
// is in [0,1]; empty input yields 0.
func CosineSimilarity(text1, text2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0.0
	}

	tokens1 := tokenize(text1)
	tokens2 := tokenize(text2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	counts1 := termCounts(tokens1)
	counts2 := termCounts(tokens2)

	// Vocabulary over both documents
	vocab := make(map[string]struct{}, len(counts1)+len(counts2))
	for term := range counts1 {
		vocab[term] = struct{}{}
	}
	for term := range counts2 {
		vocab[term] = struct{}{}
	}

	// Smoothed idf over the two-document corpus: ln((1+n)/(1+df)) + 1
	const nDocs = 2.0
	vec1 := make(map[string]float64, len(counts1))
	vec2 := make(map[string]float64, len(counts2))
	for term := range vocab {
		df := 0.0
		if counts1[term] > 0 {
			df++
		}
		if counts2[term] > 0 {
			df++
		}
		idf := math.Log((1+nDocs)/(1+df)) + 1
		if counts1[term] > 0 {
			vec1[term] = float64(counts1[term]) * idf
		}
		if counts2[term] > 0 {
			vec2[term] = float64(counts2[term]) * idf
		}
	}

	dot := 0.0
	for term, w1 := range vec1 {
		if w2, ok := vec2[term]; ok {
			dot += w1 * w2
		}
	}
	if dot == 0 {
		return 0.0
	}

	similarity := dot / (norm(vec1) * norm(vec2))

	// Guard against floating point drift past 1.0
	if similarity > 1.0 {
		similarity = 1.0
	}
	return similarity
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return counts
}

func norm(vec map[string]float64) float64 {
	sum := 0.0
	for _, w := range vec {
		sum += w * w
	}
	return math.Sqrt(sum)
}
