package intent

import "math"

// vectorizer builds TF-IDF vectors over stopword-stripped keyword tokens.
// fit is called once at construction time; after that the vectorizer is
// read-only and safe for concurrent transform calls.
type vectorizer struct {
	documentFreq map[string]int
	totalDocs    int
}

func newVectorizer() *vectorizer {
	return &vectorizer{documentFreq: make(map[string]int)}
}

// fit counts, for every keyword, how many documents contain it.
func (v *vectorizer) fit(documents []string) {
	v.totalDocs = len(documents)

	for _, doc := range documents {
		seen := make(map[string]bool)
		for _, tok := range extractKeywords(doc) {
			if !seen[tok] {
				seen[tok] = true
				v.documentFreq[tok]++
			}
		}
	}
}

// transform converts text into a sparse TF-IDF vector. Term frequency is
// normalized by the most frequent token, and tokens never seen during fit
// still get a default IDF weight so novel words contribute to the vector
// norm instead of vanishing.
func (v *vectorizer) transform(text string) map[string]float64 {
	tokens := extractKeywords(text)
	if len(tokens) == 0 {
		return map[string]float64{}
	}

	tf := make(map[string]int)
	maxTF := 0
	for _, tok := range tokens {
		tf[tok]++
		if tf[tok] > maxTF {
			maxTF = tf[tok]
		}
	}

	tfidf := make(map[string]float64, len(tf))
	for tok, freq := range tf {
		normalized := float64(freq) / float64(maxTF)
		idf := math.Log(float64(v.totalDocs+1)/float64(v.documentFreq[tok]+1)) + 1
		tfidf[tok] = normalized * idf
	}

	return tfidf
}
