package intent

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// LocalConfig tunes the local recognizer's scoring.
type LocalConfig struct {
	KeywordWeight    float64 // weight of keyword containment
	SimilarityWeight float64 // weight of max(TF-IDF cosine, example Jaccard)
	PatternWeight    float64 // weight of regex hits
	MinConfidence    float64 // scores below this report no intent
	FuzzyThreshold   float64 // edit similarity needed for a fuzzy keyword hit
}

// DefaultLocalConfig returns the tuning the recognizer ships with.
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		KeywordWeight:    0.4,
		SimilarityWeight: 0.3,
		PatternWeight:    0.3,
		MinConfidence:    0.3,
		FuzzyThreshold:   0.6,
	}
}

// compiledPattern is a Pattern with its regexes compiled and example keyword
// sets precomputed. A nil regex entry marks a pattern that failed to
// compile; it never matches but still counts toward the score denominator.
type compiledPattern struct {
	Pattern
	regexes     []*regexp.Regexp
	exampleSets []map[string]bool
}

// Local recognizes intents without any network access by scoring the
// utterance against keyword, regex and similarity signals. All state is
// built in NewLocal and read-only afterwards, so a single Local can serve
// concurrent sessions.
type Local struct {
	config   *LocalConfig
	patterns map[string]*compiledPattern
	order    []string
	tfidf    *vectorizer
	vectors  map[string]map[string]float64
}

var _ Recognizer = (*Local)(nil)

// NewLocal compiles the given patterns and trains the TF-IDF model. A nil
// config means DefaultLocalConfig. A later pattern with the same intent
// name replaces the earlier one.
func NewLocal(patterns []Pattern, config *LocalConfig) *Local {
	if config == nil {
		config = DefaultLocalConfig()
	}

	l := &Local{
		config:   config,
		patterns: make(map[string]*compiledPattern, len(patterns)),
		tfidf:    newVectorizer(),
		vectors:  make(map[string]map[string]float64, len(patterns)),
	}

	for _, p := range patterns {
		if p.Weight == 0 {
			p.Weight = 1.0
		}

		cp := &compiledPattern{Pattern: p}
		cp.regexes = make([]*regexp.Regexp, len(p.Patterns))
		for i, src := range p.Patterns {
			if re, err := regexp.Compile("(?i)" + src); err == nil {
				cp.regexes[i] = re
			}
		}
		cp.exampleSets = make([]map[string]bool, len(p.Examples))
		for i, example := range p.Examples {
			cp.exampleSets[i] = keywordSet(example)
		}

		if _, exists := l.patterns[p.Intent]; !exists {
			l.order = append(l.order, p.Intent)
		}
		l.patterns[p.Intent] = cp
	}

	l.train()
	return l
}

// NewLocalForScenario builds a Local from the predefined library.
func NewLocalForScenario(scenario string) *Local {
	return NewLocal(ScenarioPatterns(scenario), nil)
}

// train fits the TF-IDF model over every example and keyword, then caches
// one aggregate vector per intent.
func (l *Local) train() {
	var docs []string
	for _, name := range l.order {
		p := l.patterns[name]
		docs = append(docs, p.Examples...)
		docs = append(docs, p.Keywords...)
	}
	l.tfidf.fit(docs)

	for _, name := range l.order {
		p := l.patterns[name]
		combined := strings.Join(append(append([]string{}, p.Keywords...), p.Examples...), " ")
		l.vectors[name] = l.tfidf.transform(combined)
	}
}

type scored struct {
	intent   string
	score    float64
	priority int
}

// Recognize scores the utterance against every candidate intent and returns
// the best match, or no intent if nothing clears MinConfidence. Candidates
// without a registered pattern are ignored; an empty candidate list scores
// every registered intent. Results are deterministic: candidates are scored
// in the order given and ties keep that order.
func (l *Local) Recognize(_ context.Context, utterance string, candidates []string, _ *Context) Result {
	if strings.TrimSpace(utterance) == "" {
		return silenceResult()
	}

	processed := preprocess(utterance)

	names := candidates
	if len(names) == 0 {
		names = l.order
	}

	var scores []scored
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		p, ok := l.patterns[name]
		if !ok {
			continue
		}

		keywordScore := l.keywordScore(processed, p)
		patternScore := patternScore(utterance, p)
		similarityScore := l.similarityScore(processed, name)
		exampleScore := exampleScore(processed, p)

		combined := (keywordScore*l.config.KeywordWeight +
			max(similarityScore, exampleScore)*l.config.SimilarityWeight +
			patternScore*l.config.PatternWeight) * p.Weight

		scores = append(scores, scored{intent: name, score: combined, priority: p.Priority})
	}

	if len(scores) == 0 {
		return noMatch(0)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].priority > scores[j].priority
	})

	best := scores[0]
	if best.score < l.config.MinConfidence {
		return noMatch(best.score)
	}

	return Result{
		Intent:     best.intent,
		Confidence: min(best.score, 1.0),
		Entities:   map[string]interface{}{},
	}
}

// keywordScore is the fraction of keywords found in the synonym-expanded
// utterance, either verbatim or by fuzzy containment.
func (l *Local) keywordScore(processed string, p *compiledPattern) float64 {
	if len(p.Keywords) == 0 {
		return 0
	}

	expanded := expandSynonyms(processed, p.Synonyms)

	matched := 0
	for _, keyword := range p.Keywords {
		kw := strings.ToLower(keyword)
		if strings.Contains(expanded, kw) || l.fuzzyContains(kw, expanded) {
			matched++
		}
	}

	return float64(matched) / float64(len(p.Keywords))
}

// expandSynonyms rewrites every synonym occurrence to its canonical word.
func expandSynonyms(text string, synonyms map[string][]string) string {
	expanded := text
	for word, variants := range synonyms {
		for _, variant := range variants {
			v := strings.ToLower(variant)
			if strings.Contains(expanded, v) {
				expanded = strings.ReplaceAll(expanded, v, strings.ToLower(word))
			}
		}
	}
	return expanded
}

// fuzzyContains reports whether some contiguous run of tokens, joined
// without separators, is within edit distance of the keyword. The window
// grows up to the keyword's rune length plus two tokens, which is enough
// for CJK keywords split into single-character tokens.
func (l *Local) fuzzyContains(keyword, text string) bool {
	tokens := tokenize(text)
	kwLen := len([]rune(keyword))

	for i := range tokens {
		limit := min(i+kwLen+2, len(tokens)+1)
		for j := i + 1; j < limit; j++ {
			segment := strings.Join(tokens[i:j], "")
			if editSimilarity(keyword, segment) >= l.config.FuzzyThreshold {
				return true
			}
		}
	}

	return false
}

// patternScore is the fraction of regexes that match the raw utterance.
func patternScore(raw string, p *compiledPattern) float64 {
	if len(p.Patterns) == 0 {
		return 0
	}

	matched := 0
	for _, re := range p.regexes {
		if re != nil && re.MatchString(raw) {
			matched++
		}
	}

	return float64(matched) / float64(len(p.Patterns))
}

// similarityScore is the cosine similarity between the utterance's TF-IDF
// vector and the intent's aggregate vector.
func (l *Local) similarityScore(processed, intent string) float64 {
	vector, ok := l.vectors[intent]
	if !ok {
		return 0
	}
	return cosine(l.tfidf.transform(processed), vector)
}

// exampleScore is the best Jaccard overlap between the utterance's keyword
// set and any example's keyword set.
func exampleScore(processed string, p *compiledPattern) float64 {
	if len(p.exampleSets) == 0 {
		return 0
	}

	utteranceSet := keywordSet(processed)

	best := 0.0
	for _, exampleSet := range p.exampleSets {
		if sim := jaccard(utteranceSet, exampleSet); sim > best {
			best = sim
		}
	}

	return best
}
