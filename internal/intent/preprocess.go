package intent

import "strings"

// punctuation covers both ASCII and full-width CJK marks. These are removed
// outright during preprocessing, without inserting a space, so "no,thanks"
// collapses to "nothanks".
const punctuation = "，。！？、；：" + "“”‘’" + "（）【】《》—…·～" + `,.!?;:'"()[]<>-`

// stopwords are dropped when reducing an utterance or example to its keyword
// set for Jaccard comparison. The list mixes common Chinese particles and
// courtesy words with English filler.
var stopwords = map[string]bool{
	"的": true, "了": true, "是": true, "在": true, "我": true,
	"有": true, "和": true, "就": true, "不": true, "人": true,
	"都": true, "一": true, "一个": true, "上": true, "也": true,
	"很": true, "到": true, "说": true, "要": true, "去": true,
	"你": true, "会": true, "着": true, "没有": true, "看": true,
	"好": true, "自己": true, "这": true, "那": true, "请问": true,
	"请": true, "谢谢": true, "你好": true,

	"the": true, "a": true, "an": true, "is": true, "are": true,
	"am": true, "i": true, "me": true, "my": true, "you": true,
	"your": true, "please": true, "can": true, "could": true,
	"would": true, "want": true, "to": true, "of": true, "for": true,
	"and": true, "hi": true, "hello": true, "ok": true, "okay": true,
}

// isCJK reports whether r falls in the CJK Unified Ideographs block.
func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// preprocess lowercases text, strips punctuation and collapses runs of
// whitespace to single spaces.
func preprocess(text string) string {
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if strings.ContainsRune(punctuation, r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenize splits preprocessed text into tokens. Each CJK character is its
// own token; runs of other characters between spaces stay whole, so "book a
// seat" tokenizes to ["book", "a", "seat"] while "挂号" tokenizes to
// ["挂", "号"].
func tokenize(text string) []string {
	cleaned := preprocess(text)

	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range cleaned {
		switch {
		case r == ' ':
			flush()
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// extractKeywords tokenizes text and drops stopwords.
func extractKeywords(text string) []string {
	var keywords []string
	for _, tok := range tokenize(text) {
		if !stopwords[tok] {
			keywords = append(keywords, tok)
		}
	}
	return keywords
}

// keywordSet is extractKeywords as a set, for Jaccard overlap.
func keywordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, kw := range extractKeywords(text) {
		set[kw] = true
	}
	return set
}
