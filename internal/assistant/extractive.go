package assistant

import "strings"

const (
	minSentenceLen   = 20
	minQueryWordLen  = 3
	maxExtractedHits = 3

	noAnswerMessage = "I could not find a direct answer on this page. Try rephrasing your question or asking about the overall topic."
)

// ExtractAnswer picks sentences from the page text that share words with the
// query. It is the zero-dependency fallback when no model is available.
func ExtractAnswer(query, pageContext string) string {
	words := queryWords(query)
	if len(words) == 0 {
		return noAnswerMessage
	}

	var hits []string
	for _, sent := range splitSentences(pageContext) {
		if len(sent) <= minSentenceLen {
			continue
		}
		lower := strings.ToLower(sent)
		for _, w := range words {
			if strings.Contains(lower, w) {
				hits = append(hits, sent)
				break
			}
		}
		if len(hits) == maxExtractedHits {
			break
		}
	}
	if len(hits) == 0 {
		return noAnswerMessage
	}
	return strings.Join(hits, " ")
}

// queryWords lowercases the query and keeps words long enough to carry
// meaning, dropping short function words.
func queryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len(w) > minQueryWordLen {
			words = append(words, w)
		}
	}
	return words
}

// splitSentences breaks text on sentence-ending punctuation followed by a
// space. Abbreviations are not treated specially.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' {
				s := strings.TrimSpace(cur.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
