package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// keywordIndicators maps answer-analysis keywords to indicator strings, in reporting order
var keywordIndicators = []struct {
	keyword   string
	indicator string
}{
	{"inconsisten", "Inconsistent information"},
	{"suspicious", "Suspicious pattern detected"},
	{"unusual", "Unusual circumstances"},
	{"delay", "Unexplained delay"},
	{"missing", "Missing documentation"},
}

const maxFollowUps = 3

var (
	codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	sentenceRe  = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
)

type structuredReply struct {
	Message    string   `json:"message"`
	Indicators []string `json:"indicators"`
}

// ParseReply turns raw collaborator output into a response.
// JSON replies supply their own indicators; free text falls back to keyword matching.
func ParseReply(raw string) *CompletionResponse {
	text := strings.TrimSpace(raw)
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var reply structuredReply
	if strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &reply) == nil && strings.TrimSpace(reply.Message) != "" {
		message := strings.TrimSpace(reply.Message)
		return &CompletionResponse{
			Message:    message,
			Indicators: NormalizeIndicators(reply.Indicators),
			FollowUps:  ExtractFollowUps(message),
		}
	}

	return &CompletionResponse{
		Message:    text,
		Indicators: ExtractIndicators(text),
		FollowUps:  ExtractFollowUps(text),
	}
}

// ExtractIndicators reports the keyword indicators present in text
func ExtractIndicators(text string) []string {
	lower := strings.ToLower(text)
	indicators := []string{}
	for _, k := range keywordIndicators {
		if strings.Contains(lower, k.keyword) {
			indicators = append(indicators, k.indicator)
		}
	}
	return indicators
}

// ExtractFollowUps returns up to three questions asked in text
func ExtractFollowUps(text string) []string {
	var questions []string
	for _, sentence := range sentenceRe.FindAllString(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if !strings.HasSuffix(sentence, "?") || len(sentence) < 2 {
			continue
		}
		questions = append(questions, sentence)
		if len(questions) == maxFollowUps {
			break
		}
	}
	return questions
}

// NormalizeIndicators trims, drops empties and removes duplicates keeping the first occurrence
func NormalizeIndicators(in []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
