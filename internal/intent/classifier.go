// Package intent decides whether a message answers the current step or
// steps aside from it.
package intent

import (
	"regexp"
	"strings"
	"sync"
)

// QuestionCues mark a message as a general question when they appear as whole words.
var QuestionCues = []string{
	"what", "why", "how", "recommend", "which is better", "should i",
	"can you", "explain", "difference", "tell me",
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*regexp.Regexp{}
)

func wordRe(phrase string) *regexp.Regexp {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if re, ok := cache[phrase]; ok {
		return re
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
	cache[phrase] = re
	return re
}

// ContainsWord reports whether phrase appears in text as a whole word,
// ignoring case.
func ContainsWord(text, phrase string) bool {
	return wordRe(strings.ToLower(phrase)).MatchString(strings.ToLower(text))
}

// IsDigression reports whether text is an aside rather than an answer.
// exceptions are the current phase's in-flow keywords and win over every
// other rule.
func IsDigression(text string, exceptions []string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, kw := range exceptions {
		if kw != "" && ContainsWord(t, kw) {
			return false
		}
	}
	if len(t) < 5 && isNumeric(t) {
		return false
	}
	return IsQuestion(t)
}

// IsQuestion reports whether text is phrased as a question: it contains
// "?" or a whole-word question cue.
func IsQuestion(text string) bool {
	t := strings.ToLower(text)
	if strings.Contains(t, "?") {
		return true
	}
	for _, cue := range QuestionCues {
		if ContainsWord(t, cue) {
			return true
		}
	}
	return false
}

// StartsWithCue reports whether text opens with a question cue.
func StartsWithCue(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, cue := range QuestionCues {
		if t == cue || strings.HasPrefix(t, cue+" ") {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',':
		default:
			return false
		}
	}
	return digits > 0
}
