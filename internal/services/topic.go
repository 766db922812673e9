package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxTopicLen = 80

// Ordered: the first pattern that matches wins.
var topicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\blearn(?:ing)?\s+about\s+(.+)`),
	regexp.MustCompile(`(?i)\bteach\s+me\s+(?:about\s+)?(.+)`),
	regexp.MustCompile(`(?i)\blearn(?:ing)?\s+(.+)`),
	regexp.MustCompile(`(?i)\bhow\s+do\s+(?:i|you|we)\s+(.+)`),
	regexp.MustCompile(`(?i)\bhow\s+to\s+(.+)`),
	regexp.MustCompile(`(?i)\bwhat\s+(?:is|are)\s+(.+)`),
	regexp.MustCompile(`(?i)\btell\s+me\s+about\s+(.+)`),
	regexp.MustCompile(`(?i)\bexplain\s+(.+)`),
	regexp.MustCompile(`(?i)\binterested\s+in\s+(.+)`),
	regexp.MustCompile(`(?i)\bstudy(?:ing)?\s+(.+)`),
}

var (
	sentenceEnd     = regexp.MustCompile(`[.!?;\n]`)
	leadingArticle  = regexp.MustCompile(`(?i)^(?:a|an|the|some|more)\s+`)
	trailingFiller  = regexp.MustCompile(`(?i)[\s,]+(?:please|pls|today|now|right now|for me|thanks|thank you)$`)
	trailingPunct   = regexp.MustCompile(`[\s,.:;!?'"]+$`)
	questionKeyword = regexp.MustCompile(`(?i)\b(?:what|how|explain|describe)\b`)
	smallTalkPhrase = regexp.MustCompile(`(?i)^(?:(?:hi|hello|hey|yo|hiya|howdy)(?:\s+there)?[\s,!.]+)?` +
		`(?:how\s+are\s+(?:you|u|ya)|how(?:['’]?s|\s+is)\s+it\s+going|how\s+have\s+you\s+been|` +
		`what(?:['’]?s|\s+is)\s+(?:up|new)|wh?at\s+up|who\s+are\s+you|` +
		`(?:can|could|will|would)\s+you\s+(?:help|teach)(?:\s+me)?|` +
		`(?:nice|good)\s+to\s+(?:meet|see)\s+you)\b`)
)

// Words that open a question. A short message led by one is never a topic on its own.
var questionLeads = map[string]struct{}{
	"how": {}, "what": {}, "who": {}, "why": {}, "where": {}, "when": {}, "which": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "do": {}, "does": {}, "are": {}, "is": {},
}

// Words that, alone, make up small talk rather than a topic.
var smallTalkWords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "sup": {}, "hiya": {}, "howdy": {}, "greetings": {},
	"thanks": {}, "thank": {}, "you": {}, "thx": {}, "ty": {},
	"ok": {}, "okay": {}, "k": {}, "yes": {}, "yeah": {}, "yep": {}, "yup": {}, "no": {}, "nope": {}, "nah": {},
	"sure": {}, "cool": {}, "nice": {}, "great": {}, "awesome": {}, "lol": {}, "hmm": {},
	"bye": {}, "goodbye": {}, "good": {}, "morning": {}, "afternoon": {}, "evening": {}, "night": {},
	"there": {}, "genie": {}, "please": {}, "again": {},
}

// ExtractTopic infers a short learning topic from a chat message without an LLM call.
// It returns false when nothing topic-like is found.
func ExtractTopic(message string) (string, bool) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return "", false
	}
	for _, re := range topicPatterns {
		m := re.FindStringSubmatch(msg)
		if len(m) != 2 {
			continue
		}
		if topic := cleanTopic(m[1]); topic != "" {
			return topic, true
		}
	}

	if smallTalkPhrase.MatchString(msg) {
		return "", false
	}
	words := strings.Fields(trailingPunct.ReplaceAllString(msg, ""))
	if len(words) == 0 || len(words) > 4 || isSmallTalk(words) || startsWithQuestion(words) {
		return "", false
	}
	if topic := cleanTopic(strings.Join(words, " ")); topic != "" {
		return topic, true
	}
	return "", false
}

func cleanTopic(raw string) string {
	s := raw
	if loc := sentenceEnd.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = strings.TrimSpace(s)
	for {
		next := trailingPunct.ReplaceAllString(trailingFiller.ReplaceAllString(s, ""), "")
		if next == s {
			break
		}
		s = next
	}
	s = strings.TrimSpace(leadingArticle.ReplaceAllString(s, ""))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	if len(s) > maxTopicLen {
		s = strings.TrimSpace(s[:maxTopicLen])
		for !utf8.ValidString(s) && len(s) > 0 {
			s = s[:len(s)-1]
		}
	}
	return capitalizeFirst(s)
}

func isSmallTalk(words []string) bool {
	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, ",.!?'\""))
		if w == "" {
			continue
		}
		if _, ok := smallTalkWords[w]; !ok {
			return false
		}
	}
	return true
}

func startsWithQuestion(words []string) bool {
	w := strings.ToLower(strings.Trim(words[0], ",.!?'\""))
	if i := strings.IndexAny(w, "'’"); i >= 0 {
		w = w[:i]
	}
	_, ok := questionLeads[w]
	return ok
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LooksLikeQuestion reports whether a teacher turn asks the player something.
func LooksLikeQuestion(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	return questionKeyword.MatchString(text)
}
