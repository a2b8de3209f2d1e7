// Package automod evaluates message content against per guild moderation
// rules. Evaluation is pure, it performs no I/O and holds no state.
package automod

import (
	"regexp"
	"strings"
)

type (
	RuleSet struct {
		BannedWords []string
		MaxLinks    int
	}

	Reason string

	Verdict struct {
		Allowed bool
		Reason  Reason
		Word    string
		Links   int
	}
)

const (
	ReasonProhibitedWord Reason = "prohibited word"
	ReasonTooManyLinks   Reason = "too many links"
)

var linkPattern = regexp.MustCompile(`https?://\S+`)

// Evaluate applies the rule set to a single message text. Banned words take
// priority over the link limit, the first matching rule decides the verdict.
// A word matches as a case insensitive substring, blank configured entries
// are skipped. Links are rejected only when their count exceeds MaxLinks,
// exactly MaxLinks links pass.
func Evaluate(rules RuleSet, text string) Verdict {
	lowered := strings.ToLower(text)
	for _, configured := range rules.BannedWords {
		word := strings.ToLower(strings.TrimSpace(configured))
		if word == "" {
			continue
		}
		if strings.Contains(lowered, word) {
			return Verdict{Reason: ReasonProhibitedWord, Word: word}
		}
	}

	if links := len(linkPattern.FindAllString(text, -1)); links > rules.MaxLinks {
		return Verdict{Reason: ReasonTooManyLinks, Links: links}
	}

	return Verdict{Allowed: true}
}
