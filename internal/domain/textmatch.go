package domain

import "regexp"

// compileWordPatterns builds case-insensitive whole-word matchers for
// fixed vocabulary lists. Word boundaries keep "owed" from matching
// inside "followed" and "should" from matching inside "shoulder".
func compileWordPatterns(lists ...[]string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, list := range lists {
		for _, phrase := range list {
			patterns[phrase] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
		}
	}
	return patterns
}
