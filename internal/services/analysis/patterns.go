package analysis

import "regexp"

// Pitch-text pattern families. Each family fires at most one signal no
// matter how many phrases match.
var (
	guaranteedReturnsRe = regexp.MustCompile(`(?i)guaranteed?\s+(returns?|profits?|gains?)|risk[\s-]?free|can'?t\s+lose|double\s+your\s+money|no\s+risk`)
	urgencyRe           = regexp.MustCompile(`(?i)act\s+now|limited\s+time|last\s+chance|don'?t\s+miss|today\s+only|before\s+it'?s\s+too\s+late|hurry`)
	insiderRe           = regexp.MustCompile(`(?i)insider|inside\s+info(rmation)?|secret\s+tip|not\s+(yet\s+)?public|confidential|before\s+the\s+news`)
)

func matchesGuaranteedReturns(text string) bool {
	return text != "" && guaranteedReturnsRe.MatchString(text)
}

func matchesUrgency(text string) bool {
	return text != "" && urgencyRe.MatchString(text)
}

func matchesInsider(text string) bool {
	return text != "" && insiderRe.MatchString(text)
}
