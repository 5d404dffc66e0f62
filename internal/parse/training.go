package parse

import (
	"regexp"
	"strings"
)

// TrainingKeywords is the fixed set of glyphs and words that mark a message
// as a training session. Matching is case-insensitive substring matching,
// so "overrun" and "Muscular" match too.
var TrainingKeywords = []string{
	"\U0001F3CB", // weight lifter
	"\U0001F4AA", // flexed biceps
	"\U0001F3C3", // runner
	"\U0001F3CA", // swimmer
	"sport",
	"entrainement",
	"run",
	"muscu",
}

var trainingRe = compileKeywords(TrainingKeywords)

func compileKeywords(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// IsTraining reports whether message mentions a training session.
func IsTraining(message string) bool {
	return trainingRe.MatchString(message)
}
