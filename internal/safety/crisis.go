// Package safety holds the checks that run before and after a chat turn.
package safety

import "strings"

var crisisKeywords = []string{
	"kill myself", "suicide", "self-harm", "want to die", "end my life",
	"hopeless", "no reason to live", "self harm", "cutting myself", "overdose",
}

// CrisisKeywords returns a copy of the compiled-in keyword list.
func CrisisKeywords() []string {
	return append([]string(nil), crisisKeywords...)
}

// ContainsCrisisLanguage reports whether text contains any crisis keyword, case-insensitively.
// Matching is plain substring containment and stops at the first hit.
func ContainsCrisisLanguage(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, keyword := range crisisKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
