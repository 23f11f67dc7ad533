package safety

import "strings"

// MoodLogSentinel is appended by the model when it wants to offer a mood check-in.
const MoodLogSentinel = "[SUGGEST_MOOD_LOG]"

// StripMoodLogSentinel removes the first sentinel occurrence and trims the result.
// Text without the sentinel is returned unchanged.
func StripMoodLogSentinel(text string) (string, bool) {
	if !strings.Contains(text, MoodLogSentinel) {
		return text, false
	}
	return strings.TrimSpace(strings.Replace(text, MoodLogSentinel, "", 1)), true
}
