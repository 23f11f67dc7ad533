package mood

import (
	"strings"

	model "github.com/zhouzirui/manasbridge/backend/internal/model/mood"
)

// Suggestion is the analyzer's best guess at the mood expressed in a piece of text.
type Suggestion struct {
	Mood  model.Mood `json:"mood"`
	Score int        `json:"score"`
}

var keywordBuckets = map[model.Mood][]string{
	model.Ecstatic: {
		"amazing", "awesome", "fantastic", "thrilled", "over the moon", "best day", "so excited",
		"can't wait", "incredible", "ecstatic", "bahut khush",
	},
	model.Happy: {
		"happy", "glad", "great day", "good day", "grateful", "thankful", "proud", "joy", "smile",
		"khush", "accha laga", "love",
	},
	model.Okay: {
		"okay", "fine", "alright", "not bad", "so-so", "normal day", "theek",
	},
	model.Sad: {
		"sad", "lonely", "cry", "crying", "upset", "heartbroken", "miss", "down", "low", "hurt",
		"udaas", "dukhi",
	},
	model.Anxious: {
		"anxious", "anxiety", "nervous", "worried", "worry", "scared", "afraid", "panic", "uneasy",
		"overthinking", "ghabrahat",
	},
	model.Stressed: {
		"stressed", "stress", "exam", "deadline", "pressure", "overwhelmed", "burnt out", "burnout",
		"exhausted", "too much", "tension",
	},
}

const keywordWeight = 3

// Suggest scores text against every mood bucket and returns the strongest match.
// It falls back to Okay with a zero score when nothing matches.
func Suggest(text string) Suggestion {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Suggestion{Mood: model.Okay}
	}

	scores := make(map[model.Mood]int)
	for m, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[m] += keywordWeight
			}
		}
	}

	if exclamations := strings.Count(text, "!"); exclamations > 1 && scores[model.Happy] > 0 {
		scores[model.Ecstatic] += exclamations * 2
	}

	best := Suggestion{Mood: model.Okay}
	// Iterate in picker order so ties resolve deterministically.
	for _, m := range model.All() {
		if scores[m] > best.Score {
			best = Suggestion{Mood: m, Score: scores[m]}
		}
	}
	return best
}
