package mood

import (
	"fmt"
	"strings"
	"time"
)

// Mood is a self-reported emotional state.
type Mood string

const (
	Ecstatic Mood = "Ecstatic"
	Happy    Mood = "Happy"
	Okay     Mood = "Okay"
	Sad      Mood = "Sad"
	Anxious  Mood = "Anxious"
	Stressed Mood = "Stressed"
)

// All lists the moods in the order the check-in picker shows them.
func All() []Mood {
	return []Mood{Ecstatic, Happy, Okay, Sad, Anxious, Stressed}
}

// Ordinal places the mood on the chart's valence axis, 6 (Ecstatic) down to 1 (Stressed).
func (m Mood) Ordinal() int {
	switch m {
	case Ecstatic:
		return 6
	case Happy:
		return 5
	case Okay:
		return 4
	case Sad:
		return 3
	case Anxious:
		return 2
	case Stressed:
		return 1
	default:
		return 0
	}
}

// Valid reports whether m is one of the six known moods.
func (m Mood) Valid() bool {
	return m.Ordinal() > 0
}

// Emoji used by clients when rendering the picker and history.
func (m Mood) Emoji() string {
	switch m {
	case Ecstatic:
		return "😄"
	case Happy:
		return "😊"
	case Okay:
		return "😐"
	case Sad:
		return "😢"
	case Anxious:
		return "😟"
	case Stressed:
		return "😫"
	default:
		return ""
	}
}

// Parse accepts a mood name case-insensitively.
func Parse(raw string) (Mood, error) {
	trimmed := strings.TrimSpace(raw)
	for _, m := range All() {
		if strings.EqualFold(trimmed, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mood %q", raw)
}

// Entry is one check-in. Entries are immutable once recorded.
type Entry struct {
	ID   string    `json:"id"`
	Mood Mood      `json:"mood"`
	Note string    `json:"note"`
	Date time.Time `json:"date"`
}

// ChartPoint is an entry projected onto the trend chart.
type ChartPoint struct {
	Date  time.Time `json:"date"`
	Mood  Mood      `json:"mood"`
	Value int       `json:"value"`
}
