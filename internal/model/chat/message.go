package chat

import (
	"time"

	"github.com/zhouzirui/manasbridge/backend/internal/model/mood"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ComponentMoodLog marks an assistant message that offers an inline mood check-in.
const ComponentMoodLog = "mood_log"

// WelcomeMessageID is the synthetic greeting seeded into an empty transcript. It is never sent to the model.
const WelcomeMessageID = "welcome-message"

// Message is one turn of the transcript.
type Message struct {
	ID               string    `json:"id"`
	Sender           Sender    `json:"sender"`
	Text             string    `json:"text"`
	Timestamp        time.Time `json:"timestamp"`
	Component        string    `json:"component,omitempty"`
	MoodLogCompleted bool      `json:"moodLogCompleted,omitempty"`
	SuggestedMood    mood.Mood `json:"suggestedMood,omitempty"`
}

// OffersMoodLog reports whether the message carries the inline mood-log affordance.
func (m Message) OffersMoodLog() bool {
	return m.Component == ComponentMoodLog
}
