package chat

import "github.com/zhouzirui/manasbridge/backend/internal/model/resource"

// Outcome is the terminal state of a submitted turn.
type Outcome string

const (
	// OutcomeCompleted means the model finished naturally.
	OutcomeCompleted Outcome = "completed"
	// OutcomeSafetyStopped means the provider halted generation on a safety policy.
	OutcomeSafetyStopped Outcome = "safety_stopped"
	// OutcomeErrored means transport or provider failure; the reply holds the apology.
	OutcomeErrored Outcome = "errored"
	// OutcomeCrisis means crisis language was detected and nothing was sent.
	OutcomeCrisis Outcome = "crisis"
)

// Reply is the result of submitting one user message.
type Reply struct {
	Outcome   Outcome            `json:"outcome"`
	User      *Message           `json:"user,omitempty"`
	Assistant *Message           `json:"assistant,omitempty"`
	Contacts  []resource.Contact `json:"contacts,omitempty"`
}
