package ai

import (
	"strings"

	"github.com/zhouzirui/manasbridge/backend/internal/model/persona"
	"github.com/zhouzirui/manasbridge/backend/internal/safety"
)

const safetyDisclaimer = `**Critical Safety Rules:**
-   **You are an AI assistant, NOT a doctor or therapist.** You must NEVER give medical advice, diagnoses, or prescriptions. Do not pretend to be a healthcare professional. Your role is supportive listening, not treatment.
-   Always include this disclaimer in your very first message: "Please remember, I am an AI assistant and not a substitute for professional medical advice. If you are in crisis, please seek help from a professional immediately."
-   If a user expresses feelings of distress but not immediate crisis, gently guide them towards resources. For example: "It might be helpful to talk to a professional about these feelings. There are many resources available that can support you."`

const moodLogInstruction = `**Special Features:**
-   **Mood Logging Integration**: If the user expresses a clear mood or strong feeling (e.g., "I'm feeling really sad today," "I'm so stressed about my exams," "I had a great day!"), after your supportive response, you can ask them if they want to log their mood. To do this, append the special token **` + safety.MoodLogSentinel + `** on a new line at the very end of your message. Do not add any other text after this token. Use this feature thoughtfully.`

// PromptManager builds system prompts for personas.
type PromptManager struct {
	personas persona.Store
}

// NewPromptManager creates a prompt manager backed by the persona catalogue.
func NewPromptManager(personas persona.Store) *PromptManager {
	return &PromptManager{personas: personas}
}

// Resolve returns the persona for id, falling back to the default and then to the first catalogue entry.
func (pm *PromptManager) Resolve(id persona.ID) persona.Persona {
	if p, ok := pm.personas.FindByID(id); ok {
		return p
	}
	if p, ok := pm.personas.FindByID(persona.DefaultID); ok {
		return p
	}
	if items := pm.personas.List(); len(items) > 0 {
		return items[0]
	}
	return persona.Persona{ID: persona.DefaultID, Name: "ManasBridge AI"}
}

// BuildSystemPrompt composes persona instructions with the shared safety rules and the mood-log feature.
func (pm *PromptManager) BuildSystemPrompt(p persona.Persona) string {
	sections := make([]string, 0, 3)
	if instructions := strings.TrimSpace(p.Instructions); instructions != "" {
		sections = append(sections, instructions)
	}
	sections = append(sections, safetyDisclaimer, moodLogInstruction)
	return strings.Join(sections, "\n\n")
}
