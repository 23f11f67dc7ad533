package resource

// Contact is an emergency helpline shown with the crisis overlay and on the resources page.
type Contact struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
}

// EmergencyContacts returns the compiled-in helplines.
func EmergencyContacts() []Contact {
	return []Contact{
		{Name: "AASRA", Phone: "9820466726", Description: "24x7 Suicide Prevention & Emotional Support", Website: "http://www.aasra.info/"},
		{Name: "iCALL", Phone: "022-25521111", Description: "Psychosocial helpline by TISS", Website: "https://icallhelpline.org/"},
		{Name: "Vandrevala Foundation", Phone: "9999666555", Description: "24x7 Mental Health Helpline", Website: "https://www.vandrevalafoundation.com/"},
		{Name: "Fortis Stress Helpline", Phone: "8376804102", Description: "24x7 helpline for stress and anxiety", Website: "https://www.fortishealthcare.com/"},
	}
}

// JournalPrompts returns the check-in writing prompts.
func JournalPrompts() []string {
	return []string{
		"What's one good thing that happened today?",
		"What's been worrying you lately?",
		"Describe a moment when you felt proud of yourself.",
		"What is something you're looking forward to?",
		"Write about a challenge you overcame.",
		"List three things you are grateful for right now.",
	}
}
