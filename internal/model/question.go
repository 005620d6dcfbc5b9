package model

// Unanswered is the chosen-option marker for a question the candidate never answered.
// Option labels are single letters, so it can never collide with a real label.
const Unanswered = "N/A"

// Option is one labelled answer choice. Slice order is display order.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is an immutable multiple-choice bank entry.
type Question struct {
	ID            string   `json:"id"`
	Subject       string   `json:"subject"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correct_option"`
	Explanation   string   `json:"explanation"`
}

// HasOption reports whether label is one of the question's option labels.
func (q Question) HasOption(label string) bool {
	for _, o := range q.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}

// OptionText returns the text for label, or "" if the label does not exist.
func (q Question) OptionText(label string) string {
	for _, o := range q.Options {
		if o.Label == label {
			return o.Text
		}
	}
	return ""
}

// QuestionForCandidate is a question without the answer key or explanation.
type QuestionForCandidate struct {
	ID      string   `json:"id"`
	Subject string   `json:"subject"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// ForCandidate strips the answer key and explanation.
func (q Question) ForCandidate() QuestionForCandidate {
	return QuestionForCandidate{
		ID:      q.ID,
		Subject: q.Subject,
		Prompt:  q.Prompt,
		Options: q.Options,
	}
}

// QuestionCatalog is the on-disk shape of a question bank file.
type QuestionCatalog struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}
