package domain

// PromptRange marks a byte span [Start, End) of a rendered prompt.
type PromptRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RichPrompt is a rendered prompt together with the named ranges that were
// marked in its template. A name can occur more than once.
type RichPrompt struct {
	Text   string                   `json:"text"`
	Ranges map[string][]PromptRange `json:"ranges,omitempty"`
}

// RangeText returns the text of every range with the given name.
func (p RichPrompt) RangeText(name string) []string {
	ranges := p.Ranges[name]
	texts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		texts = append(texts, p.Text[r.Start:r.End])
	}
	return texts
}

// TextChunk is a piece of text handed to a task.
type TextChunk string

// Language is an ISO 639-1 language code such as "en" or "de".
type Language string

// String returns the language code.
func (l Language) String() string {
	return string(l)
}
