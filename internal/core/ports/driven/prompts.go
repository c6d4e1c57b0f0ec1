package driven

import "strings"

// PromptStore provides access to user-editable instruction texts.
// Implementations fall back to the defaults they were created with when the
// user has not customised a prompt.
type PromptStore interface {
	// Load returns the prompt for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()

	// Names returns every prompt name the store can load, sorted: the
	// defaults plus any prompt the user added.
	Names() ([]string, error)
}

// KeywordPromptPrefix prefixes the per-language keyword extraction
// instruction names, e.g. "keywords_en".
const KeywordPromptPrefix = "keywords_"

// KeywordPromptName returns the prompt name of the keyword instruction for language.
func KeywordPromptName(language string) string {
	return KeywordPromptPrefix + language
}

// KeywordPromptLanguage returns the language of a keyword instruction name
// and whether name is one. Languages are two lowercase letters.
func KeywordPromptLanguage(name string) (string, bool) {
	language, ok := strings.CutPrefix(name, KeywordPromptPrefix)
	if !ok || len(language) != 2 {
		return "", false
	}
	for _, r := range language {
		if r < 'a' || r > 'z' {
			return "", false
		}
	}
	return language, true
}
