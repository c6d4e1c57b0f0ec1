package services

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/intelligence-layer/internal/core/domain"
)

// Range markers emitted while rendering. NUL never occurs in prompt text,
// which is enforced for every string variable.
const (
	markerByte       = '\x00'
	markerRangeStart = '<'
	markerRangeEnd   = '>'
)

// PromptTemplate renders prompts and tracks named ranges inside them.
//
// Templates use text/template syntax with two additional functions:
//
//	{{promptrange "input"}}{{.input}}{{endpromptrange "input"}}
//
// The rendered RichPrompt reports the byte span between the two markers
// under the name "input". Ranges may nest and a name may be used repeatedly.
type PromptTemplate struct {
	tmpl *template.Template
}

// NewPromptTemplate parses a prompt template.
func NewPromptTemplate(text string) (*PromptTemplate, error) {
	tmpl, err := template.New("prompt").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"promptrange":    func(name string) string { return marker(markerRangeStart, name) },
			"endpromptrange": func(name string) string { return marker(markerRangeEnd, name) },
		}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidTemplate, err)
	}
	return &PromptTemplate{tmpl: tmpl}, nil
}

// MustPromptTemplate is like NewPromptTemplate but panics on error.
// It is intended for package-level templates.
func MustPromptTemplate(text string) *PromptTemplate {
	t, err := NewPromptTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

// ToRichPrompt renders the template with vars. Every variable referenced by
// the template must be present in vars.
func (t *PromptTemplate) ToRichPrompt(vars map[string]any) (domain.RichPrompt, error) {
	for name, value := range vars {
		if s, ok := value.(string); ok && strings.IndexByte(s, markerByte) >= 0 {
			return domain.RichPrompt{}, fmt.Errorf("%w: variable %q contains a NUL byte", domain.ErrInvalidInput, name)
		}
	}

	var buf strings.Builder
	if err := t.tmpl.Execute(&buf, vars); err != nil {
		return domain.RichPrompt{}, fmt.Errorf("%w: %w", domain.ErrInvalidTemplate, err)
	}
	return extractRanges(buf.String())
}

func marker(kind byte, name string) string {
	return string([]byte{markerByte, kind}) + name + string(markerByte)
}

// extractRanges strips range markers from rendered and records their positions.
func extractRanges(rendered string) (domain.RichPrompt, error) {
	var text strings.Builder
	text.Grow(len(rendered))
	ranges := make(map[string][]domain.PromptRange)
	open := make(map[string][]int)

	for {
		i := strings.IndexByte(rendered, markerByte)
		if i < 0 {
			text.WriteString(rendered)
			break
		}
		text.WriteString(rendered[:i])

		rest := rendered[i+1:]
		end := strings.IndexByte(rest, markerByte)
		if len(rest) < 2 || end < 1 {
			return domain.RichPrompt{}, fmt.Errorf("%w: malformed range marker", domain.ErrInvalidTemplate)
		}
		kind, name := rest[0], rest[1:end]
		rendered = rest[end+1:]

		switch kind {
		case markerRangeStart:
			open[name] = append(open[name], text.Len())
		case markerRangeEnd:
			starts := open[name]
			if len(starts) == 0 {
				return domain.RichPrompt{}, fmt.Errorf("%w: range %q closed before it was opened",
					domain.ErrInvalidTemplate, name)
			}
			open[name] = starts[:len(starts)-1]
			ranges[name] = append(ranges[name], domain.PromptRange{Start: starts[len(starts)-1], End: text.Len()})
		default:
			return domain.RichPrompt{}, fmt.Errorf("%w: malformed range marker", domain.ErrInvalidTemplate)
		}
	}

	for name, starts := range open {
		if len(starts) > 0 {
			return domain.RichPrompt{}, fmt.Errorf("%w: range %q is never closed", domain.ErrInvalidTemplate, name)
		}
	}
	if len(ranges) == 0 {
		ranges = nil
	}
	return domain.RichPrompt{Text: text.String(), Ranges: ranges}, nil
}
