package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
)

// RenderedMessage is the final subject/body pair handed to a transport.
type RenderedMessage struct {
	Subject string
	Body    string
}

// Renderer produces the final message from a rule template and a variable map.
type Renderer interface {
	Render(template domain.MessageTemplate, vars map[string]string, followup bool) (RenderedMessage, error)
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// PlaceholderRenderer substitutes {name} placeholders and validates the
// declared variable set against the variables actually supplied, so template
// drift fails at dispatch time instead of sending broken copy.
type PlaceholderRenderer struct{}

var _ Renderer = (*PlaceholderRenderer)(nil)

func NewPlaceholderRenderer() *PlaceholderRenderer {
	return &PlaceholderRenderer{}
}

func (r *PlaceholderRenderer) Render(template domain.MessageTemplate, vars map[string]string, followup bool) (RenderedMessage, error) {
	body := template.Body
	if followup && strings.TrimSpace(template.FollowupBody) != "" {
		body = template.FollowupBody
	}

	if missing := missingVariables(template.Variables, vars); len(missing) > 0 {
		return RenderedMessage{}, fmt.Errorf("%w: template variables not supplied: %s",
			domain.ErrValidation, strings.Join(missing, ", "))
	}

	if undeclared := undeclaredPlaceholders(template.Subject+" "+body, template.Variables); len(undeclared) > 0 {
		return RenderedMessage{}, fmt.Errorf("%w: template references undeclared variables: %s",
			domain.ErrValidation, strings.Join(undeclared, ", "))
	}

	return RenderedMessage{
		Subject: substitute(template.Subject, vars),
		Body:    substitute(body, vars),
	}, nil
}

func substitute(text string, vars map[string]string) string {
	result := text
	for name, value := range vars {
		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}
	return result
}

func missingVariables(declared []string, vars map[string]string) []string {
	var missing []string
	for _, name := range declared {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func undeclaredPlaceholders(text string, declared []string) []string {
	declaredSet := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		declaredSet[name] = struct{}{}
	}

	seen := make(map[string]struct{})
	var undeclared []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if _, ok := declaredSet[name]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		undeclared = append(undeclared, name)
	}
	sort.Strings(undeclared)
	return undeclared
}
