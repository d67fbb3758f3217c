package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/gdbetancourt/outreach-engine/internal/domain"
)

func TestRenderSubstitutesDeclaredVariables(t *testing.T) {
	t.Parallel()

	template := domain.MessageTemplate{
		Subject:   "Hello {first_name}",
		Body:      "Hi {first_name}, greetings from {company}.",
		Variables: []string{"first_name", "company"},
	}

	msg, err := NewPlaceholderRenderer().Render(template, map[string]string{
		"first_name": "Maya",
		"company":    "Acme",
	}, false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if msg.Subject != "Hello Maya" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if msg.Body != "Hi Maya, greetings from Acme." {
		t.Fatalf("body = %q", msg.Body)
	}
}

func TestRenderFollowupVariant(t *testing.T) {
	t.Parallel()

	template := domain.MessageTemplate{
		Body:         "First touch for {first_name}.",
		FollowupBody: "Follow-up for {first_name}.",
		Variables:    []string{"first_name"},
	}
	vars := map[string]string{"first_name": "Maya"}
	renderer := NewPlaceholderRenderer()

	base, err := renderer.Render(template, vars, false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	followup, err := renderer.Render(template, vars, true)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.HasPrefix(base.Body, "First touch") {
		t.Fatalf("base body = %q", base.Body)
	}
	if !strings.HasPrefix(followup.Body, "Follow-up") {
		t.Fatalf("followup body = %q", followup.Body)
	}

	// Without a follow-up variant the base body serves both cases.
	template.FollowupBody = ""
	same, err := renderer.Render(template, vars, true)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if same.Body != base.Body {
		t.Fatalf("body = %q, want base body when no follow-up variant exists", same.Body)
	}
}

func TestRenderFailsOnMissingVariable(t *testing.T) {
	t.Parallel()

	template := domain.MessageTemplate{
		Body:      "Hi {first_name} from {company}.",
		Variables: []string{"first_name", "company"},
	}

	_, err := NewPlaceholderRenderer().Render(template, map[string]string{"first_name": "Maya"}, false)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "company") {
		t.Fatalf("error %q should name the missing variable", err)
	}
}

func TestRenderFailsOnUndeclaredPlaceholder(t *testing.T) {
	t.Parallel()

	template := domain.MessageTemplate{
		Body:      "Hi {first_name}, join {event_name}.",
		Variables: []string{"first_name"},
	}

	_, err := NewPlaceholderRenderer().Render(template, map[string]string{"first_name": "Maya"}, false)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "event_name") {
		t.Fatalf("error %q should name the undeclared placeholder", err)
	}
}
