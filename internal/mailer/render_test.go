package mailer

import "testing"

func TestRenderPlaceholders(t *testing.T) {
	got := Render("Hi {{organizer_name}}, {{campaign_title}} is live.", map[string]string{
		"organizer_name": "Mary",
		"campaign_title": "Coffee for Care",
	})
	want := "Hi Mary, Coffee for Care is live."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRenderUnknownPlaceholderIsEmpty(t *testing.T) {
	got := Render("Hello {{missing}}!", map[string]string{})
	if got != "Hello !" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderConditionalSectionKept(t *testing.T) {
	template := "Thanks{{#donor_name}}, {{donor_name}}{{/donor_name}}."
	got := Render(template, map[string]string{"donor_name": "Seán"})
	if got != "Thanks, Seán." {
		t.Fatalf("got %q", got)
	}
}

func TestRenderConditionalSectionDropped(t *testing.T) {
	template := "Thanks{{#donor_name}}, {{donor_name}}{{/donor_name}}."
	got := Render(template, map[string]string{"donor_name": "   "})
	if got != "Thanks." {
		t.Fatalf("got %q", got)
	}
	got = Render(template, nil)
	if got != "Thanks." {
		t.Fatalf("got %q", got)
	}
}

func TestRenderMismatchedSectionLeftAlone(t *testing.T) {
	template := "{{#a}}body{{/b}}"
	if got := Render(template, map[string]string{"a": "x"}); got != template {
		t.Fatalf("mismatched tags must not render, got %q", got)
	}
}

func TestRenderMultilineSection(t *testing.T) {
	template := "Receipt\n{{#message}}Your message:\n{{message}}\n{{/message}}Total: {{amount}}"
	got := Render(template, map[string]string{"message": "Great cause", "amount": "10.50"})
	want := "Receipt\nYour message:\nGreat cause\nTotal: 10.50"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
