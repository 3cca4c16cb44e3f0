package mailer

import (
	"regexp"
	"strings"
)

var (
	sectionPattern     = regexp.MustCompile(`(?s){{#([a-zA-Z0-9_]+)}}(.*?){{/([a-zA-Z0-9_]+)}}`)
	placeholderPattern = regexp.MustCompile(`{{([a-zA-Z0-9_]+)}}`)
)

// Render substitutes {{key}} placeholders with values from data and resolves
// {{#key}}...{{/key}} conditional sections. A section is kept when its key
// has a non-empty value and dropped otherwise. Unknown placeholders render
// as empty strings.
func Render(template string, data map[string]string) string {
	rendered := sectionPattern.ReplaceAllStringFunc(template, func(match string) string {
		groups := sectionPattern.FindStringSubmatch(match)
		if len(groups) != 4 || groups[1] != groups[3] {
			return match
		}
		if strings.TrimSpace(data[groups[1]]) == "" {
			return ""
		}
		return groups[2]
	})

	return placeholderPattern.ReplaceAllStringFunc(rendered, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		if len(groups) != 2 {
			return match
		}
		return data[groups[1]]
	})
}
