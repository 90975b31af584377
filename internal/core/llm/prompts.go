package llm

import (
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"
)

// DefaultBlockPrompt renders one work session for summarization.
// Variables: description, events (list of {text}), event_count.
const DefaultBlockPrompt = `You write timesheet entries from activity logs.

Project: {{{description}}}

The following {{event_count}} events happened during one continuous work session, oldest first:
{{#events}}
- {{{text}}}
{{/events}}

Describe the work done in this session in one or two plain sentences suitable for a client timesheet.
Do not mention timestamps, tools, or that you are summarizing.

Summary:`

// DefaultDayPrompt rolls a day's session summaries into one entry.
// Variables: description, date, duration, events (list of {text}).
const DefaultDayPrompt = `You write timesheet entries from activity logs.

Project: {{{description}}}
Date: {{date}} ({{duration}} recorded)

Work sessions for the day:
{{#events}}
- {{{text}}}
{{/events}}

Write the day's timesheet notes as a short list of "- " bullet points, one per distinct piece of work.`

// renderPrompt fills template with the description and event texts, truncating
// each text to maxChars.
func renderPrompt(template, description string, texts []string, maxChars int, extra map[string]interface{}) (string, error) {
	events := make([]map[string]string, 0, len(texts))
	for _, t := range texts {
		events = append(events, map[string]string{"text": truncateToLength(strings.TrimSpace(t), maxChars)})
	}

	ctx := map[string]interface{}{
		"description": description,
		"events":      events,
		"event_count": len(texts),
	}
	for k, v := range extra {
		ctx[k] = v
	}

	out, err := mustache.Render(template, ctx)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out, nil
}

// truncateToLength truncates text to max characters, adding ellipsis
func truncateToLength(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
