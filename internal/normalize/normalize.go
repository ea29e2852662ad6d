// Package normalize cleans streamed text fragments before they are compared or merged.
package normalize

import (
	"strings"

	"github.com/capitalize-ai/voice-transcript/internal/model"
)

const fence = "```"

// Text puts a blank line before every code fence that does not already start a line, so
// concatenated tokens never glue a fence onto the previous sentence. Text is idempotent.
func Text(s string) string {
	if !strings.Contains(s, fence) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)

	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], fence) {
			if i > 0 && s[i-1] != '\n' {
				b.WriteString("\n\n")
			}
			b.WriteString(fence)
			i += len(fence)
			continue
		}
		b.WriteByte(s[i])
		i++
	}

	return b.String()
}

// MessageText returns the normalized current text of a live message.
func MessageText(m *model.LiveMessage) string {
	if m == nil {
		return ""
	}
	return Text(m.Content.Text)
}
