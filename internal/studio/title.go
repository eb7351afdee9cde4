package studio

import (
	"context"
	"log"
	"strings"
)

// DefaultTitle is used when the prompt has no tokens to fall back on.
const DefaultTitle = "Untitled Video"

const fallbackTitleTokens = 6

// FallbackTitle derives a title from the prompt itself: its first six
// whitespace-delimited tokens, or the default when the prompt is empty.
func FallbackTitle(prompt string) string {
	fields := strings.Fields(prompt)
	if len(fields) == 0 {
		return DefaultTitle
	}
	if len(fields) > fallbackTitleTokens {
		fields = fields[:fallbackTitleTokens]
	}
	return strings.Join(fields, " ")
}

// deriveTitle asks the text model for a short title. Any failure falls back
// to FallbackTitle; title derivation never blocks a generation.
func (c *Coordinator) deriveTitle(ctx context.Context, cred, prompt string) string {
	title, err := c.gateway.CreateShortTitle(ctx, cred, prompt)
	title = strings.TrimSpace(title)
	if err != nil || title == "" {
		log.Printf("coordinator session=%s title generation failed, using fallback: %v", c.sessionID, err)
		return FallbackTitle(prompt)
	}
	return title
}
