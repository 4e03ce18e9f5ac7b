package summarize

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a precise financial analyst. Produce tight, factual bullets. " +
	"Keep inline page tags like [p12] next to claims. Prefer concrete figures, " +
	"YoY/QoQ deltas, drivers, and material risks."

// Initial prompt sizing. The client shrinks these on context-length
// failures, never below the floors in SummarizeSection.
const (
	maxChunks           = 3
	perChunkLimit       = 2800
	promptHardCap       = 12000
	maxCompletionTokens = 700
)

// truncate cuts s to at most max bytes with a trailing ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// bulletsGoalFor picks the bullet budget from the total untruncated
// excerpt size: short sections get 5 bullets, long ones 8.
func bulletsGoalFor(excerpts []string) int {
	total := 0
	for _, t := range excerpts {
		total += len(t)
	}
	if total < 8000 {
		return 5
	}
	return 8
}

// buildUserMessage assembles the page-tagged excerpt prompt. Each excerpt
// is clipped to perChunk bytes, and the combined system+user length must
// stay under hardCap, trimming the user part when it does not.
func buildUserMessage(title string, excerpts []string, pages []int, bulletsGoal, perChunk, hardCap int) string {
	items := make([]string, 0, len(excerpts))
	for i, t := range excerpts {
		page := 0
		if i < len(pages) {
			page = pages[i]
		}
		items = append(items, fmt.Sprintf("[p%d] %s", page, truncate(t, perChunk)))
	}

	user := fmt.Sprintf(
		"Section Title: %s\n\nSource Excerpts (each starts with a page tag):\n%s\n\nOutput %d bullets max.",
		title, strings.Join(items, "\n\n"), bulletsGoal)

	if combo := len(systemPrompt) + 2 + len(user); combo > hardCap {
		overflow := combo - hardCap
		keep := len(user) - overflow
		if keep < 1000 {
			keep = 1000
		}
		user = truncate(user, keep)
	}
	return user
}
