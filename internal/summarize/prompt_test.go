package summarize

import (
	"strings"
	"testing"
)

func TestBuildUserMessage_PageTagsAndBulletBudget(t *testing.T) {
	excerpts := []string{"Revenue grew 12% to $1,200 million.", "Margins compressed."}
	pages := []int{12, 13}

	msg := buildUserMessage("Item 7. MD&A", excerpts, pages, 5, perChunkLimit, promptHardCap)

	if !strings.Contains(msg, "Section Title: Item 7. MD&A") {
		t.Errorf("expected section title line, got %q", msg)
	}
	if !strings.Contains(msg, "[p12] Revenue grew 12% to $1,200 million.") {
		t.Errorf("expected first page-tagged excerpt, got %q", msg)
	}
	if !strings.Contains(msg, "[p13] Margins compressed.") {
		t.Errorf("expected second page-tagged excerpt, got %q", msg)
	}
	if !strings.HasSuffix(msg, "Output 5 bullets max.") {
		t.Errorf("expected bullet budget suffix, got %q", msg)
	}
}

func TestBuildUserMessage_ClipsLongExcerpts(t *testing.T) {
	long := strings.Repeat("a", 100)

	msg := buildUserMessage("T", []string{long}, []int{1}, 5, 40, promptHardCap)

	if strings.Contains(msg, strings.Repeat("a", 38)) {
		t.Errorf("expected the excerpt clipped to 40 bytes, got %q", msg)
	}
	if !strings.Contains(msg, strings.Repeat("a", 37)+"...") {
		t.Errorf("expected an ellipsis after the clip, got %q", msg)
	}
}

func TestBuildUserMessage_HardCapTrimsPrompt(t *testing.T) {
	excerpts := []string{
		strings.Repeat("x", 3000),
		strings.Repeat("y", 3000),
		strings.Repeat("z", 3000),
	}

	msg := buildUserMessage("Financial Statements", excerpts, []int{1, 2, 3}, 8, 2800, 6000)

	if got := len(systemPrompt) + 2 + len(msg); got > 6000 {
		t.Errorf("expected combined prompt within the 6000 cap, got %d", got)
	}
	if !strings.HasSuffix(msg, "...") {
		t.Errorf("expected trimmed prompt to end with an ellipsis, got tail %q", msg[len(msg)-20:])
	}
}

func TestBulletsGoalFor_SizeThreshold(t *testing.T) {
	if got := bulletsGoalFor([]string{"short excerpt"}); got != 5 {
		t.Errorf("expected 5 bullets for a short section, got %d", got)
	}
	long := strings.Repeat("x", 4000)
	// 8000 total sits exactly on the threshold and tips to the long budget.
	if got := bulletsGoalFor([]string{long, long}); got != 8 {
		t.Errorf("expected 8 bullets at the 8000-char threshold, got %d", got)
	}
}
