package service

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/studyloop/backend/internal/config"
	"github.com/studyloop/backend/internal/entity"
)

var previewPolicy = bluemonday.StrictPolicy()

// buildPreview strips markup, collapses whitespace and truncates to the
// feed preview length. Truncation counts runes so multi-byte text is not
// cut mid-character.
func buildPreview(raw string) string {
	clean := previewPolicy.Sanitize(raw)
	clean = strings.Join(strings.Fields(clean), " ")

	runes := []rune(clean)
	if len(runes) <= config.ActivityPreviewMaxLen {
		return clean
	}
	return string(runes[:config.ActivityPreviewMaxLen-1]) + "…"
}

func reflectionPreview(r *entity.Reflection) string {
	switch r.Kind {
	case entity.ReflectionKindVoice:
		if r.VideoTimestampSec != nil {
			return fmt.Sprintf("Voice note at %s", formatTimestamp(*r.VideoTimestampSec))
		}
		return "Voice note"
	case entity.ReflectionKindScreenshot:
		if r.Content != "" {
			return buildPreview("Screenshot: " + r.Content)
		}
		return "Screenshot"
	case entity.ReflectionKindLoom:
		if r.Content != "" {
			return buildPreview("Loom walkthrough: " + r.Content)
		}
		return "Loom walkthrough"
	default:
		return buildPreview(r.Content)
	}
}

func quizPreview(a *entity.QuizAttempt) string {
	return fmt.Sprintf("Scored %d/%d (%d%%)", a.Score, a.Total, a.Percent())
}

func aiChatPreview(c *entity.VideoAIConversation) string {
	return buildPreview("Asked AI: " + c.Question)
}

func completionPreview(courseTitle *string) string {
	if courseTitle != nil {
		return fmt.Sprintf("Completed %s", *courseTitle)
	}
	return "Completed a course"
}

func goalTransitionPreview(kind string, goalTitle *string) string {
	title := "a goal"
	if goalTitle != nil {
		title = *goalTitle
	}
	if kind == entity.ActivityKindGoalAchieved {
		return fmt.Sprintf("Achieved goal: %s", title)
	}
	return fmt.Sprintf("Started goal: %s", title)
}

// formatTimestamp renders a video position in seconds as MM:SS.
func formatTimestamp(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
