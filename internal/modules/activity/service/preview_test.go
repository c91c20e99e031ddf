package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyloop/backend/internal/config"
	"github.com/studyloop/backend/internal/entity"
)

func TestBuildPreviewStripsMarkupAndWhitespace(t *testing.T) {
	out := buildPreview("<p>Hello   <b>world</b></p>\n\nagain")
	assert.Equal(t, "Hello world again", out)
}

func TestBuildPreviewTruncatesOnRunes(t *testing.T) {
	long := strings.Repeat("ü", config.ActivityPreviewMaxLen+50)
	out := buildPreview(long)

	runes := []rune(out)
	assert.Len(t, runes, config.ActivityPreviewMaxLen)
	assert.Equal(t, '…', runes[len(runes)-1])
}

func TestReflectionPreviewByKind(t *testing.T) {
	ts := 125
	voice := &entity.Reflection{Kind: entity.ReflectionKindVoice, VideoTimestampSec: &ts}
	assert.Equal(t, "Voice note at 02:05", reflectionPreview(voice))

	screenshot := &entity.Reflection{Kind: entity.ReflectionKindScreenshot, Content: "my setup"}
	assert.Equal(t, "Screenshot: my setup", reflectionPreview(screenshot))

	loom := &entity.Reflection{Kind: entity.ReflectionKindLoom}
	assert.Equal(t, "Loom walkthrough", reflectionPreview(loom))

	text := &entity.Reflection{Kind: entity.ReflectionKindText, Content: "<i>plain</i> note"}
	assert.Equal(t, "plain note", reflectionPreview(text))
}

func TestQuizPreview(t *testing.T) {
	attempt := &entity.QuizAttempt{Score: 8, Total: 10}
	assert.Equal(t, "Scored 8/10 (80%)", quizPreview(attempt))
}

func TestGoalTransitionPreview(t *testing.T) {
	title := "Ship first project"
	assert.Equal(t, "Achieved goal: Ship first project",
		goalTransitionPreview(entity.ActivityKindGoalAchieved, &title))
	assert.Equal(t, "Started goal: a goal",
		goalTransitionPreview(entity.ActivityKindNewGoalStarted, nil))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00", formatTimestamp(0))
	assert.Equal(t, "00:59", formatTimestamp(59))
	assert.Equal(t, "10:05", formatTimestamp(605))
	assert.Equal(t, "00:00", formatTimestamp(-3))
}
