package services

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractPromptAnchorsUndatedDocumentsToCurrentYear(t *testing.T) {
	now := time.Date(2031, 6, 15, 0, 0, 0, 0, time.UTC)

	prompt := extractPrompt(now)

	assert.Contains(t, prompt, "ano atual")
	assert.Contains(t, prompt, "("+strconv.Itoa(now.Year())+")")
	assert.Contains(t, prompt, "somando um ano a cada período distinto")
}
