package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock_JSONFence(t *testing.T) {
	input := "```json\n{\"score\": 85}\n```"
	assert.Equal(t, `{"score": 85}`, CleanJSONBlock(input))
}

func TestCleanJSONBlock_GenericFence(t *testing.T) {
	input := "```\n{\"score\": 85}\n```"
	assert.Equal(t, `{"score": 85}`, CleanJSONBlock(input))
}

func TestCleanJSONBlock_Unwrapped(t *testing.T) {
	input := `  {"score": 85}  `
	assert.Equal(t, `{"score": 85}`, CleanJSONBlock(input))
}
