package tokenizer

import (
	"strings"
)

const (
	// CharsPerToken is the rough English ratio used for budgeting.
	CharsPerToken = 4
	// PromptReserveTokens is kept free for the system prompt and chat framing.
	PromptReserveTokens = 500
	// MinPromptTokens is the floor for the input budget.
	MinPromptTokens = 100
)

// CountTokens provides a rough token count estimate.
// For production, use tiktoken-go for exact counts.
func CountTokens(text string) int {
	words := strings.Fields(text)
	return max(len(words)*4/3, 1)
}

// CharBudget returns how many input characters fit in a context window of
// contextTokens once maxOutputTokens and the prompt reserve are set aside.
func CharBudget(contextTokens, maxOutputTokens int) int {
	tokens := contextTokens - maxOutputTokens - PromptReserveTokens
	if tokens < MinPromptTokens {
		tokens = MinPromptTokens
	}
	return tokens * CharsPerToken
}
