package provider

import "strings"

const systemPrompt = "You are a helpful writing assistant. Continue the user's text naturally, " +
	"matching tone and style, without repeating the prompt. Provide a concise next paragraph."

// SystemPrompt returns the system instructions for a request. Enabled,
// non-blank instructions are appended.
func SystemPrompt(opts Options) string {
	extra := strings.TrimSpace(opts.Instructions)
	if !opts.InstructionsEnabled || extra == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\nAdditional instructions:\n" + extra
}

// UserPrompt wraps the existing text in the continuation request.
func UserPrompt(existingText string) string {
	return "Continue writing from here:\n\n" + existingText + "\n\nContinue:"
}
