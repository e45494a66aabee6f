package driven

// TokenCounter counts model tokens in text.
// Used by prompt assembly to keep prompts inside the model's context window.
type TokenCounter interface {
	// Count returns the number of tokens in text for the configured model.
	Count(text string) (int, error)
}
