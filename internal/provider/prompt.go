package provider

const SystemPrompt = "You are a helpful assistant. Please respond to the user queries."

// UserPrompt wraps the question the way every provider receives it.
func UserPrompt(question string) string {
	return "Question: " + question
}
