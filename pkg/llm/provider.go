package llm

import "context"

// Provider performs a single completion call against an external
// language-understanding service. Implementations make exactly one attempt;
// retries and fallback policy belong to the caller.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	System    string
	User      string
	MaxTokens int
	// JSONOnly asks the provider for a JSON-object response where the
	// backing API supports it. Callers must still validate the payload.
	JSONOnly bool
}

const defaultMaxTokens = 1024

func (r CompletionRequest) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return defaultMaxTokens
}
