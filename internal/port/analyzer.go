package port

import "context"

// AnalyzeInput carries the aggregated document text for analysis.
type AnalyzeInput struct {
	DocumentText string
}

// AnalyzeOutput contains the raw analysis text from an LLM provider.
type AnalyzeOutput struct {
	Analysis   string
	ModelUsed  string
	PromptUsed string
}

// Analyzer abstracts LLM-based pitch deck analysis. One call is one round
// trip: the full document text goes out, the full analysis text comes back.
type Analyzer interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
}
