package port

import (
	"context"
	"encoding/json"

	"ledgerlens/internal/domain"
)

// AnalyzeInput carries raw media bytes to the analyzer.
type AnalyzeInput struct {
	MediaBytes  []byte
	ContentType string
	Mode        domain.MediaMode
}

// AnalyzeOutput is the analyzer's unvalidated structured draft.
type AnalyzeOutput struct {
	Draft      json.RawMessage
	ModelUsed  string
	PromptUsed string
}

// MediaAnalyzer abstracts the external multimodal model. Failures are
// classified through the typed errors in internal/analyzer; the orchestrator
// depends on nothing vendor-specific beyond this contract.
type MediaAnalyzer interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
}
