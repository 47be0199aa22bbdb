package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestGeminiToResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(` 1}`)}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 100, CandidatesTokenCount: 20, TotalTokenCount: 120},
	}

	out := geminiToResponse(resp, "gemini-2.5-flash")
	assert.Equal(t, `{"a": 1}`, out.Text)
	assert.False(t, out.Truncated)
	assert.Equal(t, int64(120), out.TokensUsed())
	assert.Equal(t, "gemini-2.5-flash", out.Model)
}

func TestGeminiToResponse_Truncated(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMaxTokens}},
	}

	out := geminiToResponse(resp, "m")
	assert.True(t, out.Truncated)
}

func TestGeminiToResponse_EmptyKeepsUsage(t *testing.T) {
	usage := &genai.UsageMetadata{PromptTokenCount: 90, CandidatesTokenCount: 0}
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"no candidates", &genai.GenerateContentResponse{UsageMetadata: usage}},
		{"no content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}, UsageMetadata: usage}},
		{"no text parts", &genai.GenerateContentResponse{
			Candidates:    []*genai.Candidate{{Content: &genai.Content{}, FinishReason: genai.FinishReasonStop}},
			UsageMetadata: usage,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := geminiToResponse(tt.resp, "m")
			assert.Empty(t, out.Text)
			assert.False(t, out.Truncated)
			assert.Equal(t, int64(90), out.TokensUsed())
		})
	}
}
