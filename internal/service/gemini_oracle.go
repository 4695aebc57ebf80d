package service

import (
	"context"
	"fmt"
	"strings"
	"talentedge_backend/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiOracle struct {
	client    *genai.Client
	modelName string
}

func NewGeminiOracle(ctx context.Context, cfg config.AIConfig) (*GeminiOracle, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	name := cfg.Model
	if name == "" || strings.HasPrefix(name, "gpt") {
		name = "gemini-1.5-flash"
	}
	return &GeminiOracle{client: client, modelName: name}, nil
}

func (g *GeminiOracle) Score(ctx context.Context, req OracleRequest) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(req.Temperature)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.RubricInstructions)}}

	resp, err := m.GenerateContent(ctx, genai.Text(buildUserPrompt(req)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no content")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return b.String(), nil
}

func (g *GeminiOracle) Close() error {
	return g.client.Close()
}
