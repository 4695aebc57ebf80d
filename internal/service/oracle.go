package service

import (
	"context"
	"fmt"
	"strings"
	"talentedge_backend/internal/config"
	"talentedge_backend/internal/model"
	"talentedge_backend/pkg/logger"
)

// OracleRequest 发送给外部评分模型的单题请求
type OracleRequest struct {
	QuestionText       string
	ReferenceAnswer    string
	CandidateAnswer    string
	QuestionType       model.QuestionType
	MaxMarks           float64
	RubricInstructions string
	Temperature        float32
}

// ScoringOracle 返回外部评分模型的原始文本，解析与校验由评估器负责
type ScoringOracle interface {
	Score(ctx context.Context, req OracleRequest) (string, error)
}

// NewScoringOracle 按配置创建评分模型客户端。未配置 API Key 时返回 nil，
// 所有主观题直接走规则评分
func NewScoringOracle(ctx context.Context, cfg config.AIConfig) (ScoringOracle, error) {
	if cfg.APIKey == "" {
		logger.Log.Warn("AI api key is not set, subjective answers will use the fallback evaluator only")
		return nil, nil
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewAIService(cfg, nil), nil
	case "gemini":
		g, err := NewGeminiOracle(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func buildUserPrompt(req OracleRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question type: %s\n", req.QuestionType)
	fmt.Fprintf(&b, "Maximum marks: %g\n\n", req.MaxMarks)
	b.WriteString("Question:\n---\n")
	b.WriteString(req.QuestionText)
	b.WriteString("\n---\n\nReference answer:\n---\n")
	b.WriteString(req.ReferenceAnswer)
	b.WriteString("\n---\n\nCandidate answer:\n---\n")
	b.WriteString(req.CandidateAnswer)
	b.WriteString("\n---\n")
	return b.String()
}
