package service

import (
	"context"
	"fmt"
	"math"
	"talentedge_backend/internal/grading"
	"talentedge_backend/internal/model"
	"talentedge_backend/pkg/logger"
	"talentedge_backend/pkg/monitoring"
	"talentedge_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultOracleTimeout = 30 * time.Second

type fallbackGrader interface {
	Evaluate(q model.TestQuestion, answer string) EvaluationOutcome
}

// SubjectiveEvaluator 通过 AI 评分模型评估文本与编程题，失败时回退到 FallbackEvaluator。
// 不返回错误，最坏情况为 Method == EvaluationFailed
type SubjectiveEvaluator struct {
	oracle      ScoringOracle
	fallback    fallbackGrader
	pacer       Pacer
	timeout     time.Duration
	temperature float32
}

func NewSubjectiveEvaluator(oracle ScoringOracle, pacer Pacer, timeout time.Duration, temperature float32) *SubjectiveEvaluator {
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}
	if pacer == nil {
		pacer = NewRatePacer(0)
	}
	return &SubjectiveEvaluator{
		oracle:      oracle,
		fallback:    FallbackEvaluator{},
		pacer:       pacer,
		timeout:     timeout,
		temperature: temperature,
	}
}

func (s *SubjectiveEvaluator) Evaluate(ctx context.Context, q model.TestQuestion, answer string) EvaluationOutcome {
	ctx, span := tracing.Tracer.Start(ctx, "SubjectiveEvaluator.Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("question.id", int64(q.ID)),
		attribute.String("question.type", string(q.QuestionType)),
	)

	out, err := s.evaluateWithOracle(ctx, q, answer)
	if err == nil {
		span.SetAttributes(attribute.String("grading.method", out.Method))
		return *out
	}

	logger.Log.Warn("AI evaluation unavailable, using fallback evaluator",
		zap.Uint("questionID", q.ID),
		zap.String("questionType", string(q.QuestionType)),
		zap.Error(err),
	)
	result := s.runFallback(q, answer)
	span.SetAttributes(attribute.String("grading.method", result.Method))
	return result
}

func (s *SubjectiveEvaluator) evaluateWithOracle(ctx context.Context, q model.TestQuestion, answer string) (*EvaluationOutcome, error) {
	if s.oracle == nil {
		return nil, fmt.Errorf("no scoring oracle configured")
	}
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("pacing: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.oracle.Score(callCtx, OracleRequest{
		QuestionText:       q.QuestionText,
		ReferenceAnswer:    q.CorrectAnswer,
		CandidateAnswer:    answer,
		QuestionType:       q.QuestionType,
		MaxMarks:           q.Marks,
		RubricInstructions: RubricFor(q.QuestionType),
		Temperature:        s.temperature,
	})
	if err != nil {
		monitoring.OracleDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}

	out, verr := DecodeOutcome(raw)
	if verr != nil {
		monitoring.OracleDuration.WithLabelValues("invalid").Observe(time.Since(start).Seconds())
		logger.Log.Debug("rejected oracle reply", zap.String("raw", raw))
		return nil, verr
	}
	monitoring.OracleDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return out, nil
}

// runFallback 捕获规则评分中的 panic，单题出错不影响后续队列
func (s *SubjectiveEvaluator) runFallback(q model.TestQuestion, answer string) (out EvaluationOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("fallback evaluator panicked",
				zap.Uint("questionID", q.ID),
				zap.Any("panic", r),
			)
			out = EvaluationOutcome{
				Feedback:    model.FeedbackFailedAI,
				Explanation: fmt.Sprintf("evaluation failed: %v", r),
				Method:      EvaluationFailed,
			}
		}
	}()
	return s.fallback.Evaluate(q, answer)
}

// MarksFor 将 0-100 的得分换算为题目分值，取整并限制在 [0, maxMarks]
func MarksFor(score, maxMarks float64) float64 {
	return grading.Clamp(math.Round(score/100*maxMarks), maxMarks)
}
