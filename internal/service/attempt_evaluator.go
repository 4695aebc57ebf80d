package service

import (
	"context"
	"fmt"
	"sync"
	"talentedge_backend/internal/grading"
	"talentedge_backend/internal/model"
	"talentedge_backend/internal/util"
	"talentedge_backend/pkg/locker"
	"talentedge_backend/pkg/logger"
	"talentedge_backend/pkg/monitoring"
	"talentedge_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SubjectiveGrader 主观题评估接口
type SubjectiveGrader interface {
	Evaluate(ctx context.Context, q model.TestQuestion, answer string) EvaluationOutcome
}

type AttemptEvaluator struct {
	attempts   AttemptStore
	responses  ResponseStore
	subjective SubjectiveGrader
	aggregator *ScoreAggregator
	locks      locker.Locker
	workers    int
	now        func() time.Time
}

func NewAttemptEvaluator(
	attempts AttemptStore,
	responses ResponseStore,
	subjective SubjectiveGrader,
	aggregator *ScoreAggregator,
	locks locker.Locker,
	workers int,
) *AttemptEvaluator {
	if workers < 1 {
		workers = 1
	}
	return &AttemptEvaluator{
		attempts:   attempts,
		responses:  responses,
		subjective: subjective,
		aggregator: aggregator,
		locks:      locks,
		workers:    workers,
		now:        time.Now,
	}
}

// EvaluateAttempt 评估尝试的全部答题并保存汇总分。每道题评分后立即落库，
// 中途取消时已评分的答题保留；汇总分按已落库记录重写，并将 isEvaluated 置为 false
func (s *AttemptEvaluator) EvaluateAttempt(ctx context.Context, attemptID uint) (*AttemptSummary, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AttemptEvaluator.EvaluateAttempt")
	defer span.End()
	span.SetAttributes(attribute.Int64("attempt.id", int64(attemptID)))

	unlock, err := s.locks.Lock(ctx, AttemptLockKey(attemptID))
	if err != nil {
		return nil, fmt.Errorf("lock attempt %d: %w", attemptID, err)
	}
	defer unlock()

	summary, err := s.evaluateLocked(ctx, attemptID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		monitoring.AttemptsEvaluated.WithLabelValues("error").Inc()
		return nil, err
	}

	monitoring.AttemptsEvaluated.WithLabelValues("ok").Inc()
	logger.Log.Info("attempt evaluated",
		zap.Uint("attemptID", attemptID),
		zap.Float64("totalScore", summary.TotalScore),
		zap.Float64("percentage", summary.Percentage),
		zap.Bool("isPassed", summary.IsPassed),
		zap.Int("needsAIReview", summary.NeedsAIReview),
	)
	return summary, nil
}

func (s *AttemptEvaluator) evaluateLocked(ctx context.Context, attemptID uint) (*AttemptSummary, error) {
	if _, err := s.attempts.FindAttemptByID(ctx, attemptID); err != nil {
		return nil, err
	}

	rows, err := s.responses.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	if len(rows) == 0 {
		return nil, util.ErrNoResponses
	}

	if err := s.gradeAll(ctx, rows); err != nil {
		s.settlePartial(ctx, attemptID, err)
		return nil, err
	}

	// 所有答题已落库，客户端断开不应丢掉汇总分
	return s.aggregator.Recompute(context.WithoutCancel(ctx), attemptID)
}

func (s *AttemptEvaluator) gradeAll(ctx context.Context, rows []model.ResponseWithQuestion) error {
	var pending []model.ResponseWithQuestion
	for _, row := range rows {
		if row.OverriddenAt != nil {
			continue
		}
		if row.QuestionType.IsSubjective() {
			if err := s.markPending(ctx, row); err != nil {
				return err
			}
			pending = append(pending, row)
			continue
		}
		if err := s.gradeObjective(ctx, row); err != nil {
			return err
		}
	}
	return s.processPending(ctx, pending)
}

// settlePartial 在评估中途退出时重写汇总分，使其与已写入的答题记录一致，
// 并将 isEvaluated 置为 false。
func (s *AttemptEvaluator) settlePartial(ctx context.Context, attemptID uint, cause error) {
	if _, err := s.aggregator.Invalidate(context.WithoutCancel(ctx), attemptID); err != nil {
		logger.Log.Error("failed to settle partially evaluated attempt",
			zap.Uint("attemptID", attemptID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	logger.Log.Warn("attempt left partially evaluated",
		zap.Uint("attemptID", attemptID),
		zap.NamedError("cause", cause),
	)
}

func (s *AttemptEvaluator) gradeObjective(ctx context.Context, row model.ResponseWithQuestion) error {
	res := grading.Grade(row.Question(), row.SelectedOptions)

	err := s.responses.UpdateGrade(ctx, row.ID, model.ResponseGrade{
		MarksAwarded:      grading.Clamp(res.MarksAwarded, row.Marks),
		IsAutoGraded:      true,
		Explanation:       strPtr(res.Explanation),
		NeedsManualReview: res.NeedsManualReview,
		GradedAt:          s.now(),
	})
	if err != nil {
		return fmt.Errorf("persist response %d: %w", row.ID, err)
	}

	if res.NeedsManualReview {
		logger.Log.Warn("response flagged for manual review",
			zap.Uint("responseID", row.ID),
			zap.String("questionType", string(row.QuestionType)),
		)
	}
	monitoring.ResponsesGraded.WithLabelValues(string(row.QuestionType), monitoring.MethodAuto).Inc()
	return nil
}

func (s *AttemptEvaluator) markPending(ctx context.Context, row model.ResponseWithQuestion) error {
	err := s.responses.UpdateGrade(ctx, row.ID, model.ResponseGrade{
		MarksAwarded: 0,
		IsAutoGraded: false,
		AIFeedback:   strPtr(model.FeedbackPendingAI),
		GradedAt:     s.now(),
	})
	if err != nil {
		return fmt.Errorf("mark response %d pending: %w", row.ID, err)
	}
	return nil
}

// processPending 逐题评估主观题，调用间隔由 Pacer 控制。
// 单题失败只记录在该题上，只有取消会中断队列
func (s *AttemptEvaluator) processPending(ctx context.Context, pending []model.ResponseWithQuestion) error {
	for i, row := range pending {
		if err := ctx.Err(); err != nil {
			logger.Log.Warn("attempt evaluation cancelled",
				zap.Uint("attemptID", row.AttemptID),
				zap.Int("remaining", len(pending)-i),
			)
			return err
		}

		out := s.subjective.Evaluate(ctx, row.Question(), row.Answer)
		grade := model.ResponseGrade{
			IsAutoGraded: false,
			GradedAt:     s.now(),
			Explanation:  strPtr(out.Explanation),
		}
		if out.Method == EvaluationFailed {
			grade.AIFeedback = strPtr(model.FeedbackFailedAI)
			grade.NeedsManualReview = true
		} else {
			grade.MarksAwarded = MarksFor(out.Score, row.Marks)
			grade.AIFeedback = strPtr(out.Feedback)
			grade.AIConfidenceScore = floatPtr(out.Confidence)
		}
		monitoring.ResponsesGraded.WithLabelValues(string(row.QuestionType), out.Method).Inc()

		if err := s.responses.UpdateGrade(ctx, row.ID, grade); err != nil {
			// 保留待评估标记，留给人工跟进
			logger.Log.Error("failed to persist subjective grade",
				zap.Uint("responseID", row.ID),
				zap.Error(err),
			)
		}
	}
	// 最后一题评估期间也可能被取消
	return ctx.Err()
}

// BatchResult 批量评估中每个尝试的结果
type BatchResult struct {
	Summaries []*AttemptSummary `json:"summaries"`
	Errors    map[uint]string   `json:"errors,omitempty"`
}

// EvaluateAttempts 并发评估多个尝试，最多 s.workers 个同时进行，单个失败不影响其他
func (s *AttemptEvaluator) EvaluateAttempts(ctx context.Context, attemptIDs []uint) *BatchResult {
	result := &BatchResult{Errors: make(map[uint]string)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, id := range dedupe(attemptIDs) {
		id := id
		g.Go(func() error {
			summary, err := s.EvaluateAttempt(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[id] = err.Error()
				return nil
			}
			result.Summaries = append(result.Summaries, summary)
			return nil
		})
	}
	_ = g.Wait()

	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GetAttemptSummary 按已存记录重新汇总，不写库
func (s *AttemptEvaluator) GetAttemptSummary(ctx context.Context, attemptID uint) (*AttemptSummary, error) {
	return s.aggregator.Load(ctx, attemptID)
}
