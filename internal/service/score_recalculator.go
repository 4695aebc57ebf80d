package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"talentedge_backend/internal/grading"
	"talentedge_backend/internal/model"
	"talentedge_backend/pkg/locker"
	"talentedge_backend/pkg/logger"
	"talentedge_backend/pkg/monitoring"
	"talentedge_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type OverrideResult struct {
	Response ResponseResult  `json:"response"`
	Attempt  *AttemptSummary `json:"attempt"`
}

// ScoreRecalculator 人工修改单题得分，并按全部答题重新汇总
type ScoreRecalculator struct {
	responses  ResponseStore
	aggregator *ScoreAggregator
	locks      locker.Locker
	now        func() time.Time
}

func NewScoreRecalculator(responses ResponseStore, aggregator *ScoreAggregator, locks locker.Locker) *ScoreRecalculator {
	return &ScoreRecalculator{
		responses:  responses,
		aggregator: aggregator,
		locks:      locks,
		now:        time.Now,
	}
}

func (s *ScoreRecalculator) OverrideScore(ctx context.Context, responseID uint, newMarks float64, explanation string) (*OverrideResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ScoreRecalculator.OverrideScore")
	defer span.End()
	span.SetAttributes(attribute.Int64("response.id", int64(responseID)))

	resp, err := s.responses.FindByID(ctx, responseID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, AttemptLockKey(resp.AttemptID))
	if err != nil {
		return nil, fmt.Errorf("lock attempt %d: %w", resp.AttemptID, err)
	}
	defer unlock()

	// 加锁后重新读取，期间可能刚有一次评估完成
	resp, err = s.responses.FindByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	// 写入前确认所属考试尝试存在，避免只写了答题而汇总失败
	if _, err := s.aggregator.Attempt(ctx, resp.AttemptID); err != nil {
		return nil, err
	}

	marks := SanitizeMarks(newMarks, resp.Marks)
	if marks != newMarks {
		logger.Log.Warn("override score out of range, clamped",
			zap.Uint("responseID", responseID),
			zap.Float64("requested", newMarks),
			zap.Float64("applied", marks),
			zap.Float64("maxMarks", resp.Marks),
		)
	}

	now := s.now()
	var expl *string
	if e := strings.TrimSpace(explanation); e != "" {
		expl = &e
	}
	if err := s.responses.UpdateGrade(ctx, responseID, model.ResponseGrade{
		MarksAwarded:      marks,
		IsAutoGraded:      false,
		AIFeedback:        resp.AIFeedback,
		Explanation:       expl,
		AIConfidenceScore: resp.AIConfidenceScore,
		NeedsManualReview: false,
		GradedAt:          now,
		OverriddenAt:      &now,
	}); err != nil {
		return nil, fmt.Errorf("persist override: %w", err)
	}
	monitoring.ScoreOverrides.Inc()

	summary, err := s.aggregator.Recompute(ctx, resp.AttemptID)
	if err != nil {
		return nil, err
	}

	result := &OverrideResult{Attempt: summary}
	for _, r := range summary.Responses {
		if r.ResponseID == responseID {
			result.Response = r
			break
		}
	}

	logger.Log.Info("response score overridden",
		zap.Uint("responseID", responseID),
		zap.Uint("attemptID", resp.AttemptID),
		zap.Float64("marks", marks),
		zap.Float64("percentage", summary.Percentage),
	)
	return result, nil
}

// SanitizeMarks 非有限值按 0 处理，保留两位小数并限制在 [0, maxMarks]
func SanitizeMarks(v, maxMarks float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return grading.Clamp(grading.Round2(v), maxMarks)
}
