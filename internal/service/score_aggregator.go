package service

import (
	"context"
	"fmt"
	"talentedge_backend/internal/grading"
	"talentedge_backend/internal/model"
	"time"
)

// ResponseResult 汇总中的单题结果
type ResponseResult struct {
	ResponseID        uint               `json:"responseId"`
	QuestionID        uint               `json:"questionId"`
	QuestionType      model.QuestionType `json:"questionType"`
	Marks             float64            `json:"marks"`
	MarksAwarded      float64            `json:"marksAwarded"`
	IsAutoGraded      bool               `json:"isAutoGraded"`
	AIFeedback        *string            `json:"aiFeedback,omitempty"`
	Explanation       *string            `json:"explanation,omitempty"`
	AIConfidenceScore *float64           `json:"aiConfidenceScore,omitempty"`
	NeedsManualReview bool               `json:"needsManualReview"`
	Overridden        bool               `json:"overridden"`
}

type AttemptSummary struct {
	AttemptID          uint             `json:"attemptId"`
	TestID             uint             `json:"testId"`
	ApplicationID      uint             `json:"applicationId"`
	ApplicantID        uint             `json:"applicantId"`
	TotalScore         float64          `json:"totalScore"`
	TotalPossibleMarks float64          `json:"totalPossibleMarks"`
	Percentage         float64          `json:"percentage"`
	PassingPercentage  float64          `json:"passingPercentage"`
	IsPassed           bool             `json:"isPassed"`
	IsEvaluated        bool             `json:"isEvaluated"`
	TotalQuestions     int              `json:"totalQuestions"`
	NeedsAIReview      int              `json:"needsAiReview"`
	AIEvaluated        int              `json:"aiEvaluated"`
	MCQCount           int              `json:"mcqCount"`
	ManualReview       int              `json:"manualReview"`
	Responses          []ResponseResult `json:"responses"`
}

// Summarize 完全根据答题记录计算汇总，总分只在这里计算
func Summarize(attempt *model.AttemptWithTest, rows []model.ResponseWithQuestion) *AttemptSummary {
	sum := &AttemptSummary{
		AttemptID:         attempt.ID,
		TestID:            attempt.TestID,
		ApplicationID:     attempt.ApplicationID,
		ApplicantID:       attempt.ApplicantID,
		PassingPercentage: attempt.PassingPercentage,
		IsEvaluated:       attempt.IsEvaluated,
		TotalQuestions:    len(rows),
		Responses:         make([]ResponseResult, 0, len(rows)),
	}

	var total, possible float64
	for _, r := range rows {
		total += r.MarksAwarded
		possible += r.Marks

		switch {
		case r.QuestionType.IsObjective():
			sum.MCQCount++
		case r.QuestionType.IsSubjective():
			if r.OverriddenAt == nil && r.MarksAwarded == 0 && isPendingOrFailed(r.AIFeedback) {
				sum.NeedsAIReview++
			} else {
				sum.AIEvaluated++
			}
		}
		if r.NeedsManualReview {
			sum.ManualReview++
		}

		sum.Responses = append(sum.Responses, ResponseResult{
			ResponseID:        r.ID,
			QuestionID:        r.QuestionID,
			QuestionType:      r.QuestionType,
			Marks:             r.Marks,
			MarksAwarded:      r.MarksAwarded,
			IsAutoGraded:      r.IsAutoGraded,
			AIFeedback:        r.AIFeedback,
			Explanation:       r.Explanation,
			AIConfidenceScore: r.AIConfidenceScore,
			NeedsManualReview: r.NeedsManualReview,
			Overridden:        r.OverriddenAt != nil,
		})
	}

	sum.TotalScore = grading.Round2(total)
	sum.TotalPossibleMarks = grading.Round2(possible)
	sum.Percentage = grading.Percentage(total, possible)
	sum.IsPassed = sum.Percentage >= attempt.PassingPercentage
	return sum
}

func isPendingOrFailed(feedback *string) bool {
	return feedback != nil && (*feedback == model.FeedbackPendingAI || *feedback == model.FeedbackFailedAI)
}

// ScoreAggregator 重新读取尝试的全部答题并保存汇总分，评估与人工改分共用
type ScoreAggregator struct {
	attempts  AttemptStore
	responses ResponseStore
	now       func() time.Time
}

func NewScoreAggregator(attempts AttemptStore, responses ResponseStore) *ScoreAggregator {
	return &ScoreAggregator{attempts: attempts, responses: responses, now: time.Now}
}

// Load 读取尝试与答题并汇总，不写库
func (a *ScoreAggregator) Load(ctx context.Context, attemptID uint) (*AttemptSummary, error) {
	attempt, err := a.attempts.FindAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	rows, err := a.responses.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return Summarize(attempt, rows), nil
}

// Attempt 读取考试尝试，不存在时返回 util.ErrAttemptNotFound。
func (a *ScoreAggregator) Attempt(ctx context.Context, attemptID uint) (*model.AttemptWithTest, error) {
	return a.attempts.FindAttemptByID(ctx, attemptID)
}

// Recompute 重新汇总并以 isEvaluated=true 持久化。
func (a *ScoreAggregator) Recompute(ctx context.Context, attemptID uint) (*AttemptSummary, error) {
	return a.persist(ctx, attemptID, true)
}

// Invalidate 在评估中途失败时使用：汇总分仍与答题记录一致，
// 但 isEvaluated 置为 false，等待重新评估。
func (a *ScoreAggregator) Invalidate(ctx context.Context, attemptID uint) (*AttemptSummary, error) {
	return a.persist(ctx, attemptID, false)
}

func (a *ScoreAggregator) persist(ctx context.Context, attemptID uint, evaluated bool) (*AttemptSummary, error) {
	sum, err := a.Load(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	if err := a.attempts.UpdateAttemptScore(ctx, attemptID, model.AttemptScore{
		TotalScore:  sum.TotalScore,
		Percentage:  sum.Percentage,
		IsPassed:    sum.IsPassed,
		IsEvaluated: evaluated,
		EvaluatedAt: a.now(),
	}); err != nil {
		return nil, fmt.Errorf("persist attempt score: %w", err)
	}
	sum.IsEvaluated = evaluated
	return sum, nil
}
