package service

import (
	"context"
	"fmt"
	"talentedge_backend/internal/model"
)

// AttemptStore 考试尝试存储
type AttemptStore interface {
	FindAttemptByID(ctx context.Context, id uint) (*model.AttemptWithTest, error)
	UpdateAttemptScore(ctx context.Context, id uint, score model.AttemptScore) error
}

// ResponseStore 答题存储
type ResponseStore interface {
	ListByAttempt(ctx context.Context, attemptID uint) ([]model.ResponseWithQuestion, error)
	FindByID(ctx context.Context, id uint) (*model.ResponseWithQuestion, error)
	UpdateGrade(ctx context.Context, id uint, grade model.ResponseGrade) error
}

// AttemptLockKey 评估与人工改分共用的锁键
func AttemptLockKey(attemptID uint) string {
	return fmt.Sprintf("attempt:%d", attemptID)
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}
