package model

import "time"

type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "not_started"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// TestAttempt 候选人的一次答题。分数列在首次评估开始前为 NULL，
// 之后始终等于各答题记录之和。
// swagger:model TestAttempt
type TestAttempt struct {
	BaseModel
	TestID        uint          `gorm:"index;type:bigint unsigned" json:"testId"`
	ApplicationID uint          `gorm:"index;type:bigint unsigned" json:"applicationId"`
	ApplicantID   uint          `gorm:"index;type:bigint unsigned" json:"applicantId"`
	Status        AttemptStatus `gorm:"type:enum('not_started','in_progress','submitted');default:'not_started'" json:"status"`
	TotalScore    *float64      `gorm:"type:decimal(10,2)" json:"totalScore"`
	Percentage    *float64      `gorm:"type:decimal(5,2)" json:"percentage"`
	IsPassed      *bool         `json:"isPassed"`
	IsEvaluated   bool          `gorm:"default:false" json:"isEvaluated"`
	EvaluatedAt   *time.Time    `json:"evaluatedAt,omitempty"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

// AttemptWithTest 关联了试卷及格线与总分的考试尝试
type AttemptWithTest struct {
	TestAttempt
	PassingPercentage  float64 `gorm:"column:passing_percentage" json:"passingPercentage"`
	TotalPossibleMarks float64 `gorm:"column:total_marks" json:"totalPossibleMarks"`
}

// AttemptScore 是考试尝试汇总分的写入契约。IsEvaluated 为 false 时
// evaluated_at 写为 NULL，表示汇总分来自一次未完成的评估。
type AttemptScore struct {
	TotalScore  float64
	Percentage  float64
	IsPassed    bool
	IsEvaluated bool
	EvaluatedAt time.Time
}
