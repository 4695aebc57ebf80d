package model

import (
	"time"

	"gorm.io/datatypes"
)

// TestResponse 考试尝试中对单道题的作答，MarksAwarded 始终在 [0, 题目分值] 内
// swagger:model TestResponse
type TestResponse struct {
	BaseModel
	AttemptID         uint                        `gorm:"index;type:bigint unsigned" json:"attemptId"`
	QuestionID        uint                        `gorm:"index;type:bigint unsigned" json:"questionId"`
	SelectedOptions   datatypes.JSONSlice[string] `gorm:"type:json" json:"selectedOptions,omitempty"`
	Answer            string                      `gorm:"type:text" json:"answer,omitempty"`
	MarksAwarded      float64                     `gorm:"type:decimal(10,2);default:0" json:"marksAwarded"`
	IsAutoGraded      bool                        `gorm:"default:false" json:"isAutoGraded"`
	AIFeedback        *string                     `gorm:"column:ai_feedback;type:text" json:"aiFeedback"`
	Explanation       *string                     `gorm:"type:text" json:"explanation"`
	AIConfidenceScore *float64                    `gorm:"column:ai_confidence_score;type:decimal(4,3)" json:"aiConfidenceScore"`
	NeedsManualReview bool                        `gorm:"default:false" json:"needsManualReview"`
	GradedAt          *time.Time                  `json:"gradedAt,omitempty"`
	OverriddenAt      *time.Time                  `json:"overriddenAt,omitempty"` // 人工改分时写入，重新评估会跳过这些记录
}

func (TestResponse) TableName() string {
	return "test_responses"
}

// ResponseWithQuestion 关联了评分所需试题字段的答题记录
type ResponseWithQuestion struct {
	TestResponse
	QuestionType   QuestionType                `gorm:"column:question_type" json:"questionType"`
	QuestionText   string                      `gorm:"column:question_text" json:"questionText"`
	Marks          float64                     `gorm:"column:marks" json:"marks"`
	CorrectOptions datatypes.JSONSlice[string] `gorm:"column:correct_options" json:"-"`
	CorrectAnswer  string                      `gorm:"column:correct_answer" json:"-"`
	Options        datatypes.JSONSlice[string] `gorm:"column:options" json:"options,omitempty"`
}

// Question 返回关联的试题
func (r *ResponseWithQuestion) Question() TestQuestion {
	q := TestQuestion{
		QuestionType:   r.QuestionType,
		QuestionText:   r.QuestionText,
		Marks:          r.Marks,
		CorrectOptions: r.CorrectOptions,
		CorrectAnswer:  r.CorrectAnswer,
		Options:        r.Options,
	}
	q.ID = r.QuestionID
	return q
}

// 主观题 ai_feedback 中的待评估与评估失败标记
const (
	FeedbackPendingAI = "Pending AI evaluation"
	FeedbackFailedAI  = "AI evaluation failed"
)

// ResponseGrade 单道答题的评分写入契约
type ResponseGrade struct {
	MarksAwarded      float64
	IsAutoGraded      bool
	AIFeedback        *string
	Explanation       *string
	AIConfidenceScore *float64
	NeedsManualReview bool
	GradedAt          time.Time
	OverriddenAt      *time.Time
}
