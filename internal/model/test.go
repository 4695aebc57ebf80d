package model

import "gorm.io/datatypes"

type QuestionType string

const (
	QuestionMCQSingle   QuestionType = "mcq_single"
	QuestionMCQMultiple QuestionType = "mcq_multiple"
	QuestionText        QuestionType = "text"
	QuestionCoding      QuestionType = "coding"
)

// IsObjective 是否为按规则自动评分的客观题
func (t QuestionType) IsObjective() bool {
	return t == QuestionMCQSingle || t == QuestionMCQMultiple
}

// IsSubjective 是否为交给 AI 评估的主观题
func (t QuestionType) IsSubjective() bool {
	return t == QuestionText || t == QuestionCoding
}

// swagger:model Test
type Test struct {
	BaseModel
	Title             string  `gorm:"size:255;not null" json:"title"`
	PassingPercentage float64 `gorm:"type:decimal(5,2);default:0" json:"passingPercentage"`
	TotalMarks        float64 `gorm:"type:decimal(10,2);default:0" json:"totalMarks"`
}

func (Test) TableName() string {
	return "tests"
}

// TestQuestion 试题，被答题引用后不再修改
// swagger:model TestQuestion
type TestQuestion struct {
	BaseModel
	TestID         uint                        `gorm:"index;type:bigint unsigned" json:"testId"`
	QuestionType   QuestionType                `gorm:"size:50;not null" json:"questionType"`
	QuestionText   string                      `gorm:"type:text;not null" json:"questionText"`
	Marks          float64                     `gorm:"type:decimal(10,2);default:0" json:"marks"`
	CorrectOptions datatypes.JSONSlice[string] `gorm:"type:json" json:"correctOptions,omitempty"`
	CorrectAnswer  string                      `gorm:"type:text" json:"correctAnswer,omitempty"`
	Options        datatypes.JSONSlice[string] `gorm:"type:json" json:"options,omitempty"`
	Order          int                         `gorm:"default:0" json:"order"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}
