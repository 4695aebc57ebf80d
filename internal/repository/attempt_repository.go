package repository

import (
	"context"
	"talentedge_backend/internal/model"
	"talentedge_backend/internal/util"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// FindAttemptByID 获取考试尝试，并关联试卷的及格线与总分
func (r *AttemptRepository) FindAttemptByID(ctx context.Context, id uint) (*model.AttemptWithTest, error) {
	var row model.AttemptWithTest
	res := r.DB.WithContext(ctx).
		Table("test_attempts").
		Select("test_attempts.*, tests.passing_percentage, tests.total_marks").
		Joins("LEFT JOIN tests ON tests.id = test_attempts.test_id").
		Where("test_attempts.id = ? AND test_attempts.deleted_at IS NULL", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, util.ErrAttemptNotFound
	}
	return &row, nil
}

func (r *AttemptRepository) UpdateAttemptScore(ctx context.Context, id uint, score model.AttemptScore) error {
	var evaluatedAt interface{}
	if score.IsEvaluated {
		evaluatedAt = score.EvaluatedAt
	}
	res := r.DB.WithContext(ctx).
		Model(&model.TestAttempt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_score":  score.TotalScore,
			"percentage":   score.Percentage,
			"is_passed":    score.IsPassed,
			"is_evaluated": score.IsEvaluated,
			"evaluated_at": evaluatedAt,
		})
	return res.Error
}
