package repository

import (
	"context"
	"talentedge_backend/internal/model"
	"talentedge_backend/internal/util"

	"gorm.io/gorm"
)

const responseWithQuestionColumns = "test_responses.*, " +
	"test_questions.question_type, test_questions.question_text, test_questions.marks, " +
	"test_questions.correct_options, test_questions.correct_answer, test_questions.options"

type ResponseRepository struct {
	DB *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{DB: db}
}

func (r *ResponseRepository) joined(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table("test_responses").
		Select(responseWithQuestionColumns).
		Joins("JOIN test_questions ON test_questions.id = test_responses.question_id AND test_questions.deleted_at IS NULL").
		Where("test_responses.deleted_at IS NULL")
}

// ListByAttempt 按题目顺序获取尝试的全部答题及其试题
func (r *ResponseRepository) ListByAttempt(ctx context.Context, attemptID uint) ([]model.ResponseWithQuestion, error) {
	var rows []model.ResponseWithQuestion
	err := r.joined(ctx).
		Where("test_responses.attempt_id = ?", attemptID).
		Order("test_questions.`order` asc, test_responses.id asc").
		Scan(&rows).Error
	return rows, err
}

func (r *ResponseRepository) FindByID(ctx context.Context, id uint) (*model.ResponseWithQuestion, error) {
	var row model.ResponseWithQuestion
	res := r.joined(ctx).
		Where("test_responses.id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, util.ErrResponseNotFound
	}
	return &row, nil
}

func (r *ResponseRepository) UpdateGrade(ctx context.Context, id uint, g model.ResponseGrade) error {
	updates := map[string]interface{}{
		"marks_awarded":       g.MarksAwarded,
		"is_auto_graded":      g.IsAutoGraded,
		"ai_feedback":         g.AIFeedback,
		"explanation":         g.Explanation,
		"ai_confidence_score": g.AIConfidenceScore,
		"needs_manual_review": g.NeedsManualReview,
		"graded_at":           g.GradedAt,
	}
	if g.OverriddenAt != nil {
		updates["overridden_at"] = g.OverriddenAt
	}

	res := r.DB.WithContext(ctx).
		Model(&model.TestResponse{}).
		Where("id = ?", id).
		Updates(updates)
	return res.Error
}
