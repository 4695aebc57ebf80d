package controller

import (
	"context"
	"errors"
	"math"
	"strconv"
	"talentedge_backend/internal/service"
	"talentedge_backend/internal/util"
	"talentedge_backend/pkg/locker"
	"talentedge_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

const maxBatchAttempts = 100

type AttemptEvaluatorService interface {
	EvaluateAttempt(ctx context.Context, attemptID uint) (*service.AttemptSummary, error)
	EvaluateAttempts(ctx context.Context, attemptIDs []uint) *service.BatchResult
	GetAttemptSummary(ctx context.Context, attemptID uint) (*service.AttemptSummary, error)
}

type ScoreOverrideService interface {
	OverrideScore(ctx context.Context, responseID uint, newMarks float64, explanation string) (*service.OverrideResult, error)
}

type EvaluationController struct {
	Evaluator    AttemptEvaluatorService
	Recalculator ScoreOverrideService
}

func NewEvaluationController(evaluator AttemptEvaluatorService, recalculator ScoreOverrideService) *EvaluationController {
	return &EvaluationController{Evaluator: evaluator, Recalculator: recalculator}
}

type BatchEvaluateRequest struct {
	AttemptIDs []uint `json:"attemptIds" binding:"required,min=1"`
}

type OverrideScoreRequest struct {
	Marks       *util.LenientFloat `json:"marks" binding:"required"`
	Explanation string             `json:"explanation"`
}

// OverrideScoreResponse 人工改分后返回给评审人员的答题视图
type OverrideScoreResponse struct {
	ResponseID        uint                    `json:"responseId"`
	QuestionID        uint                    `json:"questionId"`
	Marks             float64                 `json:"marks"`
	MarksAwarded      float64                 `json:"marksAwarded"`
	IsAutoGraded      bool                    `json:"isAutoGraded"`
	Explanation       *string                 `json:"explanation,omitempty"`
	AIFeedback        *string                 `json:"aiFeedback,omitempty"`
	AIConfidenceScore *float64                `json:"aiConfidenceScore,omitempty"`
	Attempt           *service.AttemptSummary `json:"attempt"`
}

// @Summary 评估考试尝试
// @Description 对该尝试的全部答题评分并保存总分
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path int true "尝试ID"
// @Success 200 {object} util.Response
// @Router /api/reviewer/attempts/{id}/evaluate [post]
func (c *EvaluationController) EvaluateAttempt(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	summary, err := c.Evaluator.EvaluateAttempt(ctx.Request.Context(), attemptID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// @Summary 批量评估考试尝试
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BatchEvaluateRequest true "尝试ID列表"
// @Success 200 {object} util.Response
// @Router /api/reviewer/attempts/evaluate [post]
func (c *EvaluationController) EvaluateAttempts(ctx *gin.Context) {
	var req BatchEvaluateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(req.AttemptIDs) > maxBatchAttempts {
		util.BadRequest(ctx, "too many attempts, at most "+strconv.Itoa(maxBatchAttempts)+" per request")
		return
	}

	util.Success(ctx, c.Evaluator.EvaluateAttempts(ctx.Request.Context(), req.AttemptIDs))
}

// @Summary 获取考试尝试成绩汇总
// @Tags 评分
// @Produce json
// @Security BearerAuth
// @Param id path int true "尝试ID"
// @Success 200 {object} util.Response
// @Router /api/reviewer/attempts/{id}/summary [get]
func (c *EvaluationController) GetAttemptSummary(ctx *gin.Context) {
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	summary, err := c.Evaluator.GetAttemptSummary(ctx.Request.Context(), attemptID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// @Summary 人工修改单题得分
// @Description 分数限制在 [0, 题目分值]，非数字输入按 0 处理
// @Tags 评分
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "答题ID"
// @Param body body OverrideScoreRequest true "分数与说明"
// @Success 200 {object} util.Response
// @Router /api/reviewer/responses/{id}/score [put]
func (c *EvaluationController) OverrideScore(ctx *gin.Context) {
	responseID, ok := pathID(ctx, "id")
	if !ok {
		util.BadRequest(ctx, "invalid response id")
		return
	}

	var req OverrideScoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	marks := float64(*req.Marks)
	if math.IsNaN(marks) {
		logger.Log.Warn("non-numeric override marks, treating as 0", zap.Uint("responseID", responseID))
	}

	result, err := c.Recalculator.OverrideScore(ctx.Request.Context(), responseID, marks, req.Explanation)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	if user := util.GetUserFromContext(ctx); user != nil {
		logger.Log.Info("score override by reviewer",
			zap.Uint("reviewerID", user.UserID),
			zap.Uint("responseID", responseID),
			zap.Float64("marks", result.Response.MarksAwarded),
		)
	}

	var resp OverrideScoreResponse
	if err := copier.Copy(&resp, &result.Response); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	resp.Attempt = result.Attempt
	util.Success(ctx, resp)
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func writeServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptNotFound), errors.Is(err, util.ErrResponseNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrNoResponses):
		util.UnprocessableEntity(ctx, err.Error())
	case errors.Is(err, locker.ErrLockTimeout):
		util.Conflict(ctx, "attempt is being graded, retry later")
	default:
		util.LogInternalError(ctx, err)
	}
}
