package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"talentedge_backend/internal/service"
	"talentedge_backend/internal/util"
	"talentedge_backend/pkg/locker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaluator struct {
	err       error
	batchIDs  []uint
	evaluated uint
}

func (f *fakeEvaluator) EvaluateAttempt(_ context.Context, id uint) (*service.AttemptSummary, error) {
	f.evaluated = id
	if f.err != nil {
		return nil, f.err
	}
	return &service.AttemptSummary{AttemptID: id, TotalScore: 10, Percentage: 50, IsEvaluated: true}, nil
}

func (f *fakeEvaluator) EvaluateAttempts(_ context.Context, ids []uint) *service.BatchResult {
	f.batchIDs = ids
	return &service.BatchResult{Errors: map[uint]string{ids[0]: "attempt not found"}}
}

func (f *fakeEvaluator) GetAttemptSummary(_ context.Context, id uint) (*service.AttemptSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.AttemptSummary{AttemptID: id, Percentage: 75}, nil
}

type fakeOverrider struct {
	gotID    uint
	gotMarks float64
	gotExpl  string
	err      error
}

func (f *fakeOverrider) OverrideScore(_ context.Context, id uint, marks float64, explanation string) (*service.OverrideResult, error) {
	f.gotID, f.gotMarks, f.gotExpl = id, marks, explanation
	if f.err != nil {
		return nil, f.err
	}
	expl := explanation
	return &service.OverrideResult{
		Response: service.ResponseResult{ResponseID: id, QuestionID: 9, Marks: 20, MarksAwarded: 20, Explanation: &expl, Overridden: true},
		Attempt:  &service.AttemptSummary{AttemptID: 3, TotalScore: 20, Percentage: 100, IsPassed: true},
	}, nil
}

func newTestRouter(ev *fakeEvaluator, ov *fakeOverrider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	c := NewEvaluationController(ev, ov)
	r := gin.New()
	r.POST("/attempts/:id/evaluate", c.EvaluateAttempt)
	r.POST("/attempts/evaluate", c.EvaluateAttempts)
	r.GET("/attempts/:id/summary", c.GetAttemptSummary)
	r.PUT("/responses/:id/score", c.OverrideScore)
	return r
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, util.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp util.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestEvaluateAttempt_OK(t *testing.T) {
	ev := &fakeEvaluator{}
	w, resp := do(newTestRouter(ev, &fakeOverrider{}), http.MethodPost, "/attempts/7/evaluate", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(7), ev.evaluated)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, 50.0, data["percentage"])
	assert.Equal(t, true, data["isEvaluated"])
}

func TestEvaluateAttempt_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{err: util.ErrAttemptNotFound, code: http.StatusNotFound},
		{err: fmt.Errorf("load: %w", util.ErrAttemptNotFound), code: http.StatusNotFound},
		{err: util.ErrNoResponses, code: http.StatusUnprocessableEntity},
		{err: errors.Join(locker.ErrLockTimeout, context.DeadlineExceeded), code: http.StatusConflict},
		{err: errors.New("db down"), code: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w, _ := do(newTestRouter(&fakeEvaluator{err: tc.err}, &fakeOverrider{}), http.MethodPost, "/attempts/1/evaluate", "")
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestEvaluateAttempt_BadID(t *testing.T) {
	r := newTestRouter(&fakeEvaluator{}, &fakeOverrider{})
	for _, id := range []string{"abc", "0", "-3"} {
		w, _ := do(r, http.MethodPost, "/attempts/"+id+"/evaluate", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}

func TestEvaluateAttempts_Batch(t *testing.T) {
	ev := &fakeEvaluator{}
	r := newTestRouter(ev, &fakeOverrider{})

	w, _ := do(r, http.MethodPost, "/attempts/evaluate", `{"attemptIds": [4, 5]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{4, 5}, ev.batchIDs)

	w, _ = do(r, http.MethodPost, "/attempts/evaluate", `{"attemptIds": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ids := make([]string, maxBatchAttempts+1)
	for i := range ids {
		ids[i] = fmt.Sprint(i + 1)
	}
	w, _ = do(r, http.MethodPost, "/attempts/evaluate", `{"attemptIds": [`+strings.Join(ids, ",")+`]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAttemptSummary(t *testing.T) {
	w, resp := do(newTestRouter(&fakeEvaluator{}, &fakeOverrider{}), http.MethodGet, "/attempts/3/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 75.0, resp.Data.(map[string]interface{})["percentage"])

	w, _ = do(newTestRouter(&fakeEvaluator{err: util.ErrAttemptNotFound}, &fakeOverrider{}), http.MethodGet, "/attempts/3/summary", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOverrideScore(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantMarks float64
		wantNaN   bool
	}{
		{name: "number", body: `{"marks": 150, "explanation": "typo"}`, wantMarks: 150},
		{name: "numeric string", body: `{"marks": " 12.5 ", "explanation": "typo"}`, wantMarks: 12.5},
		{name: "garbage string", body: `{"marks": "lots", "explanation": "typo"}`, wantNaN: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ov := &fakeOverrider{}
			w, resp := do(newTestRouter(&fakeEvaluator{}, ov), http.MethodPut, "/responses/11/score", tc.body)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, uint(11), ov.gotID)
			assert.Equal(t, "typo", ov.gotExpl)
			if tc.wantNaN {
				assert.True(t, math.IsNaN(ov.gotMarks))
			} else {
				assert.Equal(t, tc.wantMarks, ov.gotMarks)
			}

			data := resp.Data.(map[string]interface{})
			assert.Equal(t, 11.0, data["responseId"])
			assert.Equal(t, 20.0, data["marksAwarded"])
			assert.Equal(t, "typo", data["explanation"])
			assert.Equal(t, 100.0, data["attempt"].(map[string]interface{})["percentage"])
		})
	}
}

func TestOverrideScore_Rejects(t *testing.T) {
	r := newTestRouter(&fakeEvaluator{}, &fakeOverrider{})

	w, _ := do(r, http.MethodPut, "/responses/11/score", `{"explanation": "no marks"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(r, http.MethodPut, "/responses/11/score", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(newTestRouter(&fakeEvaluator{}, &fakeOverrider{err: util.ErrResponseNotFound}), http.MethodPut, "/responses/11/score", `{"marks": 1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
