package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"talentedge_backend/internal/model"
	"talentedge_backend/internal/util"
	"talentedge_backend/pkg/locker"
	"time"

	"gorm.io/datatypes"
)

/* ---------------- in-memory store satisfying AttemptStore and ResponseStore ---------------- */

type memStore struct {
	mu        sync.Mutex
	attempts  map[uint]*model.AttemptWithTest
	responses map[uint]*model.ResponseWithQuestion
	nextID    uint

	gradeWrites   int
	failGradeFor  map[uint]bool
	failAnyFor    map[uint]bool
	onUpdateGrade func(id uint, g model.ResponseGrade)
}

func newMemStore() *memStore {
	return &memStore{
		attempts:     map[uint]*model.AttemptWithTest{},
		responses:    map[uint]*model.ResponseWithQuestion{},
		failGradeFor: map[uint]bool{},
		failAnyFor:   map[uint]bool{},
	}
}

func (s *memStore) addAttempt(id uint, passing float64) {
	a := &model.AttemptWithTest{PassingPercentage: passing}
	a.ID = id
	a.TestID = 1
	a.Status = model.AttemptSubmitted
	s.attempts[id] = a
}

type respFixture struct {
	qType    model.QuestionType
	marks    float64
	correct  []string
	selected []string
	answer   string
	refText  string
	awarded  float64
}

func (s *memStore) addResponse(attemptID uint, rs respFixture) uint {
	s.nextID++
	r := &model.ResponseWithQuestion{
		QuestionType:   rs.qType,
		QuestionText:   "question " + string(rs.qType),
		Marks:          rs.marks,
		CorrectOptions: datatypes.JSONSlice[string](rs.correct),
		CorrectAnswer:  rs.refText,
	}
	r.ID = s.nextID
	r.AttemptID = attemptID
	r.QuestionID = 100 + s.nextID
	r.SelectedOptions = datatypes.JSONSlice[string](rs.selected)
	r.Answer = rs.answer
	r.MarksAwarded = rs.awarded
	s.responses[r.ID] = r
	return r.ID
}

func (s *memStore) FindAttemptByID(_ context.Context, id uint) (*model.AttemptWithTest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, util.ErrAttemptNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) UpdateAttemptScore(_ context.Context, id uint, score model.AttemptScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return util.ErrAttemptNotFound
	}
	total, pct, passed, at := score.TotalScore, score.Percentage, score.IsPassed, score.EvaluatedAt
	a.TotalScore = &total
	a.Percentage = &pct
	a.IsPassed = &passed
	a.IsEvaluated = score.IsEvaluated
	a.EvaluatedAt = nil
	if score.IsEvaluated {
		a.EvaluatedAt = &at
	}
	return nil
}

func (s *memStore) ListByAttempt(_ context.Context, attemptID uint) ([]model.ResponseWithQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ResponseWithQuestion
	for _, r := range s.responses {
		if r.AttemptID == attemptID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) FindByID(_ context.Context, id uint) (*model.ResponseWithQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.responses[id]
	if !ok {
		return nil, util.ErrResponseNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) UpdateGrade(_ context.Context, id uint, g model.ResponseGrade) error {
	s.mu.Lock()
	r, ok := s.responses[id]
	if !ok {
		s.mu.Unlock()
		return util.ErrResponseNotFound
	}
	if s.failAnyFor[id] || (s.failGradeFor[id] && g.AIFeedback != nil && *g.AIFeedback != model.FeedbackPendingAI) {
		s.mu.Unlock()
		return errors.New("write failed")
	}
	s.gradeWrites++
	r.MarksAwarded = g.MarksAwarded
	r.IsAutoGraded = g.IsAutoGraded
	r.AIFeedback = g.AIFeedback
	r.Explanation = g.Explanation
	r.AIConfidenceScore = g.AIConfidenceScore
	r.NeedsManualReview = g.NeedsManualReview
	at := g.GradedAt
	r.GradedAt = &at
	if g.OverriddenAt != nil {
		r.OverriddenAt = g.OverriddenAt
	}
	hook := s.onUpdateGrade
	s.mu.Unlock()

	if hook != nil {
		hook(id, g)
	}
	return nil
}

func (s *memStore) response(id uint) model.ResponseWithQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.responses[id]
}

func (s *memStore) attempt(id uint) model.AttemptWithTest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.attempts[id]
}

/* ---------------- oracle and pacer stubs ---------------- */

type stubOracle struct {
	mu     sync.Mutex
	calls  int
	reply  func(req OracleRequest) (string, error)
	seenTs []float32
}

func (o *stubOracle) Score(ctx context.Context, req OracleRequest) (string, error) {
	o.mu.Lock()
	o.calls++
	o.seenTs = append(o.seenTs, req.Temperature)
	fn := o.reply
	o.mu.Unlock()
	return fn(req)
}

func (o *stubOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func replyWith(body string) *stubOracle {
	return &stubOracle{reply: func(OracleRequest) (string, error) { return body, nil }}
}

func failingOracle() *stubOracle {
	return &stubOracle{reply: func(OracleRequest) (string, error) { return "", errors.New("connection refused") }}
}

type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return ctx.Err()
}

func (p *countingPacer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

func newEngine(store *memStore, oracle ScoringOracle, pacer Pacer) (*AttemptEvaluator, *ScoreRecalculator) {
	locks := locker.NewLocal()
	agg := NewScoreAggregator(store, store)
	sub := NewSubjectiveEvaluator(oracle, pacer, time.Second, 0.1)
	return NewAttemptEvaluator(store, store, sub, agg, locks, 2), NewScoreRecalculator(store, agg, locks)
}
