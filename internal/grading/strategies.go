// Package grading 客观题的确定性评分规则，不做任何 I/O
package grading

import (
	"math"
	"strings"

	"talentedge_backend/internal/model"
)

const (
	ExplainMissingSelection = "missing selection data"
	ExplainNoCorrectOptions = "no correct options defined"
	ExplainUnknownType      = "unknown question type"
)

// Result 单道答题的评分结果
type Result struct {
	MarksAwarded      float64
	Explanation       string
	NeedsManualReview bool
}

// Strategy 对一道题的作答评分
type Strategy func(q model.TestQuestion, selected []string) Result

var strategies = map[model.QuestionType]Strategy{
	model.QuestionMCQSingle:   gradeMCQSingle,
	model.QuestionMCQMultiple: gradeMCQMultiple,
}

// Grade 按题型分派评分规则。text 与 coding 应由调用方交给主观题评估，
// 若传到这里则按未知题型处理
func Grade(q model.TestQuestion, selected []string) Result {
	s, ok := strategies[q.QuestionType]
	if !ok {
		return Result{Explanation: ExplainUnknownType, NeedsManualReview: true}
	}
	return s(q, selected)
}

func gradeMCQSingle(q model.TestQuestion, selected []string) Result {
	if len(selected) == 0 || len(q.CorrectOptions) == 0 {
		return Result{Explanation: ExplainMissingSelection}
	}
	chosen := strings.TrimSpace(selected[0])
	correct := strings.TrimSpace(q.CorrectOptions[0])
	if chosen == "" || correct == "" {
		return Result{Explanation: ExplainMissingSelection}
	}

	if chosen == correct {
		return Result{MarksAwarded: q.Marks, Explanation: "correct option selected"}
	}
	return Result{Explanation: "incorrect option selected; expected " + correct}
}

// gradeMCQMultiple 每选对一项得 marks/n，每选错一项扣同样分数，最低为 0。
// 全选永远不得分
func gradeMCQMultiple(q model.TestQuestion, selected []string) Result {
	correct := toSet(q.CorrectOptions)
	n := len(correct)
	if n == 0 {
		return Result{Explanation: ExplainNoCorrectOptions}
	}

	var corr, wrong int
	for opt := range toSet(selected) {
		if _, ok := correct[opt]; ok {
			corr++
		} else {
			wrong++
		}
	}

	v := q.Marks / float64(n)
	awarded := Round2(math.Max(0, float64(corr)*v-float64(wrong)*v))
	awarded = Clamp(awarded, q.Marks)

	return Result{
		MarksAwarded: awarded,
		Explanation:  explainMultiple(corr, wrong, n),
	}
}

func explainMultiple(corr, wrong, n int) string {
	var b strings.Builder
	b.WriteString(itoa(corr))
	b.WriteString(" of ")
	b.WriteString(itoa(n))
	b.WriteString(" correct options selected")
	if wrong > 0 {
		b.WriteString(", ")
		b.WriteString(itoa(wrong))
		b.WriteString(" incorrect selection(s) penalized")
	}
	return b.String()
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		set[it] = struct{}{}
	}
	return set
}
