package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"talentedge_backend/internal/grading"
	"talentedge_backend/internal/model"
	"unicode"
	"unicode/utf8"
)

const (
	fallbackConfidence   = 0.5
	keywordScoreCap      = 70.0
	minKeywordLength     = 4
	minCodingAnswerChars = 10
)

var (
	definitionPattern = regexp.MustCompile(`\b(def|function|func|class|fn|fun|struct|interface)\b|=>|\b(public|private|protected|static)\s+\w+[\w<>\[\]]*\s+\w+\s*\(`)
	returnPattern     = regexp.MustCompile(`\breturn\b`)
)

// FallbackEvaluator 评分模型不可用时的规则评分，分数上限低于最高档
type FallbackEvaluator struct{}

func (FallbackEvaluator) Evaluate(q model.TestQuestion, answer string) EvaluationOutcome {
	if q.QuestionType == model.QuestionCoding {
		return evaluateCodingFallback(answer)
	}
	return evaluateTextFallback(q.CorrectAnswer, answer)
}

func evaluateTextFallback(reference, answer string) EvaluationOutcome {
	out := EvaluationOutcome{Confidence: fallbackConfidence, Method: EvaluatedByFallback}

	if strings.TrimSpace(answer) == "" {
		out.Feedback = "No answer was provided."
		out.Explanation = "empty answer"
		return out
	}

	keywords := make(map[string]struct{})
	for w := range wordSet(reference) {
		if utf8.RuneCountInString(w) >= minKeywordLength {
			keywords[w] = struct{}{}
		}
	}
	if len(keywords) == 0 {
		out.Feedback = "Automatic evaluation was not possible; this answer needs a reviewer."
		out.Explanation = "reference answer has no keywords to compare against"
		return out
	}

	candidate := wordSet(answer)
	matches := 0
	for w := range keywords {
		if _, ok := candidate[w]; ok {
			matches++
		}
	}

	out.Score = grading.Round2(math.Min(keywordScoreCap, float64(matches)/float64(len(keywords))*100))
	out.Feedback = fmt.Sprintf("Automated keyword evaluation: your answer covers %d of %d key terms from the reference answer.", matches, len(keywords))
	out.Explanation = fmt.Sprintf("fallback keyword overlap %d/%d, capped at %.0f", matches, len(keywords), keywordScoreCap)
	return out
}

func evaluateCodingFallback(answer string) EvaluationOutcome {
	out := EvaluationOutcome{Confidence: fallbackConfidence, Method: EvaluatedByFallback}

	code := strings.TrimSpace(answer)
	if utf8.RuneCountInString(code) < minCodingAnswerChars {
		out.Feedback = "The submitted code is too short to evaluate."
		out.Explanation = "answer shorter than minimum code length"
		return out
	}

	lines := 0
	for _, l := range strings.Split(code, "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}
	hasDefinition := definitionPattern.MatchString(code)
	hasReturn := returnPattern.MatchString(code)

	switch {
	case lines >= 5 && hasDefinition && hasReturn:
		out.Score = 60
		out.Feedback = "Automated structural check: the solution defines a function or class and returns a result. A reviewer should confirm correctness."
	case lines >= 3 && (hasDefinition || hasReturn):
		out.Score = 40
		out.Feedback = "Automated structural check: the solution is partially structured. A reviewer should confirm correctness."
	default:
		out.Score = 20
		out.Feedback = "Automated structural check: the solution lacks a clear function definition or return value."
	}
	out.Explanation = fmt.Sprintf("fallback code heuristic: %d lines, definition=%t, return=%t", lines, hasDefinition, hasReturn)
	return out
}

func wordSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
