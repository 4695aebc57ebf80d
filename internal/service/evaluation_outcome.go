package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// 评估方式
const (
	EvaluatedByAI       = "ai"
	EvaluatedByFallback = "fallback"
	EvaluationFailed    = "failed"
)

// EvaluationOutcome 单道主观题的评估结果。Score 为 0-100，Confidence 为 0-1
type EvaluationOutcome struct {
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
	Method      string  `json:"method"`
}

// ValidationError 评分模型返回内容校验失败的原因
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid oracle output: " + e.Reason
	}
	return fmt.Sprintf("invalid oracle output: %s %s", e.Field, e.Reason)
}

type oracleReply struct {
	Score       *float64 `json:"score"`
	Feedback    *string  `json:"feedback"`
	Confidence  *float64 `json:"confidence"`
	Explanation *string  `json:"explanation"`
}

// DecodeOutcome 解析并校验评分模型的原始返回，两个返回值恰有一个非 nil
func DecodeOutcome(raw string) (*EvaluationOutcome, *ValidationError) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, &ValidationError{Reason: "empty reply"}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	var reply oracleReply
	if err := dec.Decode(&reply); err != nil {
		return nil, &ValidationError{Reason: "not a JSON object: " + err.Error()}
	}
	if dec.More() {
		return nil, &ValidationError{Reason: "trailing data after JSON object"}
	}

	switch {
	case reply.Score == nil:
		return nil, &ValidationError{Field: "score", Reason: "is missing"}
	case math.IsNaN(*reply.Score) || *reply.Score < 0 || *reply.Score > 100:
		return nil, &ValidationError{Field: "score", Reason: "must be within [0,100]"}
	case reply.Feedback == nil:
		return nil, &ValidationError{Field: "feedback", Reason: "is missing"}
	case reply.Confidence == nil:
		return nil, &ValidationError{Field: "confidence", Reason: "is missing"}
	case *reply.Confidence < 0 || *reply.Confidence > 1:
		return nil, &ValidationError{Field: "confidence", Reason: "must be within [0,1]"}
	case reply.Explanation == nil:
		return nil, &ValidationError{Field: "explanation", Reason: "is missing"}
	}

	return &EvaluationOutcome{
		Score:       *reply.Score,
		Feedback:    strings.TrimSpace(*reply.Feedback),
		Confidence:  *reply.Confidence,
		Explanation: strings.TrimSpace(*reply.Explanation),
		Method:      EvaluatedByAI,
	}, nil
}

// stripCodeFence 去掉部分模型包裹在外层的 ```json ... ``` 代码块
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
