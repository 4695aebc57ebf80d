package monitoring

import "github.com/prometheus/client_golang/prometheus"

// 评分方式标签
const (
	MethodAuto     = "auto"
	MethodAI       = "ai"
	MethodFallback = "fallback"
	MethodFailed   = "failed"
)

var (
	ResponsesGraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_responses_total",
			Help: "Responses graded, by question type and grading method",
		},
		[]string{"question_type", "method"},
	)

	OracleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grading_oracle_duration_seconds",
			Help:    "Latency of AI scoring oracle calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	AttemptsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_attempts_evaluated_total",
			Help: "Attempt evaluations, by result",
		},
		[]string{"result"},
	)

	ScoreOverrides = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grading_score_overrides_total",
			Help: "Manual score overrides applied by reviewers",
		},
	)
)
