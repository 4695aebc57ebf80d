package service

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer 控制评分模型的调用间隔
type Pacer interface {
	Wait(ctx context.Context) error
}

// RatePacer 容量为 1 的令牌桶：首次调用立即通过，之后每次间隔一个周期。
// 所有评估共用一个实例，并发评估时也不会超出服务商限流
type RatePacer struct {
	limiter *rate.Limiter
}

func NewRatePacer(interval time.Duration) *RatePacer {
	return &RatePacer{limiter: rate.NewLimiter(limitFor(interval), 1)}
}

func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// SetInterval 运行时调整调用间隔（配置热更新）
func (p *RatePacer) SetInterval(interval time.Duration) {
	p.limiter.SetLimit(limitFor(interval))
}

func limitFor(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}
