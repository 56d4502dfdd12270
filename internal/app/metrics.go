package app

import (
	"context"
	"time"
)

// Operation names reported to the MetricsRecorder.
const (
	OperationRent          = "rent"
	OperationReturn        = "return"
	OperationVerify        = "verify"
	OperationRecommend     = "recommend"
	OperationPlanPurchases = "plan_purchases"
	OperationOverdueReport = "overdue_report"
	outcomeSuccess         = "success"
)

// MetricsRecorder receives the outcome of every service operation. The outcome
// is "success" or the failure Reason.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, outcome string, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, string, time.Duration) {}

func outcomeOf(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if r := ReasonOf(err); r != "" {
		return string(r)
	}
	return string(ReasonPersistenceFailure)
}

func observe(ctx context.Context, m MetricsRecorder, operation string, started time.Time, err error) {
	m.Observe(ctx, operation, outcomeOf(err), time.Since(started))
}
