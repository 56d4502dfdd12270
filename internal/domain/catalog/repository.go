package catalog

import "context"

// Repository exposes the read-only queries used by recommendations.
type Repository interface {
	// ListUsageHistory returns bicycles left-joined with their rental history,
	// in bicycle order and then rental order.
	ListUsageHistory(ctx context.Context) ([]UsageRow, error)
	ListEntries(ctx context.Context) ([]Entry, error)
}
