package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bicycle_rental/internal/domain/catalog"
)

// Recommendation report messages.
const (
	MessageTopRecommendations = "Recommendations based on top bikes from past rental patterns."
	MessageReplacements       = "Recommendations for bike replacements."
	MessageNoHistory          = "No rental history available for recommendations."
	MessageNoneWithinBudget   = "No bikes found within the budget and criteria."
	MessageRecommendFailed    = "Recommendations are currently unavailable."
)

// RecommendationReport is a ranked list with a human readable status.
type RecommendationReport struct {
	Items   []Recommendation
	Message string
}

// PurchasePlan is the outcome of spreading a budget over new catalog items
// that resemble the best performing bikes.
type PurchasePlan struct {
	Recommendations []Recommendation
	Candidates      []catalog.Entry
	Allocation      Allocation
	Message         string
}

// RecommendationService turns fleet history into keep, replace and buy advice.
// Failures never propagate: callers always receive a report with a message.
type RecommendationService struct {
	repo      catalog.Repository
	scorer    *RecommendationScorer
	allocator BudgetAllocator
	logger    *logrus.Entry
	cfg       serviceConfig
}

func NewRecommendationService(repo catalog.Repository, logger *logrus.Entry, opts ...Option) *RecommendationService {
	return &RecommendationService{
		repo:   repo,
		scorer: NewRecommendationScorer(DefaultScoreWeights),
		logger: logger.WithField("component", "recommendation_service"),
		cfg:    buildConfig(opts),
	}
}

type scoredFleet struct {
	history []catalog.UsageRow
	entries []catalog.Entry
	scored  []ScoredUsage
}

func (s *RecommendationService) load(ctx context.Context) (*scoredFleet, error) {
	history, err := s.repo.ListUsageHistory(ctx)
	if err != nil {
		return nil, persistenceFailure(err, MessageRecommendFailed)
	}
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, persistenceFailure(err, MessageRecommendFailed)
	}
	return &scoredFleet{
		history: history,
		entries: entries,
		scored:  s.scorer.Score(history, s.cfg.today()),
	}, nil
}

// Recommend returns the topN best performing groups.
func (s *RecommendationService) Recommend(ctx context.Context, topN int) RecommendationReport {
	return s.report(ctx, topN, TopRecommendations, MessageTopRecommendations)
}

// Replacements returns the n worst performing groups, candidates for replacement.
func (s *RecommendationService) Replacements(ctx context.Context, n int) RecommendationReport {
	return s.report(ctx, n, BottomRecommendations, MessageReplacements)
}

func (s *RecommendationService) report(
	ctx context.Context,
	n int,
	rankFn func([]ScoredUsage, int) []Recommendation,
	successMessage string,
) RecommendationReport {
	started := time.Now()
	var err error
	defer func() { observe(ctx, s.cfg.metrics, OperationRecommend, started, err) }()

	fleet, err := s.load(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load fleet history")
		return RecommendationReport{Items: []Recommendation{}, Message: MessageRecommendFailed}
	}
	if len(fleet.history) == 0 {
		return RecommendationReport{Items: []Recommendation{}, Message: MessageNoHistory}
	}

	items := rankFn(fleet.scored, n)
	attachEntries(items, fleet.entries)

	s.logger.WithFields(logrus.Fields{"requested": n, "returned": len(items)}).Info("Recommendations generated")
	return RecommendationReport{Items: items, Message: successMessage}
}

// PlanPurchases ranks the topN best groups, collects catalog items of the same
// Brand and Type that the fleet does not own yet and spreads budget over them.
func (s *RecommendationService) PlanPurchases(ctx context.Context, budget decimal.Decimal, topN int) PurchasePlan {
	started := time.Now()
	var err error
	defer func() { observe(ctx, s.cfg.metrics, OperationPlanPurchases, started, err) }()

	logCtx := s.logger.WithFields(logrus.Fields{"budget": budget.StringFixed(2), "top_n": topN})

	if budget.IsNegative() {
		err = fail(ReasonInvalidRequest, "Budget cannot be negative.")
		logCtx.Warn("Rejected purchase plan with negative budget")
		return emptyPlan(budget, err.Error())
	}

	fleet, err := s.load(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load fleet history")
		return emptyPlan(budget, MessageRecommendFailed)
	}

	recs := TopRecommendations(fleet.scored, topN)
	attachEntries(recs, fleet.entries)
	candidates := PurchaseCandidates(recs, fleet.entries, fleet.history)
	allocation := s.allocator.Allocate(candidates, budget)

	message := allocation.Status
	if allocation.TotalSpent.IsZero() {
		message = MessageNoneWithinBudget
	}

	logCtx.WithFields(logrus.Fields{
		"candidates":  len(candidates),
		"total_spent": allocation.TotalSpent.StringFixed(2),
		"remaining":   allocation.Remaining.StringFixed(2),
	}).Info("Purchase plan generated")

	return PurchasePlan{
		Recommendations: recs,
		Candidates:      candidates,
		Allocation:      allocation,
		Message:         message,
	}
}

func emptyPlan(budget decimal.Decimal, message string) PurchasePlan {
	return PurchasePlan{
		Recommendations: []Recommendation{},
		Candidates:      []catalog.Entry{},
		Allocation: Allocation{
			Lines:      []AllocationLine{},
			TotalSpent: decimal.Zero,
			Remaining:  budget,
			Status:     AllocationStatusNoCandidates,
		},
		Message: message,
	}
}
