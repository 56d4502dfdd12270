package app

import (
	"sort"

	"github.com/shopspring/decimal"

	"bicycle_rental/internal/domain/bicycle"
	"bicycle_rental/internal/domain/calendar"
	"bicycle_rental/internal/domain/catalog"
)

// ScoreWeights are the coefficients of the recommendation score.
type ScoreWeights struct {
	RentalFrequency float64
	Durability      float64
	Age             float64
}

var DefaultScoreWeights = ScoreWeights{RentalFrequency: 1.5, Durability: 1.0, Age: 0.8}

const daysPerYear = 365.0

// ScoredUsage is a usage row with every intermediate of its score.
// HasScore is false when the purchase date is missing, since the age term is undefined.
type ScoredUsage struct {
	Row             catalog.UsageRow
	ConditionScore  int
	StatusScore     int
	RecencyFactor   float64
	DurabilityScore float64
	RentalFrequency int
	BikeAge         float64
	HasAge          bool
	Score           float64
	HasScore        bool
}

// RecommendationScorer computes keep-vs-replace scores from rental history.
type RecommendationScorer struct {
	weights ScoreWeights
}

func NewRecommendationScorer(weights ScoreWeights) *RecommendationScorer {
	return &RecommendationScorer{weights: weights}
}

func conditionScore(c bicycle.Condition) int {
	switch c {
	case bicycle.ConditionNew:
		return 3
	case bicycle.ConditionGood:
		return 2
	case bicycle.ConditionDamaged:
		return 1
	default:
		return 0
	}
}

func statusScore(s bicycle.Status) int {
	switch {
	case s.Is(bicycle.StatusAvailable):
		return 2
	case s.Is(bicycle.StatusRented):
		return 1
	default: // Under Maintenance and anything unknown
		return 0
	}
}

// recencyFactor decays linearly over a year from the last use. Rows without
// any rental date get 0.
func recencyFactor(row catalog.UsageRow, today calendar.Date) float64 {
	var lastUsed calendar.Date
	switch {
	case row.ReturnDate.Valid:
		lastUsed = row.ReturnDate.Date
	case row.RentalDate.Valid:
		lastUsed = row.RentalDate.Date
	default:
		return 0
	}
	daysSince := float64(today.DaysSince(lastUsed))
	factor := 1 - daysSince/daysPerYear
	if factor < 0 {
		return 0
	}
	return factor
}

type frequencyKey struct {
	Type  string
	Brand string
}

// Score scores every row in input order.
func (s *RecommendationScorer) Score(rows []catalog.UsageRow, today calendar.Date) []ScoredUsage {
	frequency := make(map[frequencyKey]int, len(rows))
	for _, row := range rows {
		frequency[frequencyKey{Type: row.Type, Brand: row.Brand}]++
	}

	scored := make([]ScoredUsage, 0, len(rows))
	for _, row := range rows {
		su := ScoredUsage{
			Row:             row,
			ConditionScore:  conditionScore(row.Condition),
			StatusScore:     statusScore(row.Status),
			RecencyFactor:   recencyFactor(row, today),
			RentalFrequency: frequency[frequencyKey{Type: row.Type, Brand: row.Brand}],
		}
		su.DurabilityScore = float64(su.ConditionScore+su.StatusScore) * su.RecencyFactor

		if row.DateOfPurchase.Valid {
			su.BikeAge = float64(today.DaysSince(row.DateOfPurchase.Date)) / daysPerYear
			su.HasAge = true
			su.Score = s.weights.RentalFrequency*float64(su.RentalFrequency) +
				s.weights.Durability*su.DurabilityScore -
				s.weights.Age*su.BikeAge
			su.HasScore = true
		}
		scored = append(scored, su)
	}
	return scored
}

// GroupKey identifies a recommendation group.
type GroupKey struct {
	InventoryID int64
	Brand       string
	Type        string
}

// Recommendation is one aggregated group. Entry is the matching catalog item, if any.
type Recommendation struct {
	GroupKey
	Score           float64
	DurabilityScore float64
	RentalFrequency int
	Entry           *catalog.Entry
}

type groupAcc struct {
	rec      Recommendation
	hasScore bool
}

// aggregate reduces scored rows per group in first-appearance order. better
// reports whether a candidate value should replace the current aggregate.
func aggregate(scored []ScoredUsage, better func(candidate, current float64) bool) []groupAcc {
	index := make(map[GroupKey]int)
	groups := make([]groupAcc, 0)

	for _, su := range scored {
		key := GroupKey{InventoryID: su.Row.InventoryID, Brand: su.Row.Brand, Type: su.Row.Type}
		i, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, groupAcc{rec: Recommendation{
				GroupKey:        key,
				DurabilityScore: su.DurabilityScore,
				RentalFrequency: su.RentalFrequency,
			}})
			i = len(groups) - 1
		}
		g := &groups[i]
		if better(su.DurabilityScore, g.rec.DurabilityScore) {
			g.rec.DurabilityScore = su.DurabilityScore
		}
		if better(float64(su.RentalFrequency), float64(g.rec.RentalFrequency)) {
			g.rec.RentalFrequency = su.RentalFrequency
		}
		if su.HasScore && (!g.hasScore || better(su.Score, g.rec.Score)) {
			g.rec.Score = su.Score
			g.hasScore = true
		}
	}
	return groups
}

func rank(groups []groupAcc, n int, before func(a, b float64) bool) []Recommendation {
	if n <= 0 {
		return []Recommendation{}
	}
	ranked := make([]Recommendation, 0, len(groups))
	for _, g := range groups {
		if g.hasScore {
			ranked = append(ranked, g.rec)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return before(ranked[i].Score, ranked[j].Score) })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopRecommendations ranks groups by their best score, highest first.
func TopRecommendations(scored []ScoredUsage, n int) []Recommendation {
	groups := aggregate(scored, func(c, cur float64) bool { return c > cur })
	return rank(groups, n, func(a, b float64) bool { return a > b })
}

// BottomRecommendations ranks groups by their worst score, lowest first.
func BottomRecommendations(scored []ScoredUsage, n int) []Recommendation {
	groups := aggregate(scored, func(c, cur float64) bool { return c < cur })
	return rank(groups, n, func(a, b float64) bool { return a < b })
}

// attachEntries links each recommendation to its catalog entry by InventoryID.
func attachEntries(recs []Recommendation, entries []catalog.Entry) {
	byID := make(map[int64]*catalog.Entry, len(entries))
	for i := range entries {
		if _, ok := byID[entries[i].InventoryID]; !ok {
			byID[entries[i].InventoryID] = &entries[i]
		}
	}
	for i := range recs {
		recs[i].Entry = byID[recs[i].InventoryID]
	}
}

// PurchaseCandidates picks catalog entries never seen in the fleet history that
// share Brand and Type with a recommendation, in recommendation order, each once.
func PurchaseCandidates(recs []Recommendation, entries []catalog.Entry, history []catalog.UsageRow) []catalog.Entry {
	inUse := make(map[int64]struct{}, len(history))
	for _, row := range history {
		inUse[row.InventoryID] = struct{}{}
	}

	seen := make(map[int64]struct{})
	candidates := make([]catalog.Entry, 0)
	for _, rec := range recs {
		for _, e := range entries {
			if e.Brand != rec.Brand || e.Type != rec.Type {
				continue
			}
			if _, used := inUse[e.InventoryID]; used {
				continue
			}
			if _, dup := seen[e.InventoryID]; dup {
				continue
			}
			seen[e.InventoryID] = struct{}{}
			candidates = append(candidates, e)
		}
	}
	return candidates
}

// Allocation statuses.
const (
	AllocationStatusSuccess      = "Successful purchase recommendations within budget."
	AllocationStatusNoCandidates = "no candidates"
)

// allocationStep is the number of units each pass tries to add per candidate.
const allocationStep = 1

// AllocationLine is the number of units bought of one candidate.
type AllocationLine struct {
	Entry catalog.Entry
	Units int64
	Spent decimal.Decimal
}

// Allocation is the result of spreading a budget over candidates.
type Allocation struct {
	Lines      []AllocationLine
	TotalSpent decimal.Decimal
	Remaining  decimal.Decimal
	Status     string
}

// BudgetAllocator spreads a purchase budget over a ranked candidate list.
type BudgetAllocator struct{}

// Allocate walks the candidates in order, buying one more unit of each while it
// is affordable, and repeats full passes until a pass buys nothing. Candidates
// without a positive price are never bought. TotalSpent never exceeds budget.
func (BudgetAllocator) Allocate(candidates []catalog.Entry, budget decimal.Decimal) Allocation {
	if len(candidates) == 0 {
		return Allocation{
			Lines:      []AllocationLine{},
			TotalSpent: decimal.Zero,
			Remaining:  budget,
			Status:     AllocationStatusNoCandidates,
		}
	}

	lines := make([]AllocationLine, len(candidates))
	for i, c := range candidates {
		lines[i] = AllocationLine{Entry: c, Spent: decimal.Zero}
	}

	step := decimal.NewFromInt(allocationStep)
	remaining := budget
	for remaining.IsPositive() {
		passSpent := decimal.Zero
		for i := range lines {
			price := lines[i].Entry.Price
			if !price.IsPositive() {
				continue
			}
			units := int64(allocationStep)
			cost := price.Mul(step)
			if remaining.LessThan(cost) {
				units = remaining.Div(price).Floor().IntPart()
				cost = price.Mul(decimal.NewFromInt(units))
			}
			if units <= 0 {
				continue
			}
			lines[i].Units += units
			lines[i].Spent = lines[i].Spent.Add(cost)
			remaining = remaining.Sub(cost)
			passSpent = passSpent.Add(cost)
		}
		if passSpent.IsZero() {
			break
		}
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Spent)
	}
	return Allocation{
		Lines:      lines,
		TotalSpent: total,
		Remaining:  budget.Sub(total),
		Status:     AllocationStatusSuccess,
	}
}
