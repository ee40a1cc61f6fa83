package query

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Aman-CERP/uiground/internal/snapshot"
)

// Ranking score weights. The base score is nudged by how well each clause
// matched, plus two record-level heuristics: a stable test id signals an
// element the page author considers important, and elements near the top of
// the viewport are more likely to be primary content.
const (
	scoreBase          = 0.5
	scoreNameWeight    = 0.3
	scoreContextWeight = 0.2
	scoreRoleBoost     = 0.1
	scoreStateBoost    = 0.05
	scoreTestIDBoost   = 0.1
	scorePositionBoost = 0.05

	// primaryContentY is the viewport y threshold for the position boost.
	primaryContentY = 300
)

// Executor evaluates queries against a snapshot store.
type Executor struct {
	store  *snapshot.Store
	logger *slog.Logger

	defaultLimit int
	nearRadius   float64
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithDefaultLimit overrides the result cap applied when a query sets no
// limit.
func WithDefaultLimit(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithNearRadius overrides the pixel radius applied when a near clause
// omits one.
func WithNearRadius(r float64) ExecutorOption {
	return func(e *Executor) {
		if r > 0 {
			e.nearRadius = r
		}
	}
}

// NewExecutor creates an executor over the given store.
func NewExecutor(store *snapshot.Store, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:        store,
		logger:       slog.Default(),
		defaultLimit: DefaultLimit,
		nearRadius:   DefaultNearRadius,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the query: each where clause computes a match set which is
// intersected into the candidate set (the first clause seeds it), surviving
// candidates are scored and sorted, and pagination is applied last.
func (e *Executor) Execute(ast *AST) *Result {
	start := time.Now()
	view := e.store.Snapshot()

	var filtersApplied []string

	// All positions are candidates until the first clause narrows them.
	candidates := make(map[int]struct{}, len(view.Records))
	for i := range view.Records {
		candidates[i] = struct{}{}
	}

	first := true
	for _, clause := range ast.Where {
		filtered := e.applyClause(view, clause, &filtersApplied)
		if first {
			candidates = filtered
			first = false
			continue
		}
		for idx := range candidates {
			if _, ok := filtered[idx]; !ok {
				delete(candidates, idx)
			}
		}
	}

	scored := make([]scoredPos, 0, len(candidates))
	for idx := range candidates {
		scored = append(scored, scoredPos{idx, e.scoreCandidate(view, idx, ast)})
	}

	sortScored(scored, view.Records, ast.OrderBy)

	total := len(scored)

	offset := ast.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(scored) {
		offset = len(scored)
	}
	limit := e.defaultLimit
	if ast.Limit != nil && *ast.Limit >= 0 {
		limit = *ast.Limit
	}
	end := offset + limit
	if end > len(scored) {
		end = len(scored)
	}
	page := scored[offset:end]

	matches := make([]snapshot.Match, 0, len(page))
	for _, sp := range page {
		matches = append(matches, recordToMatch(&view.Records[sp.pos], sp.score))
	}

	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	e.logger.Debug("query executed",
		slog.Int("total", total),
		slog.Int("returned", len(matches)),
		slog.Float64("ms", elapsed))

	return &Result{
		Matches: matches,
		Total:   total,
		Explain: Explain{
			CandidatesConsidered: total,
			FiltersApplied:       filtersApplied,
			ExecutionTimeMs:      elapsed,
		},
	}
}

type scoredPos struct {
	pos   int
	score float64
}

// applyClause computes the set of record positions matched by one clause.
func (e *Executor) applyClause(view snapshot.View, clause Clause, filtersApplied *[]string) map[int]struct{} {
	result := make(map[int]struct{})

	switch c := clause.(type) {
	case RoleClause:
		names := make([]string, 0, len(c.Roles))
		for _, r := range c.Roles {
			names = append(names, string(r))
			for _, idx := range view.RoleIndex[r] {
				result[idx] = struct{}{}
			}
		}
		*filtersApplied = append(*filtersApplied, fmt.Sprintf("role=%s", strings.Join(names, "|")))

	case StateClause:
		for idx := range view.Records {
			if stateMatches(view.Records[idx].StateBits, c) {
				result[idx] = struct{}{}
			}
		}
		*filtersApplied = append(*filtersApplied, fmt.Sprintf("state(%s)", describeState(c)))

	case NameClause:
		*filtersApplied = append(*filtersApplied, fmt.Sprintf("name(%s:%s)", c.Match, c.Value))
		patterns := expandPatterns(splitAlternatives(c.Value))
		for idx := range view.Records {
			if MatchText(view.Records[idx].Name, patterns, c.Match) {
				result[idx] = struct{}{}
			}
		}

	case ContextClause:
		*filtersApplied = append(*filtersApplied, fmt.Sprintf("context(%s:%s)", c.Match, c.Value))
		patterns := splitAlternatives(c.Value)
		for idx := range view.Records {
			joined := strings.Join(view.Records[idx].Context, " ")
			if MatchText(joined, patterns, c.Match) {
				result[idx] = struct{}{}
			}
		}

	case AttrClause:
		matchType := MatchExact
		if c.Match != nil {
			matchType = *c.Match
		}
		*filtersApplied = append(*filtersApplied, fmt.Sprintf("attr(%s=%s)", c.Name, c.Value))
		for idx := range view.Records {
			if v, ok := view.Records[idx].Attrs[c.Name]; ok {
				if MatchText(v, []string{c.Value}, matchType) {
					result[idx] = struct{}{}
				}
			}
		}

	case NearClause:
		if c.Radius <= 0 {
			c.Radius = e.nearRadius
		}
		*filtersApplied = append(*filtersApplied, describeNear(c))
		tx, ty, ok := resolveNearTarget(view.Records, c)
		if !ok {
			// No target resolved: the clause matches nothing.
			break
		}
		for idx := range view.Records {
			rect := view.Records[idx].Rect
			dx := rect.CenterX() - tx
			dy := rect.CenterY() - ty
			if math.Sqrt(dx*dx+dy*dy) <= c.Radius {
				result[idx] = struct{}{}
			}
		}

	case NthClause:
		*filtersApplied = append(*filtersApplied, "nth")
		// Pass-through: nth does not narrow the candidate set.
		for idx := range view.Records {
			result[idx] = struct{}{}
		}

	default:
		// Fail-open for unrecognized clauses.
		*filtersApplied = append(*filtersApplied, "unknown")
		for idx := range view.Records {
			result[idx] = struct{}{}
		}
	}

	return result
}

// splitAlternatives splits a filter value on | into trimmed, lowercased
// alternatives.
func splitAlternatives(value string) []string {
	parts := strings.Split(value, "|")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		patterns = append(patterns, strings.ToLower(strings.TrimSpace(p)))
	}
	return patterns
}

func stateMatches(bits snapshot.StateBits, c StateClause) bool {
	check := func(want *bool, flag snapshot.StateBits) bool {
		return want == nil || bits.Has(flag) == *want
	}
	return check(c.Visible, snapshot.StateVisible) &&
		check(c.Enabled, snapshot.StateEnabled) &&
		check(c.Checked, snapshot.StateChecked) &&
		check(c.Expanded, snapshot.StateExpanded) &&
		check(c.Focused, snapshot.StateFocused) &&
		check(c.Selected, snapshot.StateSelected)
}

func describeState(c StateClause) string {
	var parts []string
	add := func(name string, v *bool) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%t", name, *v))
		}
	}
	add("visible", c.Visible)
	add("enabled", c.Enabled)
	add("checked", c.Checked)
	add("expanded", c.Expanded)
	add("focused", c.Focused)
	add("selected", c.Selected)
	return strings.Join(parts, ",")
}

func describeNear(c NearClause) string {
	switch {
	case c.TargetID != nil:
		return fmt.Sprintf("near(id=%d, r=%g)", *c.TargetID, c.Radius)
	case c.Text != nil:
		return fmt.Sprintf("near(%q, r=%g)", *c.Text, c.Radius)
	default:
		return fmt.Sprintf("near(r=%g)", c.Radius)
	}
}

// resolveNearTarget finds the anchor point for a near clause: the center of
// the record with TargetID, or of the first record whose name contains Text.
func resolveNearTarget(records []snapshot.Record, c NearClause) (x, y float64, ok bool) {
	if c.TargetID != nil {
		for i := range records {
			if records[i].ID == *c.TargetID {
				return records[i].Rect.CenterX(), records[i].Rect.CenterY(), true
			}
		}
		return 0, 0, false
	}
	if c.Text != nil {
		needle := strings.ToLower(*c.Text)
		for i := range records {
			if strings.Contains(strings.ToLower(records[i].Name), needle) {
				return records[i].Rect.CenterX(), records[i].Rect.CenterY(), true
			}
		}
	}
	return 0, 0, false
}

// scoreCandidate ranks one surviving candidate against the query.
func (e *Executor) scoreCandidate(view snapshot.View, idx int, ast *AST) float64 {
	rec := &view.Records[idx]
	score := scoreBase

	for _, clause := range ast.Where {
		switch c := clause.(type) {
		case NameClause:
			score += FuzzyScore(c.Value, rec.Name) * scoreNameWeight
		case ContextClause:
			score += FuzzyScore(c.Value, strings.Join(rec.Context, " ")) * scoreContextWeight
		case RoleClause:
			for _, r := range c.Roles {
				if r == rec.Role {
					score += scoreRoleBoost
					break
				}
			}
		case StateClause:
			score += scoreStateBoost
		}
	}

	if _, ok := rec.TestID(); ok {
		score += scoreTestIDBoost
	}
	if rec.Rect.Y < primaryContentY {
		score += scorePositionBoost
	}

	return math.Min(score, 1.0)
}

// sortScored orders candidates by the requested field, defaulting to score
// descending. Unknown fields also fall back to score descending.
func sortScored(scored []scoredPos, records []snapshot.Record, orderBy []OrderBy) {
	field := "score"
	desc := true
	if len(orderBy) > 0 {
		if orderBy[0].Field != "" {
			field = orderBy[0].Field
		}
		desc = orderBy[0].Direction != "asc"
	}

	var less func(a, b scoredPos) bool
	switch field {
	case "x":
		less = func(a, b scoredPos) bool {
			return records[a.pos].Rect.X < records[b.pos].Rect.X
		}
	case "y":
		less = func(a, b scoredPos) bool {
			return records[a.pos].Rect.Y < records[b.pos].Rect.Y
		}
	default:
		less = func(a, b scoredPos) bool { return a.score < b.score }
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if desc {
			return less(scored[j], scored[i])
		}
		return less(scored[i], scored[j])
	})
}

// recordToMatch projects a record plus its ranking score into a Match,
// rounding the score to two decimals.
func recordToMatch(rec *snapshot.Record, score float64) snapshot.Match {
	return snapshot.Match{
		ID:            rec.ID,
		Score:         math.Round(score*100) / 100,
		Role:          rec.Role,
		Name:          rec.Name,
		States:        snapshot.DeriveStates(rec),
		Context:       rec.Context,
		Actionability: snapshot.DeriveActionability(rec),
		Rect:          rec.Rect,
		Record:        rec,
	}
}
