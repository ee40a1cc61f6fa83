// Package query implements the filter/match/score engine over a snapshot
// store: clause evaluation, fuzzy text scoring, synonym expansion, and
// ranking.
package query

import (
	"encoding/json"
	"fmt"

	"github.com/Aman-CERP/uiground/internal/snapshot"
)

// MatchType selects how a text filter compares its value.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchFuzzy    MatchType = "fuzzy"
	MatchRegex    MatchType = "regex"
)

// Clause is one filter predicate in a query's where list. The concrete
// variants form a closed set; decoding an unrecognized clause yields
// UnknownClause, which matches every record (fail-open).
type Clause interface {
	clauseName() string
}

// RoleClause matches records whose role is any of the listed roles.
type RoleClause struct {
	Roles []snapshot.Role
}

func (RoleClause) clauseName() string { return "role" }

// StateClause matches records whose state bits agree with every specified
// sub-field. Nil sub-fields are ignored.
type StateClause struct {
	Visible  *bool `json:"visible,omitempty"`
	Enabled  *bool `json:"enabled,omitempty"`
	Checked  *bool `json:"checked,omitempty"`
	Expanded *bool `json:"expanded,omitempty"`
	Focused  *bool `json:"focused,omitempty"`
	Selected *bool `json:"selected,omitempty"`
}

func (StateClause) clauseName() string { return "state" }

// TextFilter is the shared shape of name and in_context clauses.
type TextFilter struct {
	Match MatchType `json:"match"`
	Value string    `json:"value"`
}

// NameClause matches against the record's accessible name.
type NameClause struct {
	TextFilter
}

func (NameClause) clauseName() string { return "name" }

// ContextClause matches against the space-joined context list.
type ContextClause struct {
	TextFilter
}

func (ContextClause) clauseName() string { return "in_context" }

// AttrClause matches one named attribute's value. Match defaults to exact.
type AttrClause struct {
	Name  string     `json:"name"`
	Value string     `json:"value"`
	Match *MatchType `json:"match,omitempty"`
}

func (AttrClause) clauseName() string { return "attr" }

// NearClause matches records whose rect center lies within Radius of a
// target point, resolved from TargetID or from the first record whose name
// contains Text. With no resolvable target it matches nothing.
type NearClause struct {
	TargetID *uint32 `json:"target_id,omitempty"`
	Text     *string `json:"text,omitempty"`
	Radius   float64 `json:"radius"`
}

func (NearClause) clauseName() string { return "near" }

// DefaultNearRadius is the match radius used when a near clause omits one.
const DefaultNearRadius = 200.0

// NthClause is a post-filter disambiguator. Its defined behavior is a
// pass-through that matches every record; selecting only the nth result is
// an unresolved ambiguity in the query vocabulary and is intentionally not
// implemented here.
type NthClause struct {
	N int
}

func (NthClause) clauseName() string { return "nth" }

// UnknownClause is the fail-open stand-in for an unrecognized clause.
type UnknownClause struct{}

func (UnknownClause) clauseName() string { return "unknown" }

// OrderBy names the sort field (score, x, y) and direction (asc, desc).
type OrderBy struct {
	Field     string `json:"field,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// Semantic configures optional semantic re-ranking of a query.
type Semantic struct {
	Enabled   bool    `json:"enabled"`
	Text      string  `json:"text,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	TopK      int     `json:"topK,omitempty"`
}

// AST is a parsed query: conjunctive where clauses plus ordering and
// pagination.
type AST struct {
	Select   string    `json:"select,omitempty"`
	Where    []Clause  `json:"-"`
	OrderBy  []OrderBy `json:"orderBy,omitempty"`
	Limit    *int      `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
	Semantic *Semantic `json:"semantic,omitempty"`
}

// DefaultLimit caps results when a query does not specify a limit.
const DefaultLimit = 10

// rawAST mirrors AST with the where list left undecoded.
type rawAST struct {
	Select   string            `json:"select"`
	Where    []json.RawMessage `json:"where"`
	OrderBy  []OrderBy         `json:"orderBy"`
	Limit    *int              `json:"limit"`
	Offset   int               `json:"offset"`
	Semantic *Semantic         `json:"semantic"`
}

// UnmarshalJSON decodes the tagged clause union by probing which key each
// where entry carries.
func (a *AST) UnmarshalJSON(data []byte) error {
	var raw rawAST
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Select = raw.Select
	a.OrderBy = raw.OrderBy
	a.Limit = raw.Limit
	a.Offset = raw.Offset
	a.Semantic = raw.Semantic
	a.Where = a.Where[:0]
	for i, entry := range raw.Where {
		clause, err := decodeClause(entry)
		if err != nil {
			return fmt.Errorf("where[%d]: %w", i, err)
		}
		a.Where = append(a.Where, clause)
	}
	return nil
}

// Parse decodes a JSON query document into an AST.
func Parse(data []byte) (*AST, error) {
	var ast AST
	if err := json.Unmarshal(data, &ast); err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return &ast, nil
}

func decodeClause(data json.RawMessage) (Clause, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("clause is not an object: %w", err)
	}

	switch {
	case keys["role"] != nil:
		return decodeRoleClause(keys["role"])
	case keys["state"] != nil:
		var c StateClause
		if err := json.Unmarshal(keys["state"], &c); err != nil {
			return nil, fmt.Errorf("state clause: %w", err)
		}
		return c, nil
	case keys["name"] != nil:
		var c NameClause
		if err := json.Unmarshal(keys["name"], &c.TextFilter); err != nil {
			return nil, fmt.Errorf("name clause: %w", err)
		}
		return c, nil
	case keys["in_context"] != nil:
		var c ContextClause
		if err := json.Unmarshal(keys["in_context"], &c.TextFilter); err != nil {
			return nil, fmt.Errorf("in_context clause: %w", err)
		}
		return c, nil
	case keys["attr"] != nil:
		var c AttrClause
		if err := json.Unmarshal(keys["attr"], &c); err != nil {
			return nil, fmt.Errorf("attr clause: %w", err)
		}
		return c, nil
	case keys["near"] != nil:
		// An absent or zero radius stays zero; the executor substitutes
		// its configured default at evaluation time.
		var c NearClause
		if err := json.Unmarshal(keys["near"], &c); err != nil {
			return nil, fmt.Errorf("near clause: %w", err)
		}
		return c, nil
	case keys["nth"] != nil:
		var c NthClause
		if err := json.Unmarshal(keys["nth"], &c.N); err != nil {
			return nil, fmt.Errorf("nth clause: %w", err)
		}
		return c, nil
	default:
		// Fail-open: an unrecognized clause matches everything rather
		// than failing the whole query.
		return UnknownClause{}, nil
	}
}

// decodeRoleClause accepts either a single role string or a list of roles.
func decodeRoleClause(data json.RawMessage) (Clause, error) {
	var single snapshot.Role
	if err := json.Unmarshal(data, &single); err == nil {
		return RoleClause{Roles: []snapshot.Role{single}}, nil
	}
	var many []snapshot.Role
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("role clause: %w", err)
	}
	return RoleClause{Roles: many}, nil
}

// Explain records which filters were applied and how long execution took.
type Explain struct {
	CandidatesConsidered int      `json:"candidatesConsidered"`
	FiltersApplied       []string `json:"filtersApplied"`
	ExecutionTimeMs      float64  `json:"executionTimeMs"`
}

// Result is the full outcome of a query: ranked matches, the pre-pagination
// candidate total, and execution diagnostics.
type Result struct {
	Matches []snapshot.Match `json:"matches"`
	Total   int              `json:"total"`
	Explain Explain          `json:"explain"`
}
