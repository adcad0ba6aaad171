// Package policy provides budget policy evaluation for search results
package policy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"menucost/decision/search"
)

// PolicyType defines the type of policy
type PolicyType string

const (
	PolicyTypePriceLimit PolicyType = "price_limit"
)

// Severity defines policy violation severity
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Decision is the policy evaluation outcome
type Decision string

const (
	DecisionPass Decision = "pass"
	DecisionWarn Decision = "warn"
	DecisionDeny Decision = "deny"
)

// Policy defines a budget rule applied to a search result
type Policy struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      PolicyType      `json:"type"`
	Severity  Severity        `json:"severity"`
	Threshold decimal.Decimal `json:"threshold"`
	Enabled   bool            `json:"enabled"`
}

// Violation represents a policy violation
type Violation struct {
	PolicyID   string `json:"policy_id"`
	PolicyName string `json:"policy_name"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
}

// Warning represents a policy warning
type Warning struct {
	PolicyID string `json:"policy_id"`
	Message  string `json:"message"`
}

// EvaluationResult contains the policy evaluation outcome
type EvaluationResult struct {
	Decision    Decision    `json:"decision"`
	Violations  []Violation `json:"violations"`
	Warnings    []Warning   `json:"warnings"`
	PoliciesRan int         `json:"policies_ran"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}

// Engine evaluates policies against search results
type Engine struct {
	policies []Policy
}

// NewEngine creates a new policy engine with no policies installed
func NewEngine() *Engine {
	return &Engine{policies: make([]Policy, 0)}
}

// AddPolicy adds a policy to the engine
func (e *Engine) AddPolicy(p Policy) {
	e.policies = append(e.policies, p)
}

// Evaluate runs all enabled policies against the search result
func (e *Engine) Evaluate(result *search.Result) *EvaluationResult {
	out := &EvaluationResult{
		Decision:    DecisionPass,
		Violations:  make([]Violation, 0),
		Warnings:    make([]Warning, 0),
		EvaluatedAt: time.Now(),
	}

	for _, p := range e.policies {
		if !p.Enabled {
			continue
		}
		out.PoliciesRan++

		switch p.Type {
		case PolicyTypePriceLimit:
			if result.Price.GreaterThan(p.Threshold) {
				e.record(out, p, fmt.Sprintf("price $%s exceeds limit $%s",
					result.Price.StringFixed(2), p.Threshold.StringFixed(2)))
			}
		}
	}

	return out
}

func (e *Engine) record(out *EvaluationResult, p Policy, msg string) {
	if p.Severity == SeverityWarning {
		out.Warnings = append(out.Warnings, Warning{PolicyID: p.ID, Message: msg})
		if out.Decision == DecisionPass {
			out.Decision = DecisionWarn
		}
		return
	}
	out.Violations = append(out.Violations, Violation{
		PolicyID:   p.ID,
		PolicyName: p.Name,
		Message:    msg,
		Severity:   string(p.Severity),
	})
	out.Decision = DecisionDeny
}
