package policy

import (
	"testing"

	"github.com/shopspring/decimal"

	"menucost/decision/search"
)

func priceLimit(threshold string, sev Severity) Policy {
	return Policy{
		ID:        "test-limit",
		Name:      "Price Limit",
		Type:      PolicyTypePriceLimit,
		Severity:  sev,
		Threshold: decimal.RequireFromString(threshold),
		Enabled:   true,
	}
}

func TestEvaluatePass(t *testing.T) {
	engine := NewEngine()
	engine.AddPolicy(priceLimit("10.00", SeverityError))

	result := engine.Evaluate(&search.Result{Price: decimal.RequireFromString("7.50")})
	if result.Decision != DecisionPass {
		t.Errorf("expected pass, got %s", result.Decision)
	}
	if len(result.Violations) != 0 {
		t.Errorf("expected no violations, got %v", result.Violations)
	}
	if result.PoliciesRan != 1 {
		t.Errorf("expected 1 policy ran, got %d", result.PoliciesRan)
	}
}

func TestEvaluateDeny(t *testing.T) {
	engine := NewEngine()
	engine.AddPolicy(priceLimit("5.00", SeverityError))

	result := engine.Evaluate(&search.Result{Price: decimal.RequireFromString("7.50")})
	if result.Decision != DecisionDeny {
		t.Errorf("expected deny, got %s", result.Decision)
	}
	if len(result.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result.Violations))
	}
}

func TestEvaluateWarningSeverity(t *testing.T) {
	engine := NewEngine()
	engine.AddPolicy(priceLimit("5.00", SeverityWarning))

	result := engine.Evaluate(&search.Result{Price: decimal.RequireFromString("7.50")})
	if result.Decision != DecisionWarn {
		t.Errorf("expected warn, got %s", result.Decision)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(result.Warnings))
	}
	if len(result.Violations) != 0 {
		t.Errorf("warnings must not produce violations")
	}
}

func TestEvaluateExactThresholdPasses(t *testing.T) {
	engine := NewEngine()
	engine.AddPolicy(priceLimit("7.50", SeverityError))

	result := engine.Evaluate(&search.Result{Price: decimal.RequireFromString("7.50")})
	if result.Decision != DecisionPass {
		t.Errorf("price equal to limit should pass, got %s", result.Decision)
	}
}

func TestEvaluateSkipsDisabledPolicies(t *testing.T) {
	engine := NewEngine()
	p := priceLimit("5.00", SeverityError)
	p.Enabled = false
	engine.AddPolicy(p)

	result := engine.Evaluate(&search.Result{Price: decimal.RequireFromString("7.50")})
	if result.PoliciesRan != 0 {
		t.Errorf("disabled policy should not run")
	}
	if result.Decision != DecisionPass {
		t.Errorf("expected pass, got %s", result.Decision)
	}
}
