// Package policy implements the data model (§3) and two-pass rule engine
// (§4.7) that lift a base decision under the monotone allow/confirm/deny
// lattice, accumulate obligations, and surface a reason code and matched
// rule set.
package policy

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Decision is a point in the total order allow (0) < confirm (1) < deny
// (2). Combination is max — associative, commutative, idempotent (§3).
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionConfirm
	DecisionDeny
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionConfirm:
		return "confirm"
	case DecisionDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// ParseDecision resolves a decision string; "" resolves to allow. Unknown
// values return ok == false and each caller picks its own fallback
// (BaselineDecision uses confirm) — callers that need to reject an unknown
// action value entirely
// (§7: unknown action fails SchemaViolation) do that check before calling
// this, at the Rule-validation boundary.
func ParseDecision(s string) (Decision, bool) {
	switch s {
	case "allow", "":
		return DecisionAllow, true
	case "confirm":
		return DecisionConfirm, true
	case "deny":
		return DecisionDeny, true
	default:
		return DecisionAllow, false
	}
}

func maxDecision(a, b Decision) Decision {
	if a > b {
		return a
	}
	return b
}

// MarshalJSON renders a Decision as its lowercase name, per §6.
func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parses a Decision from its lowercase name.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseDecision(s)
	if !ok {
		return fmt.Errorf("policy: unknown decision %q", s)
	}
	*d = parsed
	return nil
}

// Obligations is the recursive tagged variant of §9: a mapping whose
// values may be scalars, sequences, or nested mappings, so deep-merge is
// well-defined. Sequences always replace — they are never concatenated.
type Obligations map[string]interface{}

// Rule is one entry of the constitution's ordered rule list (§3).
type Rule struct {
	ID            string
	When          *When
	Action        string // "allow" | "confirm" | "deny", default "allow"
	AllowIf       *AllowIf
	Otherwise     *Otherwise
	Require       Obligations
	AllowOverride map[string]interface{}
}

// When is the match predicate of §4.7. A nil field is a wildcard; all
// present fields AND together.
type When struct {
	Tool                *string
	ToolAnyOf           []string
	RiskAtLeast         *string // risk level name
	ClassificationAnyOf []string
	DecisionField       *string // matches against the running decision
}

// AllowIf is the conditional exemption of §4.7.
type AllowIf struct {
	PathPrefixAny []string
	// Unspecified fields are always-satisfied per §9 Open Question (a).
}

// Otherwise names the decision taken when AllowIf is present but fails.
// Defaults to "confirm".
type Otherwise struct {
	Action string
}

// Defaults holds the constitution's baseline policy (§3).
type Defaults struct {
	ToolPolicy string // "allow" | "confirm" | "deny", default "confirm"
}

// Egress holds the constitution's allowlisted domains (§3).
type Egress struct {
	AllowlistDomains []string
}

// Constitution is the immutable policy document of §3.
type Constitution struct {
	Defaults Defaults
	Egress   Egress
	Rules    []Rule
	DocHash  *string // opaque self-reference, §3/§4.8
}

// BaselineDecision returns defaults.tool_policy, defaulting to confirm if
// absent (§3, §7: an absent/empty constitution baselines to confirm).
func (c *Constitution) BaselineDecision() Decision {
	if c == nil {
		return DecisionConfirm
	}
	d, ok := ParseDecision(c.Defaults.ToolPolicy)
	if !ok {
		return DecisionConfirm
	}
	if c.Defaults.ToolPolicy == "" {
		return DecisionConfirm
	}
	return d
}

// Intent holds the recognized keys of §3.
type Intent struct {
	Present              bool
	UserRequested        *bool
	ExplicitConfirmation bool
	Workspace            string
}

// Call is one proposed tool invocation (§3).
type Call struct {
	Tool        string
	Args        map[string]interface{}
	SessionKind string // default "main"
	Intent      Intent
}

// EvalResult is the pure output of one evaluation (§3).
type EvalResult struct {
	Decision        Decision    `json:"decision"`
	ReasonCode      string      `json:"reason_code,omitempty"`
	Risk            string      `json:"risk"`
	Classifications []string    `json:"classifications"`
	Obligations     Obligations `json:"obligations"`
	ScopeHash       *string     `json:"scope_hash,omitempty"` // present iff Decision == Confirm
	MatchedRules    []string    `json:"matched_rules"`
}

// Explain renders a one-line human-readable summary of the result — an
// audit convenience, never consulted by the engine itself.
func (r *EvalResult) Explain() string {
	reason := r.ReasonCode
	if reason == "" {
		reason = "(baseline)"
	}
	out := r.Decision.String() + " [" + reason + "] risk=" + r.Risk
	if len(r.MatchedRules) > 0 {
		out += " matched=" + joinSorted(r.MatchedRules)
	}
	return out
}

func joinSorted(s []string) string {
	cp := append([]string{}, s...)
	sort.Strings(cp)
	out := ""
	for i, v := range cp {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}
