package policy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/classify"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnv expands ${VAR} references against env, leaving any
// undefined variable literal in the output (§6).
func substituteEnv(s string, env map[string]string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := env[name]; ok {
			return v
		}
		return match
	})
}

var riskLevelOrder = map[string]classify.Risk{
	"low":      classify.RiskLow,
	"medium":   classify.RiskMedium,
	"high":     classify.RiskHigh,
	"critical": classify.RiskCritical,
}

// Input bundles everything the engine needs beyond the Constitution and
// Call: the already-classified risk and tag set, and the environment used
// to resolve ${VAR} references in allow_if.path_prefix_any.
type Input struct {
	Risk            classify.Risk
	Classifications map[string]bool
	Env             map[string]string
}

// passResult is the internal bookkeeping for one engine pass.
type passResult struct {
	decision       Decision
	firstAtLevel   map[Decision]string
	obligations    Obligations
	matchedRuleIDs []string
}

// Evaluate runs the two-pass rule engine of §4.7 and returns a complete
// EvalResult (less the scope hash, which the evaluator facade attaches
// once the decision is known).
func Evaluate(c *Constitution, call Call, in Input) EvalResult {
	baseline := c.BaselineDecision()

	pass1 := runPass(c, call, in, baseline)
	pass2 := runPass(c, call, in, pass1.decision)

	final := maxDecision(pass1.decision, pass2.decision)

	reasonCode := pass1.firstAtLevel[final]
	if reasonCode == "" {
		reasonCode = pass2.firstAtLevel[final]
	}

	obligations := MergeObligations(pass1.obligations, pass2.obligations)
	matched := mergeUniqueSorted(pass1.matchedRuleIDs, pass2.matchedRuleIDs)
	classifications := classify.SortedTags(toTagMap(in.Classifications))

	return EvalResult{
		Decision:        final,
		ReasonCode:      reasonCode,
		Risk:            in.Risk.String(),
		Classifications: classifications,
		Obligations:     obligations,
		MatchedRules:    matched,
	}
}

// runPass executes one sweep over the ordered rule list, starting the
// running decision at start. when.decision predicates match against the
// *live* running decision as it stands at the time each rule is reached,
// so a rule appearing after the one that raises the decision already sees
// it within a single pass — pass 2 exists only to resolve the backward
// case, by starting where pass 1 left off (§4.7, "why two passes").
func runPass(c *Constitution, call Call, in Input, start Decision) passResult {
	res := passResult{
		decision:     start,
		firstAtLevel: map[Decision]string{},
		obligations:  Obligations{},
	}

	if c == nil {
		return res
	}

	for _, rule := range c.Rules {
		if !matchWhen(rule.When, call, in, res.decision) {
			continue
		}
		res.matchedRuleIDs = append(res.matchedRuleIDs, rule.ID)

		var ruleDecision Decision
		if rule.AllowIf != nil && pathPrefixSatisfied(rule.AllowIf.PathPrefixAny, call, in.Env) {
			mergeRuleObligations(&res, rule)
			ruleDecision = resolveAction(rule.Action, DecisionAllow)
		} else if rule.AllowIf != nil {
			// Exemption failed: raise via otherwise.action only, obligations
			// and this rule's own action are skipped entirely (§4.7 step 3).
			otherwiseAction := "confirm"
			if rule.Otherwise != nil && rule.Otherwise.Action != "" {
				otherwiseAction = rule.Otherwise.Action
			}
			ruleDecision = resolveAction(otherwiseAction, DecisionConfirm)
		} else {
			mergeRuleObligations(&res, rule)
			ruleDecision = resolveAction(rule.Action, DecisionAllow)
		}

		if ruleDecision > res.decision {
			res.decision = ruleDecision
			if _, seen := res.firstAtLevel[res.decision]; !seen {
				res.firstAtLevel[res.decision] = rule.ID
			}
		}
	}

	return res
}

func mergeRuleObligations(res *passResult, rule Rule) {
	if len(rule.Require) > 0 {
		res.obligations = MergeObligations(res.obligations, rule.Require)
	}
	if len(rule.AllowOverride) > 0 {
		res.obligations = MergeObligations(res.obligations, Obligations{
			"allow_override": Obligations(rule.AllowOverride),
		})
	}
}

func resolveAction(action string, fallback Decision) Decision {
	d, ok := ParseDecision(action)
	if !ok {
		return fallback
	}
	return d
}

// matchWhen implements the AND-of-present-fields predicate of §4.7. A nil
// When matches unconditionally; tool == "*" matches any tool.
func matchWhen(w *When, call Call, in Input, current Decision) bool {
	if w == nil {
		return true
	}
	if w.Tool != nil && *w.Tool != "*" && *w.Tool != call.Tool {
		return false
	}
	if len(w.ToolAnyOf) > 0 && !contains(w.ToolAnyOf, call.Tool) {
		return false
	}
	if w.RiskAtLeast != nil {
		threshold, ok := riskLevelOrder[strings.ToLower(*w.RiskAtLeast)]
		if !ok || in.Risk < threshold {
			return false
		}
	}
	if len(w.ClassificationAnyOf) > 0 {
		matched := false
		for _, tag := range w.ClassificationAnyOf {
			if in.Classifications[tag] {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if w.DecisionField != nil {
		want, ok := ParseDecision(*w.DecisionField)
		if !ok || want != current {
			return false
		}
	}
	return true
}

// pathPrefixSatisfied implements the allow_if.path_prefix_any exemption of
// §4.7/§9 Open Question (a): absent or empty path_prefix_any is always
// satisfied; otherwise the call's path argument must match one of the
// (env-expanded) prefixes, case-insensitively.
func pathPrefixSatisfied(prefixes []string, call Call, env map[string]string) bool {
	if len(prefixes) == 0 {
		return true
	}
	path, _ := call.Args["path"].(string)
	if path == "" {
		path, _ = call.Args["file_path"].(string)
	}
	if path == "" {
		return false
	}
	lowerPath := strings.ToLower(path)
	for _, p := range prefixes {
		expanded := strings.ToLower(substituteEnv(p, env))
		if strings.HasPrefix(lowerPath, expanded) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func mergeUniqueSorted(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		set[v] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func toTagMap(in map[string]bool) map[classify.Tag]bool {
	out := make(map[classify.Tag]bool, len(in))
	for k, v := range in {
		out[classify.Tag(k)] = v
	}
	return out
}

// SchemaViolation is returned when a constitution rule carries an action
// value that is not one of the three recognized decisions.
type SchemaViolation struct {
	Reason string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("policy: schema violation: %s", e.Reason)
}

// ValidateRuleAction reports whether an action string is one of the three
// recognized decisions; the constitution loader uses this to reject an
// unknown action with a *SchemaViolation per §7, rather than silently
// defaulting it the way ParseDecision does internally.
func ValidateRuleAction(action string) error {
	if action == "" {
		return nil
	}
	switch action {
	case "allow", "confirm", "deny":
		return nil
	default:
		return &SchemaViolation{Reason: fmt.Sprintf("unknown rule action %q", action)}
	}
}
