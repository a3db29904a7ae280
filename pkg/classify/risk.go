// Package classify implements the deterministic risk and classification
// tagging of §4.5 and §4.6 — pure lookup-table and regex/substring
// heuristics, no learned judgment.
package classify

import "strings"

// Risk is a level in the four-point total order low < medium < high <
// critical (§3).
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func maxRisk(a, b Risk) Risk {
	if a > b {
		return a
	}
	return b
}

// toolBaseRisk is the lookup table of §4.5; unknown tools default to medium.
var toolBaseRisk = map[string]Risk{
	"message.send":      RiskHigh,
	"message.broadcast": RiskCritical,
	"exec":              RiskCritical,
	"read":              RiskMedium,
	"write":             RiskHigh,
	"edit":              RiskHigh,
	"web_fetch":         RiskMedium,
	"browser.navigate":  RiskMedium,
	"browser.upload":    RiskHigh,
}

var execDangerSubstrings = []string{
	"curl ", "wget ", "invoke-webrequest", "scp ", "ssh ", "rm ", "rmdir",
	"del ", "format", ":(){",
}

var sensitivePathHints = []string{
	"appdata", ".ssh", "id_rsa", "id_ed25519", "password", "secrets", "token",
}

// ToolBaseRisk returns tool_base for a tool name, including the nodes.*
// family which all carry "high" per §4.5.
func ToolBaseRisk(tool string) Risk {
	if strings.HasPrefix(tool, "nodes.") {
		return RiskHigh
	}
	if r, ok := toolBaseRisk[tool]; ok {
		return r
	}
	return RiskMedium
}

// ArgRisk implements the arg_risk axis of §4.5.
func ArgRisk(tool string, argsText string) Risk {
	lower := strings.ToLower(argsText)

	if tool == "exec" {
		for _, d := range execDangerSubstrings {
			if strings.Contains(lower, d) {
				return RiskCritical
			}
		}
		return RiskHigh
	}

	switch tool {
	case "read", "write", "edit":
		for _, hint := range sensitivePathHints {
			if strings.Contains(lower, hint) {
				return RiskHigh
			}
		}
		return RiskMedium
	}

	if isMessagingTool(tool) {
		return RiskHigh
	}

	return RiskLow
}

// EgressRisk implements the egress_risk axis of §4.5.
func EgressRisk(tool string) Risk {
	switch tool {
	case "message.send", "message.broadcast", "browser.upload":
		return RiskHigh
	case "web_fetch":
		return RiskMedium
	default:
		return RiskLow
	}
}

// ScopeRisk implements the scope_risk axis of §4.5. hasIntent distinguishes
// a present-but-empty intent from a wholly absent one; explicitConfirmation
// mirrors intent.explicit_confirmation.
func ScopeRisk(hasIntent bool, explicitConfirmation bool) Risk {
	if !hasIntent {
		return RiskMedium
	}
	if explicitConfirmation {
		return RiskLow
	}
	return RiskMedium
}

// Overall composes the four axes via max, per §4.5.
func Overall(tool string, argsText string, hasIntent bool, explicitConfirmation bool) Risk {
	r := ToolBaseRisk(tool)
	r = maxRisk(r, ArgRisk(tool, argsText))
	r = maxRisk(r, EgressRisk(tool))
	r = maxRisk(r, ScopeRisk(hasIntent, explicitConfirmation))
	return r
}

func isMessagingTool(tool string) bool {
	return strings.HasPrefix(tool, "message.")
}
