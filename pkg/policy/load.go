package policy

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// rawConstitution mirrors the YAML schema of §3/§6 with yaml.v3 tags; it
// exists only as a decoding target, converted to the typed Constitution
// immediately after.
type rawConstitution struct {
	Defaults struct {
		ToolPolicy string `yaml:"tool_policy"`
	} `yaml:"defaults"`
	Egress struct {
		AllowlistDomains []string `yaml:"allowlist_domains"`
	} `yaml:"egress"`
	Rules   []rawRule `yaml:"rules"`
	DocHash *string   `yaml:"doc_hash"`
}

type rawRule struct {
	ID      string   `yaml:"id"`
	When    *rawWhen `yaml:"when"`
	Action  string   `yaml:"action"`
	AllowIf *rawAllowIf `yaml:"allow_if"`
	Otherwise *struct {
		Action string `yaml:"action"`
	} `yaml:"otherwise"`
	Require       map[string]interface{} `yaml:"require"`
	AllowOverride map[string]interface{} `yaml:"allow_override"`
}

type rawWhen struct {
	Tool                *string  `yaml:"tool"`
	ToolAnyOf           []string `yaml:"tool_any_of"`
	RiskAtLeast         *string  `yaml:"risk_at_least"`
	ClassificationAnyOf []string `yaml:"classification_any_of"`
	Decision            *string  `yaml:"decision"`
}

type rawAllowIf struct {
	PathPrefixAny []string `yaml:"path_prefix_any"`
}

// LoadConstitution parses a constitution YAML document (§3/§6) into its
// typed form. Unknown `when`/rule fields are ignored per §7 forward
// compatibility; an unrecognized `action` value fails with a descriptive
// error, since §7 requires unknown actions to fail rather than silently
// default.
func LoadConstitution(yamlSource []byte) (*Constitution, error) {
	var raw rawConstitution
	if err := yaml.Unmarshal(yamlSource, &raw); err != nil {
		return nil, fmt.Errorf("policy: parse constitution: %w", err)
	}

	c := &Constitution{
		Defaults: Defaults{ToolPolicy: raw.Defaults.ToolPolicy},
		Egress:   Egress{AllowlistDomains: raw.Egress.AllowlistDomains},
		DocHash:  raw.DocHash,
	}

	for _, r := range raw.Rules {
		if err := ValidateRuleAction(r.Action); err != nil {
			return nil, fmt.Errorf("policy: rule %q: %w", r.ID, err)
		}
		rule := Rule{
			ID:            r.ID,
			Action:        r.Action,
			Require:       Obligations(r.Require),
			AllowOverride: r.AllowOverride,
		}
		if r.When != nil {
			rule.When = &When{
				Tool:                r.When.Tool,
				ToolAnyOf:           r.When.ToolAnyOf,
				RiskAtLeast:         r.When.RiskAtLeast,
				ClassificationAnyOf: r.When.ClassificationAnyOf,
				DecisionField:       r.When.Decision,
			}
		}
		if r.AllowIf != nil {
			rule.AllowIf = &AllowIf{PathPrefixAny: r.AllowIf.PathPrefixAny}
		}
		if r.Otherwise != nil {
			if err := ValidateRuleAction(r.Otherwise.Action); err != nil {
				return nil, fmt.Errorf("policy: rule %q otherwise: %w", r.ID, err)
			}
			rule.Otherwise = &Otherwise{Action: r.Otherwise.Action}
		}
		c.Rules = append(c.Rules, rule)
	}

	return c, nil
}
