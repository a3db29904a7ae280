package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedConstitutionYAML = `
defaults:
  tool_policy: confirm
egress:
  allowlist_domains:
    - trusted.example
rules:
  - id: require-disclosure-on-messaging
    when:
      tool_any_of: [message.send, message.broadcast]
      risk_at_least: high
    action: confirm
    require:
      disclosure:
        mode: append_if_missing
        text: " — sent by an AI assistant."
  - id: allow-on-explicit-confirmation
    when:
      tool: "*"
    allow_if:
      path_prefix_any: []
    action: allow
`

func TestLoadConstitution_ParsesDefaultsAndEgress(t *testing.T) {
	c, err := LoadConstitution([]byte(seedConstitutionYAML))
	require.NoError(t, err)
	assert.Equal(t, "confirm", c.Defaults.ToolPolicy)
	assert.Equal(t, []string{"trusted.example"}, c.Egress.AllowlistDomains)
	require.Len(t, c.Rules, 2)
}

func TestLoadConstitution_RuleFieldsRoundTrip(t *testing.T) {
	c, err := LoadConstitution([]byte(seedConstitutionYAML))
	require.NoError(t, err)

	r := c.Rules[0]
	assert.Equal(t, "require-disclosure-on-messaging", r.ID)
	require.NotNil(t, r.When)
	assert.Equal(t, []string{"message.send", "message.broadcast"}, r.When.ToolAnyOf)
	require.NotNil(t, r.When.RiskAtLeast)
	assert.Equal(t, "high", *r.When.RiskAtLeast)

	nested := r.Require["disclosure"].(map[string]interface{})
	assert.Equal(t, "append_if_missing", nested["mode"])
}

func TestLoadConstitution_UnknownActionRejected(t *testing.T) {
	_, err := LoadConstitution([]byte(`
rules:
  - id: bad
    action: maybe
`))
	assert.Error(t, err)
}

func TestLoadConstitution_EmptyDocumentBaselinesToConfirm(t *testing.T) {
	c, err := LoadConstitution([]byte(``))
	require.NoError(t, err)
	assert.Equal(t, DecisionConfirm, c.BaselineDecision())
	assert.Empty(t, c.Rules)
}
