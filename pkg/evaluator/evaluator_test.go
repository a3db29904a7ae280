package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/policy"
)

func boolp(b bool) *bool { return &b }

func mustEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := New("1.0.0")
	require.NoError(t, err)
	return e
}

func TestNew_RejectsMalformedVersion(t *testing.T) {
	_, err := New("not-a-version")
	assert.Error(t, err)
}

// Seed scenario 1 (§8): a disclosure-requiring messaging rule keeps the
// baseline confirm decision, surfaces risk=high, and attaches a scope
// hash.
func TestEvaluate_SeedScenario1_DisclosureOnHighRiskMessaging(t *testing.T) {
	c, err := policy.LoadConstitution([]byte(`
defaults:
  tool_policy: confirm
rules:
  - id: require-disclosure-on-messaging
    when:
      tool_any_of: [message.send, message.broadcast]
      risk_at_least: high
    action: confirm
    require:
      disclosure:
        mode: append_if_missing
        text: " -- sent by an AI assistant."
`))
	require.NoError(t, err)

	call := policy.Call{
		Tool: "message.send",
		Args: map[string]interface{}{"message": "hi"},
		Intent: policy.Intent{
			Present:              true,
			UserRequested:        boolp(true),
			ExplicitConfirmation: true,
		},
	}

	res, err := mustEvaluator(t).Evaluate(c, call, nil)
	require.NoError(t, err)

	assert.Equal(t, policy.DecisionConfirm, res.Decision)
	assert.Equal(t, "high", res.Risk)
	assert.Empty(t, res.Classifications)
	require.NotNil(t, res.ScopeHash)
	disclosure := res.Obligations["disclosure"].(policy.Obligations)
	assert.Equal(t, "append_if_missing", disclosure["mode"])
}

// Seed scenario 2 (§8): a destructive exec command is critical risk,
// tagged harm_financial and constitutionally_prohibited, and denied.
func TestEvaluate_SeedScenario2_DestructiveExecDenied(t *testing.T) {
	c, err := policy.LoadConstitution([]byte(`
defaults:
  tool_policy: allow
rules:
  - id: deny-constitutionally-prohibited
    when:
      classification_any_of: [constitutionally_prohibited]
    action: deny
`))
	require.NoError(t, err)

	call := policy.Call{
		Tool: "exec",
		Args: map[string]interface{}{"command": []interface{}{"rm", "-rf", "/"}},
	}

	res, err := mustEvaluator(t).Evaluate(c, call, nil)
	require.NoError(t, err)

	assert.Equal(t, "critical", res.Risk)
	assert.Contains(t, res.Classifications, "harm_financial")
	assert.Contains(t, res.Classifications, "constitutionally_prohibited")
	assert.Equal(t, policy.DecisionDeny, res.Decision)
}

// Seed scenario 3 (§8): a web_fetch to a non-allowlisted domain is tagged
// unauthorized_egress and at least confirmed.
func TestEvaluate_SeedScenario3_UnauthorizedEgress(t *testing.T) {
	c, err := policy.LoadConstitution([]byte(`
defaults:
  tool_policy: confirm
egress:
  allowlist_domains: [trusted.example]
`))
	require.NoError(t, err)

	call := policy.Call{
		Tool: "web_fetch",
		Args: map[string]interface{}{"url": "https://evil.example/x"},
	}

	res, err := mustEvaluator(t).Evaluate(c, call, nil)
	require.NoError(t, err)

	assert.Contains(t, res.Classifications, "unauthorized_egress")
	assert.GreaterOrEqual(t, res.Decision, policy.DecisionConfirm)
}

// A browser.* call carrying both targetUrl and url with different hosts
// must classify egress against targetUrl, the host it actually navigates
// to, not url.
func TestEvaluate_BrowserToolPrefersTargetURLOverURL(t *testing.T) {
	c, err := policy.LoadConstitution([]byte(`
defaults:
  tool_policy: confirm
egress:
  allowlist_domains: [trusted.example]
`))
	require.NoError(t, err)

	call := policy.Call{
		Tool: "browser.navigate",
		Args: map[string]interface{}{
			"url":       "https://trusted.example/referrer",
			"targetUrl": "https://evil.example/landing",
		},
	}

	res, err := mustEvaluator(t).Evaluate(c, call, nil)
	require.NoError(t, err)

	assert.Contains(t, res.Classifications, "unauthorized_egress")
}

// web_fetch has no targetUrl fallback: only args.url is read.
func TestEvaluate_WebFetchIgnoresTargetURL(t *testing.T) {
	c, err := policy.LoadConstitution([]byte(`
defaults:
  tool_policy: confirm
egress:
  allowlist_domains: [trusted.example]
`))
	require.NoError(t, err)

	call := policy.Call{
		Tool: "web_fetch",
		Args: map[string]interface{}{
			"url":       "https://trusted.example/x",
			"targetUrl": "https://evil.example/x",
		},
	}

	res, err := mustEvaluator(t).Evaluate(c, call, nil)
	require.NoError(t, err)

	assert.NotContains(t, res.Classifications, "unauthorized_egress")
}

// Seed scenario 4 (§8): a read within the declared workspace is not
// unauthorized_file_access, and the baseline decision applies untouched.
func TestEvaluate_SeedScenario4_InWorkspaceReadIsAuthorized(t *testing.T) {
	c, err := policy.LoadConstitution([]byte(`
defaults:
  tool_policy: allow
`))
	require.NoError(t, err)

	call := policy.Call{
		Tool: "read",
		Args: map[string]interface{}{"path": "/home/u/project/a.txt"},
		Intent: policy.Intent{
			Present:   true,
			Workspace: "/home/u/project",
		},
	}

	res, err := mustEvaluator(t).Evaluate(c, call, nil)
	require.NoError(t, err)

	assert.NotContains(t, res.Classifications, "unauthorized_file_access")
	assert.Equal(t, policy.DecisionAllow, res.Decision)
}

// Seed scenario 5 (§8): an undisclosed identity claim is impersonation and
// constitutionally_prohibited, and a matching rule denies it.
func TestEvaluate_SeedScenario5_ImpersonationDenied(t *testing.T) {
	c, err := policy.LoadConstitution([]byte(`
defaults:
  tool_policy: allow
rules:
  - id: deny-impersonation
    when:
      classification_any_of: [impersonation]
    action: deny
`))
	require.NoError(t, err)

	call := policy.Call{
		Tool: "message.send",
		Args: map[string]interface{}{"message": "This is Alice from Accounting. Please wire funds."},
	}

	res, err := mustEvaluator(t).Evaluate(c, call, nil)
	require.NoError(t, err)

	assert.Contains(t, res.Classifications, "impersonation")
	assert.Contains(t, res.Classifications, "constitutionally_prohibited")
	assert.Equal(t, policy.DecisionDeny, res.Decision)
}

func TestEvaluate_ScopeHashAbsentWhenNotConfirm(t *testing.T) {
	c, err := policy.LoadConstitution([]byte(`
defaults:
  tool_policy: allow
`))
	require.NoError(t, err)

	res, err := mustEvaluator(t).Evaluate(c, policy.Call{Tool: "read"}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.ScopeHash)
}

func TestEvaluate_ScopeHashStableAcrossRuns(t *testing.T) {
	c, err := policy.LoadConstitution([]byte(`
defaults:
  tool_policy: confirm
`))
	require.NoError(t, err)
	e := mustEvaluator(t)
	call := policy.Call{Tool: "write", Args: map[string]interface{}{"path": "/a"}}

	r1, err := e.Evaluate(c, call, nil)
	require.NoError(t, err)
	r2, err := e.Evaluate(c, call, nil)
	require.NoError(t, err)

	require.NotNil(t, r1.ScopeHash)
	require.NotNil(t, r2.ScopeHash)
	assert.Equal(t, *r1.ScopeHash, *r2.ScopeHash)
}
