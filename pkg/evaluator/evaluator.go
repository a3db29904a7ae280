// Package evaluator composes the canonicalizer, classifiers, and rule
// engine into the single pure entry point described in §4.8: given a
// constitution and a proposed tool call, produce a complete EvalResult.
package evaluator

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/canonicalize"
	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/classify"
	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/hashdoc"
	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/policy"
)

// Evaluator is configured once with the engine's own version string and
// reused across evaluations; it holds no per-call state.
type Evaluator struct {
	EngineVersion string
}

// New validates engineVersion as a semantic version (it is embedded in
// every scope hash, so a malformed version would silently desynchronize
// confirmations across a deploy) and returns a ready-to-use Evaluator.
func New(engineVersion string) (*Evaluator, error) {
	if _, err := semver.NewVersion(engineVersion); err != nil {
		return nil, fmt.Errorf("evaluator: invalid policy_engine_version %q: %w", engineVersion, err)
	}
	return &Evaluator{EngineVersion: engineVersion}, nil
}

// Evaluate runs the full pipeline of §2: classify risk, classify tags, run
// the two-pass rule engine, then attach a scope hash if the final
// decision is confirm. env resolves ${VAR} tokens in allow_if.path_prefix_any.
func (e *Evaluator) Evaluate(c *policy.Constitution, call policy.Call, env map[string]string) (*policy.EvalResult, error) {
	tagsIn := classifyInput(c, call)
	tags, _ := classify.Classify(tagsIn)
	classifications := toStringBoolMap(tags)

	argsText := strings.Join([]string{tagsIn.Command, tagsIn.Path, tagsIn.Message}, " ")
	risk := classify.Overall(call.Tool, argsText, call.Intent.Present, call.Intent.ExplicitConfirmation)

	result := policy.Evaluate(c, call, policy.Input{
		Risk:            risk,
		Classifications: classifications,
		Env:             env,
	})

	if result.Decision == policy.DecisionConfirm {
		hash, err := e.scopeHash(c, call)
		if err != nil {
			return nil, err
		}
		result.ScopeHash = &hash
	}

	return &result, nil
}

// scopeHash implements §4.8: a stable digest over {tool, args,
// constitution_doc_hash, policy_engine_version}, canonicalized the same
// way as the constitution document itself (§4.1/§9 "canonicalization
// parity").
func (e *Evaluator) scopeHash(c *policy.Constitution, call policy.Call) (string, error) {
	var docHash interface{}
	if c != nil && c.DocHash != nil {
		docHash = *c.DocHash
	}

	scope := map[string]interface{}{
		"tool":                  call.Tool,
		"args":                  call.Args,
		"constitution_doc_hash": docHash,
		"policy_engine_version": e.EngineVersion,
	}

	canonical, err := canonicalize.CanonicalizeValue(scope)
	if err != nil {
		return "", fmt.Errorf("evaluator: canonicalizing scope: %w", err)
	}
	return hashdoc.Hash(canonical), nil
}

// classifyInput maps a Call plus the constitution's egress allowlist into
// the loosely-typed classify.Input boundary (§4.6).
func classifyInput(c *policy.Constitution, call policy.Call) classify.Input {
	in := classify.Input{
		Tool:      call.Tool,
		Workspace: call.Intent.Workspace,
	}
	if call.Intent.UserRequested != nil && !*call.Intent.UserRequested {
		in.UserRequestedIsFalse = true
	}
	if call.Args != nil {
		if s, ok := call.Args["path"].(string); ok {
			in.Path = s
		} else if s, ok := call.Args["file_path"].(string); ok {
			in.Path = s
		}
		if s, ok := call.Args["message"].(string); ok {
			in.Message = s
		}
		in.Command = commandText(call.Args["command"])
		in.URL = urlArg(call.Tool, call.Args)
	}
	if c != nil {
		in.AllowlistDomains = c.Egress.AllowlistDomains
	}
	return in
}

// urlArg extracts the egress-relevant URL the same way tool by tool:
// browser.* tools prefer targetUrl over url (a browser call can carry
// both, e.g. a same-origin url plus a cross-origin targetUrl to navigate
// to), while web_fetch only ever reads url. Any other tool has no URL arg.
func urlArg(tool string, args map[string]interface{}) string {
	switch {
	case strings.HasPrefix(tool, "browser."):
		if s, ok := args["targetUrl"].(string); ok {
			return s
		}
		if s, ok := args["url"].(string); ok {
			return s
		}
	case tool == "web_fetch":
		if s, ok := args["url"].(string); ok {
			return s
		}
	}
	return ""
}

// commandText joins an exec command argument, which may arrive as a
// string or as a sequence of tokens (per §8 seed scenario 2).
func commandText(v interface{}) string {
	switch c := v.(type) {
	case string:
		return c
	case []interface{}:
		parts := make([]string, 0, len(c))
		for _, p := range c {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case []string:
		return strings.Join(c, " ")
	default:
		return ""
	}
}

func toStringBoolMap(in map[classify.Tag]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}
