// Package attestation validates the structural shape of an external
// attestation record (§4.4). Actual cryptographic verification of the tree
// hash or commit binding is delegated to an external verifier with the
// same output shape — this package never reaches out over the network.
package attestation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RequiredSpec is the only "spec" discriminator this checker accepts.
const RequiredSpec = "gittruth-attestation-v1"

// SchemaViolation is returned when the record is missing a required field
// or carries the wrong "spec" discriminator.
type SchemaViolation struct {
	Reason string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("attestation: schema violation: %s", e.Reason)
}

// Record is an external attestation record, per §6.
type Record struct {
	Spec          string `json:"spec"`
	Repo          string `json:"repo"`
	Commit        string `json:"commit"`
	AttestationID string `json:"attestation_id"`
	TreeHash      string `json:"tree_hash"`
	Timestamp     string `json:"timestamp"`
	Signature     string `json:"signature"`
}

// CheckResult is the checker's success response, per §6.
type CheckResult struct {
	OK               bool   `json:"ok"`
	VerifiedTreeHash string `json:"verified_tree_hash"`
	VerifiedCommit   string `json:"verified_commit"`
	TrustRoot        string `json:"trust_root"`
	AttestationID    string `json:"attestation_id"`
	Timestamp        string `json:"timestamp"`
}

// schema is compiled once; it only enforces "required keys present and are
// strings", the JSON-Schema-native way of expressing §4.4's shape check,
// the same pattern pkg/firewall/firewall.go uses to validate tool-call
// parameters before dispatch.
var schema = compileSchema()

const schemaSource = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["spec", "repo", "commit", "attestation_id", "tree_hash", "timestamp", "signature"],
  "properties": {
    "spec": {"type": "string"},
    "repo": {"type": "string"},
    "commit": {"type": "string"},
    "attestation_id": {"type": "string"},
    "tree_hash": {"type": "string"},
    "timestamp": {"type": "string"},
    "signature": {"type": "string"}
  }
}`

func compileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const url = "https://aos.local/schemas/attestation-record.schema.json"
	if err := c.AddResource(url, strings.NewReader(schemaSource)); err != nil {
		panic(fmt.Sprintf("attestation: invalid embedded schema: %v", err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("attestation: schema compile failed: %v", err))
	}
	return compiled
}

// TrustRootVerifier is the opaque external verifier §4.4 delegates to. It
// receives the validated record and returns the CheckResult fields that
// require cryptographic or network verification.
type TrustRootVerifier interface {
	VerifyTree(record Record) (verifiedCommit string, trustRoot string, err error)
}

// Check validates the structural shape of raw JSON as an attestation
// record, then — if a verifier is supplied — delegates tree/commit
// verification to it. With a nil verifier, Check only performs the
// structural checks and echoes the record's own claimed fields.
func Check(raw []byte, verifier TrustRootVerifier) (*CheckResult, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, &SchemaViolation{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if err := schema.Validate(generic); err != nil {
		return nil, &SchemaViolation{Reason: err.Error()}
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, &SchemaViolation{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if record.Spec != RequiredSpec {
		return nil, &SchemaViolation{Reason: fmt.Sprintf("unexpected spec %q, want %q", record.Spec, RequiredSpec)}
	}
	if !strings.HasPrefix(record.TreeHash, "sha256:") {
		return nil, &SchemaViolation{Reason: "tree_hash must begin with \"sha256:\""}
	}

	result := &CheckResult{
		OK:               true,
		VerifiedTreeHash: record.TreeHash,
		VerifiedCommit:   record.Commit,
		AttestationID:    record.AttestationID,
		Timestamp:        record.Timestamp,
	}

	if verifier != nil {
		commit, trustRoot, err := verifier.VerifyTree(record)
		if err != nil {
			return nil, fmt.Errorf("attestation: tree verification failed: %w", err)
		}
		result.VerifiedCommit = commit
		result.TrustRoot = trustRoot
	}

	return result, nil
}
