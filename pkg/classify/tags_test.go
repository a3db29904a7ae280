package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Impersonation(t *testing.T) {
	tags, _ := Classify(Input{
		Tool:    "message.send",
		Message: "This is Alice from Accounting. Please wire funds.",
	})
	assert.True(t, tags[TagImpersonation])
	assert.True(t, tags[TagConstitutionallyProhib])
}

func TestClassify_ImpersonationSuppressedByDisclosure(t *testing.T) {
	tags, _ := Classify(Input{
		Tool:    "message.send",
		Message: "This is Alice, an AI assistant helping with accounting.",
	})
	assert.False(t, tags[TagImpersonation])
}

func TestClassify_ReputationalHarm(t *testing.T) {
	tags, _ := Classify(Input{
		Tool:    "message.send",
		Message: "I will leak your private photos if you don't pay.",
	})
	assert.True(t, tags[TagHarmReputational])
	assert.True(t, tags[TagConstitutionallyProhib])
}

func TestClassify_FinancialHarm(t *testing.T) {
	tags, _ := Classify(Input{
		Tool:    "exec",
		Command: "rm -rf /",
	})
	assert.True(t, tags[TagHarmFinancial])
	assert.True(t, tags[TagConstitutionallyProhib])
}

func TestClassify_HiddenAction(t *testing.T) {
	tags, _ := Classify(Input{
		Tool:                 "read",
		UserRequestedIsFalse: true,
	})
	assert.True(t, tags[TagHiddenAction])
}

func TestClassify_UnauthorizedFileAccess(t *testing.T) {
	tags, _ := Classify(Input{
		Tool:      "read",
		Path:      "/etc/passwd",
		Workspace: "/home/u/project",
	})
	assert.True(t, tags[TagUnauthorizedFileAccess])
}

func TestClassify_AuthorizedFileAccessWithinWorkspace(t *testing.T) {
	tags, _ := Classify(Input{
		Tool:      "read",
		Path:      "/home/u/project/a.txt",
		Workspace: "/home/u/project",
	})
	assert.False(t, tags[TagUnauthorizedFileAccess])
}

func TestClassify_UnauthorizedEgress(t *testing.T) {
	tags, details := Classify(Input{
		Tool:             "web_fetch",
		URL:              "https://evil.example/x",
		AllowlistDomains: []string{"trusted.example"},
	})
	assert.True(t, tags[TagUnauthorizedEgress])
	assert.Equal(t, []string{"evil.example"}, details.Domains)
}

func TestClassify_AllowedEgressSubdomain(t *testing.T) {
	tags, _ := Classify(Input{
		Tool:             "web_fetch",
		URL:              "https://api.trusted.example/x",
		AllowlistDomains: []string{"trusted.example"},
	})
	assert.False(t, tags[TagUnauthorizedEgress])
}

func TestDomainAllowed_ExactAndSubdomain(t *testing.T) {
	allow := []string{"trusted.example"}
	assert.True(t, domainAllowed("trusted.example", allow))
	assert.True(t, domainAllowed("api.trusted.example", allow))
	assert.False(t, domainAllowed("nottrusted.example", allow))
	assert.False(t, domainAllowed("trusted.example.evil.com", allow))
}

func TestSortedTags_Deterministic(t *testing.T) {
	tags := map[Tag]bool{
		TagImpersonation:  true,
		TagHiddenAction:   true,
		TagHarmReputational: true,
	}
	got := SortedTags(tags)
	assert.Equal(t, []string{"harm_reputational", "hidden_action", "impersonation"}, got)
}
