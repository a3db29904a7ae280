package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/classify"
)

// urlArg extracts the egress-relevant URL argument: browser.* tools
// prefer targetUrl over url, web_fetch only ever reads url, matching
// scripts/classify.py's _extract_domains_from_args.
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

// classifyCallLiteral is the JSON shape --call accepts: the loosely-typed
// boundary of §3/§9, validated and narrowed into classify.Input here
// before it ever reaches the typed classifier.
type classifyCallLiteral struct {
	Tool             string                 `json:"tool"`
	Args             map[string]interface{} `json:"args"`
	Intent           map[string]interface{} `json:"intent"`
	AllowlistDomains []string               `json:"allowlist_domains"`
}

type classifyOutput struct {
	Risk            string           `json:"risk"`
	Classifications []string         `json:"classifications"`
	Details         classify.Details `json:"details"`
}

func runClassifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("classify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var in string
	cmd.StringVar(&in, "call", "", "path to a JSON call literal (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if in == "" {
		fmt.Fprintln(stderr, "Error: --call is required")
		return 2
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: reading %s: %v\n", in, err)
		return 2
	}

	var lit classifyCallLiteral
	if err := json.Unmarshal(raw, &lit); err != nil {
		fmt.Fprintf(stderr, "Error: invalid call literal: %v\n", err)
		return 2
	}

	tagsInput := classify.Input{Tool: lit.Tool, AllowlistDomains: lit.AllowlistDomains}
	if lit.Args != nil {
		if s, ok := lit.Args["path"].(string); ok {
			tagsInput.Path = s
		} else if s, ok := lit.Args["file_path"].(string); ok {
			tagsInput.Path = s
		}
		if s, ok := lit.Args["message"].(string); ok {
			tagsInput.Message = s
		}
		switch c := lit.Args["command"].(type) {
		case string:
			tagsInput.Command = c
		case []interface{}:
			parts := make([]string, 0, len(c))
			for _, p := range c {
				if s, ok := p.(string); ok {
					parts = append(parts, s)
				}
			}
			tagsInput.Command = strings.Join(parts, " ")
		}
		tagsInput.URL = urlArg(lit.Tool, lit.Args)
	}
	hasIntent := lit.Intent != nil
	explicitConfirmation := false
	if lit.Intent != nil {
		if v, ok := lit.Intent["user_requested"].(bool); ok && !v {
			tagsInput.UserRequestedIsFalse = true
		}
		if v, ok := lit.Intent["explicit_confirmation"].(bool); ok {
			explicitConfirmation = v
		}
		if v, ok := lit.Intent["workspace"].(string); ok {
			tagsInput.Workspace = v
		}
	}

	tags, details := classify.Classify(tagsInput)
	argsText := tagsInput.Command + " " + tagsInput.Path + " " + tagsInput.Message
	risk := classify.Overall(lit.Tool, argsText, hasIntent, explicitConfirmation)

	out := classifyOutput{
		Risk:            risk.String(),
		Classifications: classify.SortedTags(tags),
		Details:         details,
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(stdout, string(data))
	return 0
}
