package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/evaluator"
	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/policy"
)

// engineVersion identifies this build in every scope hash (§4.8). It is
// not read from the constitution; it is this binary's own version.
const engineVersion = "1.0.0"

// evaluateCallLiteral is the JSON shape --call accepts.
type evaluateCallLiteral struct {
	Tool        string                 `json:"tool"`
	Args        map[string]interface{} `json:"args"`
	SessionKind string                 `json:"session_kind"`
	Intent      *struct {
		UserRequested        *bool  `json:"user_requested"`
		ExplicitConfirmation bool   `json:"explicit_confirmation"`
		Workspace            string `json:"workspace"`
	} `json:"intent"`
	Env map[string]string `json:"env"`
}

func runEvaluateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		constitutionPath string
		callPath         string
	)
	cmd.StringVar(&constitutionPath, "constitution", "", "path to the constitution YAML (REQUIRED)")
	cmd.StringVar(&callPath, "call", "", "path to a JSON call literal (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if constitutionPath == "" || callPath == "" {
		fmt.Fprintln(stderr, "Error: --constitution and --call are both required")
		return 2
	}

	requestID := uuid.NewString()
	logger := slog.New(slog.NewJSONHandler(stderr, nil)).With("request_id", requestID)

	constitutionSrc, err := os.ReadFile(constitutionPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: reading %s: %v\n", constitutionPath, err)
		return 2
	}
	c, err := policy.LoadConstitution(constitutionSrc)
	if err != nil {
		logger.Error("constitution parse failed", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	callSrc, err := os.ReadFile(callPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: reading %s: %v\n", callPath, err)
		return 2
	}
	var lit evaluateCallLiteral
	if err := json.Unmarshal(callSrc, &lit); err != nil {
		fmt.Fprintf(stderr, "Error: invalid call literal: %v\n", err)
		return 2
	}

	call := policy.Call{Tool: lit.Tool, Args: lit.Args, SessionKind: lit.SessionKind}
	if call.SessionKind == "" {
		call.SessionKind = "main"
	}
	if lit.Intent != nil {
		call.Intent = policy.Intent{
			Present:              true,
			UserRequested:        lit.Intent.UserRequested,
			ExplicitConfirmation: lit.Intent.ExplicitConfirmation,
			Workspace:            lit.Intent.Workspace,
		}
	}

	e, err := evaluator.New(engineVersion)
	if err != nil {
		logger.Error("evaluator misconfigured", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	result, err := e.Evaluate(c, call, lit.Env)
	if err != nil {
		logger.Error("evaluation failed", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger.Info("evaluation complete", "decision", result.Decision.String(), "risk", result.Risk)

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(stdout, string(data))

	if result.Decision == policy.DecisionDeny {
		return 1
	}
	return 0
}
