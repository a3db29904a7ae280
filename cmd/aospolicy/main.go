// Command aospolicy is the peripheral CLI surface of §6: canonicalize,
// hash, sign, verify, classify, evaluate, and check-attestation each wrap
// one pure function from the core packages. The core contract lives in
// those packages, not here — this surface may be reshaped freely.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the CLI entrypoint, kept separate from main so tests can drive it
// without touching os.Args or process exit codes.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "canonicalize":
		return runCanonicalizeCmd(args[2:], stdout, stderr)
	case "hash":
		return runHashCmd(args[2:], stdout, stderr)
	case "sign":
		return runSignCmd(args[2:], stdout, stderr)
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "classify":
		return runClassifyCmd(args[2:], stdout, stderr)
	case "evaluate":
		return runEvaluateCmd(args[2:], stdout, stderr)
	case "check-attestation":
		return runCheckAttestationCmd(args[2:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "aospolicy: unknown command %q\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "aospolicy - deterministic policy evaluator for agent tool calls")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: aospolicy <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  canonicalize       YAML document to canonical JSON bytes")
	fmt.Fprintln(w, "  hash               canonical doc hash (sha256:<hex>)")
	fmt.Fprintln(w, "  sign               produce a detached signature record")
	fmt.Fprintln(w, "  verify             verify a signature record against a document")
	fmt.Fprintln(w, "  classify           risk + classification tags for a call")
	fmt.Fprintln(w, "  evaluate           full constitution evaluation for a call")
	fmt.Fprintln(w, "  check-attestation  validate an external attestation record")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Exit codes: 0 success, 1 verification/semantic failure, 2 usage error.")
}
