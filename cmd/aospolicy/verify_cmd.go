package main

import (
	"crypto/ed25519"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/signing"
)

func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		in     string
		record string
		pubHex string
	)
	cmd.StringVar(&in, "in", "", "path to the YAML document (REQUIRED)")
	cmd.StringVar(&record, "record", "", "path to the signature record JSON (REQUIRED)")
	cmd.StringVar(&pubHex, "pubkey", "", "Ed25519 public key, hex or base64 (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if in == "" || record == "" || pubHex == "" {
		fmt.Fprintln(stderr, "Error: --in, --record, and --pubkey are all required")
		return 2
	}

	src, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: reading %s: %v\n", in, err)
		return 2
	}
	recordBytes, err := os.ReadFile(record)
	if err != nil {
		fmt.Fprintf(stderr, "Error: reading %s: %v\n", record, err)
		return 2
	}

	var rec signing.Record
	if err := json.Unmarshal(recordBytes, &rec); err != nil {
		fmt.Fprintf(stderr, "Error: invalid signature record: %v\n", err)
		return 2
	}

	pub, err := signing.DecodeKey(pubHex)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if err := signing.Verify(&rec, ed25519.PublicKey(pub), src); err != nil {
		fmt.Fprintf(stdout, "FAILED: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "OK")
	return 0
}
