package main

import (
	"crypto/ed25519"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/signing"
)

func runSignCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("sign", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		in      string
		keyHex  string
		keyID   string
		noStamp bool
	)
	cmd.StringVar(&in, "in", "", "path to the YAML document (REQUIRED)")
	cmd.StringVar(&keyHex, "key", "", "Ed25519 private key, hex or base64 (REQUIRED)")
	cmd.StringVar(&keyID, "key-id", "", "key identifier embedded in key_id (REQUIRED)")
	cmd.BoolVar(&noStamp, "no-timestamp", false, "omit signed_at from the record")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if in == "" || keyHex == "" || keyID == "" {
		fmt.Fprintln(stderr, "Error: --in, --key, and --key-id are all required")
		return 2
	}

	src, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: reading %s: %v\n", in, err)
		return 2
	}

	keyBytes, err := signing.DecodeKey(keyHex)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		fmt.Fprintf(stderr, "Error: --key must decode to a %d-byte Ed25519 private key, got %d\n", ed25519.PrivateKeySize, len(keyBytes))
		return 2
	}

	provider := signing.NewMemoryKeyProviderFromPrivate(ed25519.PrivateKey(keyBytes), keyID)

	var signedAt *string
	if !noStamp {
		s := time.Now().UTC().Format(time.RFC3339)
		signedAt = &s
	}

	record, err := signing.Sign(src, provider, signedAt)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}
