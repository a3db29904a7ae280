package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/canonicalize"
	"github.com/genesalvatore/aos-openclaw-constitutional/pkg/hashdoc"
)

func runHashCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("hash", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var in string
	cmd.StringVar(&in, "in", "", "path to the YAML document (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if in == "" {
		fmt.Fprintln(stderr, "Error: --in is required")
		return 2
	}

	src, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: reading %s: %v\n", in, err)
		return 2
	}

	canonical, err := canonicalize.Canonicalize(src)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, hashdoc.Hash(canonical))
	return 0
}
