package main

import (
	"fmt"
	"io"
	"os"
)

const usage = `Usage:
  predictor analyze -symbol SYMBOL [-days N] [-csv FILE] [-rows N] [-mock]
  predictor serve [-mock] [-run-on-start]

Configuration is read from CONFIG_PATH (default configs/config.yaml), .env and the environment.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	var err error
	switch args[0] {
	case "analyze":
		err = runAnalyze(args[1:], stdout, stderr)
	case "serve":
		err = runServe(args[1:], stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
