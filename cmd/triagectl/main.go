package main

import (
	"fmt"
	"os"

	"claimguard/internal/triagectl"
)

func main() {
	if err := triagectl.Execute(os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
