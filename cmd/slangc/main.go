// Command slangc compiles Slang source files down to LLVM IR text.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/slangc/cmd/slangc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
