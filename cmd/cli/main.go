package main

import (
	"fmt"
	"os"

	"github.com/de-tools/cost-guardian/pkg/runtime/app"
	"github.com/de-tools/cost-guardian/pkg/runtime/terminal"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Factory: app.Build,
		Output:  os.Stdout,
		LogOut:  os.Stderr,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
