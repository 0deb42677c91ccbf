package main

import (
	"fmt"
	"os"

	"github.com/de-tools/cost-guardian/pkg/runtime/app"
	"github.com/de-tools/cost-guardian/pkg/runtime/terminal"
)

func main() {
	rootCmd := terminal.NewServerCmd(terminal.Options{
		Factory: app.Build,
		Output:  os.Stdout,
		LogOut:  os.Stdout,
	})
	rootCmd.Short = "Start the cost guardian scheduler and web server"

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
