// main is the entry point of the finbench CLI.
package main

import (
	"github.com/huangsam/finbench/cmd"
	"github.com/huangsam/finbench/internal/contract"
)

func main() {
	err := cmd.Execute()
	if shutdownErr := cmd.Shutdown(); shutdownErr != nil {
		contract.LogWarn("Failed to flush traces", shutdownErr)
	}
	if err != nil {
		contract.LogFatal("finbench failed", err)
	}
}
