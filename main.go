package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/addteam/cmd/cli"
	"github.com/temirov/addteam/internal/reconcile"
)

const (
	exitErrorTemplateConstant = "%v\n"
	successExitCodeConstant   = 0
	failureExitCodeConstant   = 1
	usageExitCodeConstant     = 2
)

// main executes the addteam command-line application.
func main() {
	os.Exit(run())
}

func run() int {
	executionError := cli.Execute()
	if executionError == nil {
		return successExitCodeConstant
	}

	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)

	var invocationError reconcile.InvalidInvocationError
	if errors.As(executionError, &invocationError) {
		return usageExitCodeConstant
	}

	return failureExitCodeConstant
}
