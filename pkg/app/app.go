// Package app defines the contract cmd/* binaries use to start the
// association server and its migration runner without depending on their
// concrete wiring.
package app

import (
	"fmt"
	"io"
	"os"
)

// Runner is a runnable application component.
type Runner interface {
	Run() error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func() error

func (f RunnerFunc) Run() error { return f() }

// Main runs r and exits non-zero when it fails.
func Main(name string, r Runner) {
	os.Exit(run(os.Stderr, name, r))
}

func run(stderr io.Writer, name string, r Runner) int {
	if err := r.Run(); err != nil {
		fmt.Fprintf(stderr, "%s failed: %v\n", name, err)
		return 1
	}
	return 0
}
