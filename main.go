// The main package for the wmscan executable.
package main

import (
	"github.com/WakiJi/wmscan/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
