// The main package for the shopscraper executable.
package main

import (
	"github.com/dteproject/shopscraper/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
