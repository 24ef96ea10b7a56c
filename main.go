// ./main.go
package main

import (
	"github.com/xkilldash9x/testlab/cmd"
)

// main is the entry point for the testlab CLI.
func main() {
	cmd.Execute()
}
