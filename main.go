package main

import (
	"os"

	"github.com/scan-io-git/scanio-gate/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
