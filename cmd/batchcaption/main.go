package main

import (
	"fmt"
	"os"

	"github.com/fluxyoga/batchcaption/pkg/cli"
)

var version = "1.0.0"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
