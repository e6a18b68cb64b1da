package main

import (
	"fmt"
	"os"

	"github.com/subosito/gotenv"
)

func main() {
	_ = gotenv.Load()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "billgen: %v\n", err)
		os.Exit(1)
	}
}
