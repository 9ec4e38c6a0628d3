package main

import (
	"fmt"
	"os"
)

func main() {
	code, err := Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vx: %v\n", err)
	}
	os.Exit(code)
}
