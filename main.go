package main

import (
	"os"

	"github.com/appclacks/mtbi/cmd"
)

func main() {
	err := cmd.Run()
	if err != nil {
		os.Exit(2)
	}
}
