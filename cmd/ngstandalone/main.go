package main

import (
	"os"

	"ngstandalone/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
