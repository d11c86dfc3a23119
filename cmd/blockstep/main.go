package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/zurustar/blockstep/pkg/app"
)

//go:embed programs
var embeddedPrograms embed.FS

func main() {
	application := app.New(embeddedPrograms)
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
