package main

import (
	"os"

	"github.com/mirrorkeep/iaget/cmd"
	"github.com/mirrorkeep/iaget/pkg/logging"
)

func main() {
	logging.SetupLogger()
	rootCMD := cmd.GetRootCommand()
	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}
