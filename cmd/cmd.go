package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mirrorkeep/iaget/cmd/fetch"
	"github.com/mirrorkeep/iaget/cmd/mirror"
	"github.com/mirrorkeep/iaget/cmd/root"
	"github.com/mirrorkeep/iaget/cmd/search"
	"github.com/mirrorkeep/iaget/cmd/version"
)

func GetRootCommand() *cobra.Command {
	rootCMD := root.GetCommand()
	rootCMD.AddCommand(search.GetCommand())
	rootCMD.AddCommand(fetch.GetCommand())
	rootCMD.AddCommand(mirror.GetCommand())
	rootCMD.AddCommand(version.VersionCMD)
	return rootCMD
}
