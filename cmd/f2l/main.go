package main

import (
	"fmt"
	"os"

	"github.com/babupakkakivellu/File-To-Link/config"
	"github.com/spf13/cobra"
)

var versionString = fmt.Sprintf("File To Link v%s", config.Version)

var rootCmd = &cobra.Command{
	Use:     "f2l",
	Short:   "Telegram file-to-link gateway",
	Long:    "Stores files sent to the bot in a private archive channel and serves them back over seekable HTTP download links.",
	Version: versionString,
}

func init() {
	rootCmd.AddCommand(runCmd)
	config.SetFlagsFromConfig(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
