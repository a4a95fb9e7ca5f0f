package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxbrief application
var rootCmd = &cobra.Command{
	Use:   "inboxbrief",
	Short: "Streams LLM briefings and reply drafts for your Gmail inbox",
	Long: `inboxbrief is an HTTP service that fetches your unread Gmail, asks a
language model to triage it, and streams the result over Server-Sent Events.

Endpoints:
  POST /agent        insight digest of unread mail
  POST /narrative    the same digest, narrated as prose
  POST /draft-reply  generate and save a Gmail reply draft`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxbrief version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("inboxbrief version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
