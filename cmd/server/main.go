package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/projectannie/contactd/internal/config"
	"github.com/projectannie/contactd/internal/logging"
	"github.com/projectannie/contactd/internal/version"
)

const serviceName = "contactd"

var rootCmd = &cobra.Command{
	Use:   "contactd",
	Short: "contactd - contact form submission service",
	Long: `contactd accepts contact form submissions over HTTP, rate limits them per
client, filters bots and invalid input, and forwards accepted inquiries
to the operator mailbox.

Running contactd without a subcommand starts the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetFullVersionString())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(notifyTestCmd)
	rootCmd.AddCommand(versionCmd)

	notifyTestCmd.Flags().String("to", "", "Recipient address (defaults to CONTACT_EMAIL)")
}

// initLogger configures the global logger from cfg. File logging is skipped
// for one-shot commands.
func initLogger(cfg *config.Config, withFile bool) (*logging.Logger, error) {
	logConfig := logging.DefaultConfig()
	logConfig.Level = cfg.LogLevel
	logConfig.Requests = cfg.LogRequests
	logConfig.File = ""
	if withFile {
		logConfig.File = cfg.LogFile
	}

	if err := logConfig.Validate(); err != nil {
		return nil, err
	}
	if err := logging.InitLogger(logConfig); err != nil {
		return nil, err
	}
	return logging.GetGlobalLogger(), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
