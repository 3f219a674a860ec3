package command

// root.go defines the root command for the gateway CLI.
// set up the global flags here.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string // Global flag for the gateway WebSocket URL
	token     string // authentication token(jwt)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wsgateway-cli",
	Short: "wsgateway-cli - talk to a wsgateway server",
	Long: `wsgateway-cli opens WebSocket sessions against a wsgateway server. Use it to:
- Send a single command and print its response
- Hold an interactive session and type raw frames

Use "wsgateway-cli command -h" to see all available commands.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "ws://localhost:8000/connect", "gateway WebSocket URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("WSGATEWAY_TOKEN"), "JWT sent as a bearer token")
}
