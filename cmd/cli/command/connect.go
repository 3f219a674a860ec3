package command

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wsgateway/cmd/cli/command/client"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Open an interactive session",
	Long: `Open a session and send every stdin line as a text frame.
Replies are printed as they arrive. Type /quit to close the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := client.Dial(cmd.Context(), serverURL, token)
		if err != nil {
			return err
		}
		defer conn.Close()

		color.Green("Connected to %s (type /quit to exit)", serverURL)
		return client.Interactive(conn, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
