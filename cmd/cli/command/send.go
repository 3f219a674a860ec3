package command

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wsgateway/cmd/cli/command/client"
)

var (
	sendOp      string
	sendChannel string
	sendArgs    string
	sendTimeout time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one command and print its response",
	Example: `  wsgateway-cli send --op echo --args '{"x":1}'
  wsgateway-cli send --op subscribe --channel news`,
	RunE: func(cmd *cobra.Command, args []string) error {
		requestID := uuid.NewString()
		payload, err := client.BuildCommand(sendOp, sendChannel, sendArgs, requestID)
		if err != nil {
			return err
		}

		conn, err := client.Dial(cmd.Context(), serverURL, token)
		if err != nil {
			return err
		}
		defer conn.Close()

		resp, err := client.SendOnce(conn, payload, requestID, sendTimeout)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		client.PrintMessage(os.Stdout, raw)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendOp, "op", "", "command operation (required)")
	sendCmd.Flags().StringVar(&sendChannel, "channel", "", "command channel")
	sendCmd.Flags().StringVar(&sendArgs, "args", "", "command args as JSON")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 5*time.Second, "how long to wait for the response")
	_ = sendCmd.MarkFlagRequired("op")
	rootCmd.AddCommand(sendCmd)
}
