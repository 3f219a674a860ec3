package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"

	gateway "wsgateway/internal/microservices/websocket"
)

// ws_client.go = WebSocket client side of the gateway CLI

// Dial opens a connection to the gateway, sending token as a bearer header when set
func Dial(ctx context.Context, url, token string) (*websocket.Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Add("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection failed (%s): %w", resp.Status, err)
		}
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return conn, nil
}

// BuildCommand encodes a command envelope; args must be JSON when non-empty
func BuildCommand(op, channel, args, requestID string) ([]byte, error) {
	if op == "" {
		return nil, gateway.ErrEmptyOperation
	}
	cmd := gateway.Command{Op: op}
	if channel != "" {
		cmd.Channel = &channel
	}
	if requestID != "" {
		cmd.RequestID = &requestID
	}
	if args != "" {
		var v gateway.Value
		if err := json.Unmarshal([]byte(args), &v); err != nil {
			return nil, fmt.Errorf("invalid args: %w", err)
		}
		cmd.Args = &v
	}
	return json.Marshal(cmd)
}

// SendOnce writes payload and waits for the response carrying requestID.
// Frames for other requests are skipped.
func SendOnce(conn *websocket.Conn, payload []byte, requestID string, timeout time.Duration) (map[string]any, error) {
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if id, _ := msg["requestId"].(string); id == requestID {
			return msg, nil
		}
	}
}

// Interactive sends every line of in as a text frame and prints replies to out
// until in is exhausted, the user types /quit, or the server closes.
func Interactive(conn *websocket.Conn, in io.Reader, out io.Writer) error {
	done := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					err = nil
				}
				done <- err
				return
			}
			PrintMessage(out, data)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case err := <-done:
			return err
		case text, ok := <-lines:
			if !ok || strings.TrimSpace(text) == "/quit" {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				select {
				case err := <-done:
					return err
				case <-time.After(2 * time.Second):
					return nil
				}
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

// PrintMessage pretty prints one server frame: responses colored by code, anything else as-is
func PrintMessage(w io.Writer, data []byte) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		color.New(color.FgHiBlack).Fprintf(w, "%s\n", data)
		return
	}

	code, _ := msg["code"].(string)
	c := color.New(color.FgGreen)
	if code != gateway.CodeSuccess {
		c = color.New(color.FgRed)
	}

	pretty, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		pretty = data
	}
	c.Fprintf(w, "%s\n", pretty)
}
