package client

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		channel string
		args    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "op only", op: "echo", want: `{"op":"echo"}`},
		{name: "all fields", op: "echo", channel: "c", args: `{"x":1}`, id: "r1", want: `{"op":"echo","channel":"c","args":{"x":1},"requestId":"r1"}`},
		{name: "array args", op: "sum", args: `[1,2]`, want: `{"op":"sum","args":[1,2]}`},
		{name: "empty op", op: "", wantErr: true},
		{name: "bad args", op: "echo", args: `{x}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildCommand(tt.op, tt.channel, tt.args, tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestPrintMessage(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	PrintMessage(&buf, []byte(`{"code":"200","message":"success"}`))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "success", got["message"])

	buf.Reset()
	PrintMessage(&buf, []byte("pong"))
	assert.Equal(t, "pong\n", buf.String())
}
