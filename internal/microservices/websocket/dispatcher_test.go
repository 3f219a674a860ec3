package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHandler mocks the Handler interface
type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) Name() string {
	return m.Called().String(0)
}

func (m *MockHandler) Matches(cmd *Command) bool {
	return m.Called(cmd).Bool(0)
}

func (m *MockHandler) Process(sess *Session, cmd *Command) {
	m.Called(sess, cmd)
}

func newMockHandler(name string, matches bool) *MockHandler {
	h := new(MockHandler)
	h.On("Name").Return(name)
	h.On("Matches", mock.Anything).Return(matches)
	return h
}

func mustDecode(t *testing.T, raw string) *Command {
	t.Helper()
	cmd, err := DecodeCommand([]byte(raw))
	require.NoError(t, err)
	return cmd
}

func TestDispatcher_FirstMatchWins(t *testing.T) {
	skip := newMockHandler("skip", false)
	first := newMockHandler("first", true)
	second := newMockHandler("second", true)
	first.On("Process", mock.Anything, mock.Anything).Return()

	d, err := NewDispatcher(discardLogger(), skip, first, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"skip", "first", "second"}, d.Names())

	sess, _ := newTestSession(1)
	cmd := mustDecode(t, `{"op":"x"}`)

	name, ok := d.Dispatch(sess, cmd)
	assert.True(t, ok)
	assert.Equal(t, "first", name)

	first.AssertCalled(t, "Process", sess, cmd)
	second.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	second.AssertNotCalled(t, "Matches", mock.Anything)
}

func TestDispatcher_NoMatch(t *testing.T) {
	h := newMockHandler("never", false)
	d, err := NewDispatcher(discardLogger(), h)
	require.NoError(t, err)

	sess, outbound := newTestSession(1)
	name, ok := d.Dispatch(sess, mustDecode(t, `{"op":"x"}`))

	assert.False(t, ok)
	assert.Empty(t, name)
	assert.Empty(t, outbound)
	h.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestDispatcher_EmptyRegistry(t *testing.T) {
	d, err := NewDispatcher(nil)
	require.NoError(t, err)

	sess, _ := newTestSession(1)
	_, ok := d.Dispatch(sess, mustDecode(t, `{"op":"x"}`))
	assert.False(t, ok)
}

func TestDispatcher_RegisterErrors(t *testing.T) {
	d, err := NewDispatcher(discardLogger(), newMockHandler("a", true))
	require.NoError(t, err)

	err = d.Register(newMockHandler("a", false))
	assert.ErrorIs(t, err, ErrDuplicateHandler)
	assert.Contains(t, err.Error(), "a")

	assert.ErrorIs(t, d.Register(nil), ErrNilHandler)
	assert.ErrorIs(t, d.Register(newMockHandler("", true)), ErrEmptyHandlerName)

	// failed registrations leave the order untouched
	assert.Equal(t, []string{"a"}, d.Names())

	_, err = NewDispatcher(discardLogger(), newMockHandler("b", true), newMockHandler("b", true))
	assert.ErrorIs(t, err, ErrDuplicateHandler)
}

func TestDispatcher_PanicAnsweredWithServerError(t *testing.T) {
	h := newMockHandler("boom", true)
	h.On("Process", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("nil map")
	})
	d, err := NewDispatcher(discardLogger(), h)
	require.NoError(t, err)

	sess, outbound := newTestSession(1)
	name, ok := d.Dispatch(sess, mustDecode(t, `{"op":"boom","channel":"c","requestId":"r"}`))
	assert.True(t, ok)
	assert.Equal(t, "boom", name)

	require.Len(t, outbound, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal((<-outbound).Payload, &got))
	assert.Equal(t, map[string]any{
		"code":      "500",
		"message":   "server error",
		"op":        "boom",
		"channel":   "c",
		"requestId": "r",
	}, got)
}

func TestMatchOp(t *testing.T) {
	match := MatchOp("echo")
	assert.True(t, match(&Command{Op: "echo"}))
	assert.False(t, match(&Command{Op: "Echo"}))
	assert.False(t, match(&Command{Op: "echo2"}))
}
