package websocket

import (
	"encoding/json"
	"fmt"
)

// Message protocol definitions, JSON over text frames

// Response codes and messages
const (
	CodeSuccess       = "200"
	CodeBadCommand    = "4001"
	CodeInvalidParams = "4006"
	CodeRateLimited   = "4029"
	CodeServerError   = "500"

	MessageSuccess       = "success"
	MessageBadCommand    = "bad command"
	MessageInvalidParams = "invalid params"
	MessageRateLimited   = "too many requests"
	MessageServerError   = "server error"
)

// Command is an inbound request: {"op","channel","args","requestId"}
type Command struct {
	Op        string  `json:"op"`
	Channel   *string `json:"channel,omitempty"`
	Args      *Value  `json:"args,omitempty"`
	RequestID *string `json:"requestId,omitempty"`
}

// DecodeCommand parses a text payload into a Command.
// A payload without a non-empty op is rejected so every decoded Command can be routed.
func DecodeCommand(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	if cmd.Op == "" {
		return nil, ErrEmptyOperation
	}
	return &cmd, nil
}

// ChannelName returns the channel or "" when absent
func (c *Command) ChannelName() string {
	if c.Channel == nil {
		return ""
	}
	return *c.Channel
}

// ID returns the request id or "" when absent
func (c *Command) ID() string {
	if c.RequestID == nil {
		return ""
	}
	return *c.RequestID
}

// Response is an outbound envelope: {"code","message","op","channel","data","requestId"}.
// Absent optional fields are omitted, never written as null.
type Response struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	Op        *string `json:"op,omitempty"`
	Channel   *string `json:"channel,omitempty"`
	Data      any     `json:"data,omitempty"`
	RequestID *string `json:"requestId,omitempty"`
}

// NewResponse returns a success response with no correlation fields
func NewResponse() *Response {
	return &Response{Code: CodeSuccess, Message: MessageSuccess}
}

// ResponseFrom returns a success response carrying the command's op, channel and requestId
func ResponseFrom(cmd *Command) *Response {
	resp := NewResponse()
	op := cmd.Op
	resp.Op = &op
	if cmd.Channel != nil {
		channel := *cmd.Channel
		resp.Channel = &channel
	}
	if cmd.RequestID != nil {
		id := *cmd.RequestID
		resp.RequestID = &id
	}
	return resp
}

// WithData attaches a payload
func (r *Response) WithData(data any) *Response {
	r.Data = data
	return r
}

func (r *Response) WithSuccess() *Response {
	r.Code, r.Message = CodeSuccess, MessageSuccess
	return r
}

func (r *Response) WithBadCommand() *Response {
	r.Code, r.Message = CodeBadCommand, MessageBadCommand
	return r
}

func (r *Response) WithInvalidParams() *Response {
	r.Code, r.Message = CodeInvalidParams, MessageInvalidParams
	return r
}

func (r *Response) WithServerError() *Response {
	r.Code, r.Message = CodeServerError, MessageServerError
	return r
}

func (r *Response) WithRateLimited() *Response {
	r.Code, r.Message = CodeRateLimited, MessageRateLimited
	return r
}

// ToJSON: marshal Response to its wire form
func (r *Response) ToJSON() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return data, nil
}
