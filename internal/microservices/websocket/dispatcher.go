package websocket

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Handler is the business logic behind one or more operations.
// Process may answer zero or more times through the session, synchronously
// or from its own goroutines.
type Handler interface {
	Name() string
	Matches(cmd *Command) bool
	Process(sess *Session, cmd *Command)
}

type funcHandler struct {
	name    string
	match   func(*Command) bool
	process func(*Session, *Command)
}

func (h funcHandler) Name() string                        { return h.name }
func (h funcHandler) Matches(cmd *Command) bool           { return h.match(cmd) }
func (h funcHandler) Process(sess *Session, cmd *Command) { h.process(sess, cmd) }

// HandlerFunc builds a Handler from plain functions
func HandlerFunc(name string, match func(*Command) bool, process func(*Session, *Command)) Handler {
	return funcHandler{name: name, match: match, process: process}
}

// MatchOp returns a predicate accepting commands whose op equals op
func MatchOp(op string) func(*Command) bool {
	return func(cmd *Command) bool { return cmd.Op == op }
}

// Dispatcher routes each command to the first registered handler that matches it
type Dispatcher struct {
	handlers []Handler
	names    map[string]struct{}
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewDispatcher registers handlers in order; a duplicate or unnamed handler is a configuration error
func NewDispatcher(logger *slog.Logger, handlers ...Handler) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		names:  make(map[string]struct{}),
		logger: logger,
	}
	for _, h := range handlers {
		if err := d.Register(h); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Register appends h; earlier registrations win when several handlers match
func (d *Dispatcher) Register(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	name := h.Name()
	if name == "" {
		return ErrEmptyHandlerName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.names[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, name)
	}
	d.names[name] = struct{}{}
	d.handlers = append(d.handlers, h)

	d.logger.Info("handler_registered",
		"handler", name,
		"position", len(d.handlers)-1,
	)
	return nil
}

// Names returns handler names in priority order
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for _, h := range d.handlers {
		names = append(names, h.Name())
	}
	return names
}

// Dispatch invokes exactly one matching handler and returns its name.
// ok is false when nothing matched; the command is then left unanswered.
// A panicking handler is recovered and answered with the server error preset.
func (d *Dispatcher) Dispatch(sess *Session, cmd *Command) (name string, ok bool) {
	d.mu.RLock()
	var target Handler
	for _, h := range d.handlers {
		if h.Matches(cmd) {
			target = h
			break
		}
	}
	d.mu.RUnlock()

	if target == nil {
		return "", false
	}

	name = target.Name()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler_panic",
				"handler", name,
				"session_id", sess.ID,
				"op", cmd.Op,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			_ = sess.SendResponse(ResponseFrom(cmd).WithServerError())
			ok = true
		}
	}()
	target.Process(sess, cmd)
	return name, true
}
