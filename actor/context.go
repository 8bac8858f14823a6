package actor

// Context is what an Actor's Receive method uses to inspect the
// current message and to talk back to the engine that dispatched it.
type Context interface {
	// Engine returns the Engine managing this actor.
	Engine() *Engine
	// Self returns the PID of the actor processing the message.
	Self() *PID
	// Sender returns the PID of the actor that sent the message, or
	// nil if it originated outside the actor system (e.g. a timer).
	Sender() *PID
	// Message returns the message being processed.
	Message() interface{}
	// RequestID returns the correlation id set by Engine.Ask, or the
	// empty string if this message was a plain Send.
	RequestID() string
	// Reply answers an Ask call. A no-op if RequestID() is empty or
	// the asker has already timed out.
	Reply(value interface{})
}

type context struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
}

func (c *context) Engine() *Engine        { return c.engine }
func (c *context) Self() *PID             { return c.self }
func (c *context) Sender() *PID           { return c.sender }
func (c *context) Message() interface{}   { return c.message }
func (c *context) RequestID() string      { return c.requestID }
func (c *context) Reply(value interface{}) {
	if c.requestID == "" {
		return
	}
	c.engine.reply(c.requestID, value)
}
