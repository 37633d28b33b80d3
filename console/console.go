// Package console carries human readable diagnostics from the audio thread to
// the UI thread. Any number of goroutines may log through a Sender; a single
// reader drains the messages into a bounded history with Update.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/mlemrecords/mlem"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

const (
	// Capacity is the number of log lines retained by the console.
	Capacity = 64
	// pending is the number of messages that can be in flight before senders
	// start dropping them.
	pending = 1024
)

type (
	// Console is the receiving end. It is not safe for concurrent use: only
	// one goroutine (typically the UI) should call its methods.
	Console struct {
		messages chan string
		dropped  *atomic.Int64
		logger   zerolog.Logger

		logs    mlem.RingBuffer[string]
		counter int
		text    string
		dirty   bool
	}

	// Sender is a cheap, copyable handle for logging into a Console. The zero
	// Sender is valid and logs straight to the global zerolog logger.
	Sender struct {
		messages chan<- string
		dropped  *atomic.Int64
	}
)

// New creates a console that echoes every received line to logger.
func New(logger zerolog.Logger) *Console {
	return &Console{
		messages: make(chan string, pending),
		dropped:  atomic.NewInt64(0),
		logger:   logger,
		logs:     mlem.MakeRingBuffer[string](Capacity),
	}
}

// Sender returns a new handle for logging into the console.
func (c *Console) Sender() Sender {
	return Sender{messages: c.messages, dropped: c.dropped}
}

// Log formats a message and queues it for the console. It never blocks: if
// the console has not been drained and the queue is full, the message is
// dropped and counted.
func (s Sender) Log(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	if s.messages == nil {
		log.Warn().Str("message", message).Msg("no console attached, log not registered by a receiver")
		return
	}
	if !trySend(s.messages, message) {
		s.dropped.Inc()
	}
}

// Log adds a message directly, bypassing the queue. Meant for the reader's own
// goroutine.
func (c *Console) Log(format string, args ...any) {
	c.add(fmt.Sprintf(format, args...))
}

// Update drains all queued messages into the history. It reports whether
// anything new arrived.
func (c *Console) Update() bool {
	updated := false
	for {
		select {
		case message := <-c.messages:
			c.add(message)
			updated = true
		default:
			return updated
		}
	}
}

// Pump calls Update every interval until done is closed. Pump takes over the
// reader role; nothing else may call the console's methods while it runs.
func (c *Console) Pump(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			c.Update()
			return
		case <-ticker.C:
			c.Update()
		}
	}
}

// String returns the retained history, newest line first.
func (c *Console) String() string {
	c.Update()
	if c.dirty {
		var b strings.Builder
		for line := range c.logs.Newest {
			b.WriteString(line)
		}
		c.text = strings.TrimRight(b.String(), "\n")
		c.dirty = false
	}
	return c.text
}

// Last returns the newest line, without the trailing newline.
func (c *Console) Last() string {
	c.Update()
	line, _ := c.logs.Last()
	return strings.TrimRight(line, "\n")
}

// Dropped returns how many messages were lost because the queue was full.
func (c *Console) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Console) add(message string) {
	line := fmt.Sprintf("[%04d] %s\n", c.counter, message)
	c.logger.Info().Int("seq", c.counter).Msg(message)
	c.logs.WriteWrapSingle(line)
	c.counter++
	c.dirty = true
}

// trySend sends v to c if c is not full. It never blocks.
func trySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
