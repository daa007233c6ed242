// Package assistant runs the half-duplex listen, think, speak loop.
package assistant

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"voxchat/internal/conversation"
	"voxchat/internal/failure"
)

const (
	Greeting          = "Hello! I'm THE ENTITY. How can I help you today?"
	Farewell          = "Goodbye! Have a great day!"
	ResetConfirmation = "Conversation history cleared. How can I help you?"
	Apology           = "I'm sorry, I encountered an error. Please try again."
	InterruptFarewell = "Goodbye!"
)

var (
	exitWords  = []string{"quit", "exit", "stop", "goodbye"}
	resetWords = []string{"reset", "clear", "start over"}
)

type Listener interface {
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string)
}

type Chat interface {
	Submit(ctx context.Context, sessionID, userText string) (string, error)
	Reset(sessionID string)
}

// Cue is played right before each listen.
type Cue interface {
	Play(ctx context.Context)
}

type Options struct {
	SessionID     string
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
	// RetryDelay throttles re-listening after a recognition service error.
	RetryDelay time.Duration
	Cue        Cue
	Out        io.Writer
	Logger     *log.Logger
}

type Assistant struct {
	listener Listener
	speaker  Speaker
	chat     Chat
	opts     Options
	logger   *log.Logger

	state State
}

func New(l Listener, s Speaker, c Chat, opts Options) *Assistant {
	if opts.SessionID == "" {
		opts.SessionID = conversation.DefaultSession
	}
	if opts.ListenTimeout <= 0 {
		opts.ListenTimeout = 5 * time.Second
	}
	if opts.PhraseLimit <= 0 {
		opts.PhraseLimit = 10 * time.Second
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Assistant{
		listener: l,
		speaker:  s,
		chat:     c,
		opts:     opts,
		logger:   logger,
		state:    StateIdle,
	}
}

func (a *Assistant) State() State { return a.state }

// Run greets the user and loops until an exit word is heard or ctx is
// cancelled. Cancellation is the external interrupt: a short farewell is
// spoken on a detached context and Run returns nil.
func (a *Assistant) Run(ctx context.Context) error {
	if err := a.fire(EventGreet); err != nil {
		return err
	}
	a.speaker.Speak(ctx, Greeting)
	if ctx.Err() != nil {
		return a.interrupt(ctx)
	}
	if err := a.fire(EventSpoken); err != nil {
		return err
	}

	for a.state != StateEnded {
		if ctx.Err() != nil {
			return a.interrupt(ctx)
		}
		if err := a.step(ctx); err != nil {
			if ctx.Err() != nil {
				return a.interrupt(ctx)
			}
			return err
		}
	}
	return nil
}

func (a *Assistant) step(ctx context.Context) error {
	if a.opts.Cue != nil {
		a.opts.Cue.Play(ctx)
	}

	text, err := a.listener.Listen(ctx, a.opts.ListenTimeout, a.opts.PhraseLimit)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.noTranscript(ctx, err)
		return a.fire(EventNoTranscript)
	}

	fmt.Fprintf(a.opts.Out, "\nYou: %s\n", text)
	if err := a.fire(EventTranscript); err != nil {
		return err
	}

	switch {
	case matches(text, exitWords):
		if err := a.fire(EventExit); err != nil {
			return err
		}
		a.say(ctx, Farewell)
		fmt.Fprintln(a.opts.Out, "\nSession ended")
		return a.fire(EventFinish)

	case matches(text, resetWords):
		if err := a.fire(EventReset); err != nil {
			return err
		}
		a.chat.Reset(a.opts.SessionID)
		a.logger.Info("Conversation reset", "session", a.opts.SessionID)
		a.say(ctx, ResetConfirmation)
		return a.fire(EventSpoken)
	}

	if err := a.fire(EventQuery); err != nil {
		return err
	}
	fmt.Fprintln(a.opts.Out, "Thinking...")

	reply, err := a.chat.Submit(ctx, a.opts.SessionID, text)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Error("Failed to process query", "err", err)
		if err := a.fire(EventFail); err != nil {
			return err
		}
		a.say(ctx, Apology)
	} else {
		if err := a.fire(EventReply); err != nil {
			return err
		}
		a.say(ctx, reply)
	}
	return a.fire(EventSpoken)
}

func (a *Assistant) noTranscript(ctx context.Context, err error) {
	if failure.NoTranscript(err) {
		a.logger.Debug("Nothing recognized", "kind", failure.KindOf(err))
		return
	}

	a.logger.Warn("Recognition failed", "kind", failure.KindOf(err), "err", err)
	if a.opts.RetryDelay == 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(a.opts.RetryDelay):
	}
}

func (a *Assistant) say(ctx context.Context, text string) {
	fmt.Fprintf(a.opts.Out, "Assistant: %s\n", text)
	a.speaker.Speak(ctx, text)
}

func (a *Assistant) interrupt(ctx context.Context) error {
	fmt.Fprintln(a.opts.Out, "\n\nInterrupted by user")

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	a.speaker.Speak(sctx, InterruptFarewell)

	return a.fire(EventInterrupt)
}

func (a *Assistant) fire(ev Event) error {
	next, err := Transition(a.state, ev)
	if err != nil {
		return err
	}
	a.logger.Debug("State", "from", a.state, "event", ev, "to", next)
	a.state = next
	return nil
}

// matches compares a transcript against command words, ignoring case,
// surrounding whitespace and trailing punctuation.
func matches(text string, words []string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRight(t, ".!?,")
	return slices.Contains(words, strings.TrimSpace(t))
}
