// Package conversation keeps one dialogue history per session id and
// forwards prompts to a language-model Generator.
package conversation

import "context"

// DefaultSession is used when a caller does not name a session.
const DefaultSession = "default"

// DefaultPreamble is prepended to every prompt sent to the model.
const DefaultPreamble = `My name is THE ENTITY. You are a helpful voice assistant.

Always begin every response with:
"How can I help you?"

Guidelines:
- Provide complete, natural responses.
- Keep answers conversational yet thorough.
- Always finish sentences clearly and completely.
- Speak in a friendly and clear manner.`

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role Role
	Text string
}

// Generator produces the model reply for prompt given the prior turns.
// Implementations must not retain or modify history.
type Generator interface {
	Generate(ctx context.Context, history []Turn, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, history []Turn, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, history []Turn, prompt string) (string, error) {
	return f(ctx, history, prompt)
}

// Conversation is an ordered list of turns.
type Conversation struct {
	turns []Turn
}

// Turns returns a copy of the history.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int { return len(c.turns) }

func (c *Conversation) appendExchange(user, assistant string) {
	c.turns = append(c.turns,
		Turn{Role: RoleUser, Text: user},
		Turn{Role: RoleAssistant, Text: assistant},
	)
}

// BuildPrompt renders the text sent to the model for one user utterance.
func BuildPrompt(preamble, userText string) string {
	return preamble + "\n\n" + "User: " + userText + "\nAssistant:"
}
