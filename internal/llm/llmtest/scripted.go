// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/resume-grounder/internal/llm"
)

// Reply is one scripted outcome: a response or an error
type Reply struct {
	Response *llm.Response
	Err      error
}

// Text returns a successful reply carrying text and a token count
func Text(text string, tokens int64) Reply {
	return Reply{Response: &llm.Response{Text: text, Model: "scripted", OutputTokens: tokens}}
}

// Truncated returns a reply that stopped at the output-length limit
func Truncated(text string, tokens int64) Reply {
	return Reply{Response: &llm.Response{Text: text, Model: "scripted", Truncated: true, OutputTokens: tokens}}
}

// Failure returns a reply that fails with err
func Failure(err error) Reply {
	return Reply{Err: err}
}

// ScriptedClient replays replies in order and records the prompts it received
type ScriptedClient struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
}

// NewScriptedClient creates a client that returns replies in order
func NewScriptedClient(replies ...Reply) *ScriptedClient {
	return &ScriptedClient{replies: replies}
}

// Push appends more replies to the script
func (c *ScriptedClient) Push(replies ...Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
}

// Generate returns the next scripted reply
func (c *ScriptedClient) Generate(ctx context.Context, prompt string) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prompts = append(c.prompts, prompt)
	if len(c.replies) == 0 {
		return nil, fmt.Errorf("no scripted reply for call %d", len(c.prompts))
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	return next.Response, next.Err
}

// Calls returns how many times Generate was called
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// Prompts returns every prompt received so far
func (c *ScriptedClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Model returns a fixed name
func (c *ScriptedClient) Model() string {
	return "scripted"
}

// Close is a no-op
func (c *ScriptedClient) Close() error {
	return nil
}
