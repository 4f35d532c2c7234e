package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/casefind/casefind/internal/llm"
)

// Options bound a single reasoning run.
type Options struct {
	// MaxIterations caps the number of model calls per run.
	MaxIterations int
	// Timeout is the wall-clock budget per run.
	Timeout time.Duration
}

// DefaultOptions returns the standard run bounds.
func DefaultOptions() Options {
	return Options{
		MaxIterations: 6,
		Timeout:       120 * time.Second,
	}
}

// Outcome is the result of one reasoning run. Turns holds every message
// produced during the run (the user query, assistant tool-call turns,
// tool results, and the final answer) in order, ready to append to the
// thread.
type Outcome struct {
	Answer    string
	Turns     []llm.Message
	Truncated bool
}

// Loop drives the model through alternating reasoning and tool
// execution until it produces a plain answer or hits a bound.
type Loop struct {
	provider llm.Provider
	tools    map[string]Tool
	defs     []llm.Tool
	opts     Options
}

// NewLoop creates a reasoning loop over the given provider and tools.
func NewLoop(provider llm.Provider, tools []Tool, opts Options) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}

	byName := make(map[string]Tool, len(tools))
	defs := make([]llm.Tool, 0, len(tools))
	for _, t := range tools {
		def := t.Definition()
		byName[def.Name] = t
		defs = append(defs, def)
	}

	return &Loop{
		provider: provider,
		tools:    byName,
		defs:     defs,
		opts:     opts,
	}
}

// Run answers query given the prior thread history. history must not
// include a system message; the loop supplies its own.
func (l *Loop) Run(ctx context.Context, history []llm.Message, query string) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	userMsg := llm.Message{Role: llm.RoleUser, Content: query}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, userMsg)

	turns := []llm.Message{userMsg}

	for i := 0; i < l.opts.MaxIterations; i++ {
		resp, err := l.provider.Complete(ctx, llm.CompletionRequest{
			Messages: messages,
			Tools:    l.defs,
		})
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			answer := llm.Message{Role: llm.RoleAssistant, Content: resp.Content}
			turns = append(turns, answer)
			return &Outcome{Answer: resp.Content, Turns: turns}, nil
		}

		assistantMsg := llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		messages = append(messages, assistantMsg)
		turns = append(turns, assistantMsg)

		for _, call := range resp.ToolCalls {
			result := l.execute(ctx, call)
			toolMsg := llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			}
			messages = append(messages, toolMsg)
			turns = append(turns, toolMsg)
		}
	}

	// Iteration ceiling reached. Force a final answer from what has been
	// gathered so far by withholding the tools.
	resp, err := l.provider.Complete(ctx, llm.CompletionRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("forced final answer failed: %w", err)
	}

	answer := llm.Message{Role: llm.RoleAssistant, Content: resp.Content}
	turns = append(turns, answer)
	return &Outcome{Answer: resp.Content, Turns: turns, Truncated: true}, nil
}

func (l *Loop) execute(ctx context.Context, call llm.ToolCall) string {
	tool, ok := l.tools[call.Name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", call.Name)
	}
	return tool.Execute(ctx, call.Arguments)
}
