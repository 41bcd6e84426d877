// Package assistant is the model-exchange host used by the demo binary. It
// feeds the orchestrator's system prompt and the session history to a
// tool-calling chat model, runs requested tools through the session and
// reports every outcome back before the next model step.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/chative-orchestrator/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	statex "github.com/tanpawarit/chative-orchestrator/agent/state"
)

const DefaultMaxSteps = 5

var ErrStepLimit = errors.New("model did not produce a reply within the step limit")

// Session is the part of the orchestrator the assistant drives.
type Session interface {
	ProcessInput(ctx context.Context, text string) (orchestratorx.ProcessResult, error)
	History() []statex.Turn
	ExecuteTool(ctx context.Context, name string, params map[string]any) contractx.ToolResult
	HandleToolResult(name string, result contractx.ToolResult) statex.ConversationState
	RecordAssistantReply(content string)
}

var _ Session = (*orchestratorx.Orchestrator)(nil)

type ToolCall struct {
	Name   string               `json:"name"`
	Params map[string]any       `json:"params,omitempty"`
	Result contractx.ToolResult `json:"result"`
}

type Reply struct {
	Message   string                      `json:"message"`
	ToolCalls []ToolCall                  `json:"tool_calls,omitempty"`
	Steps     int                         `json:"steps"`
	Result    orchestratorx.ProcessResult `json:"result"`
}

type Option func(*Assistant)

func WithMaxSteps(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

type Assistant struct {
	runner   compose.Runnable[[]*schema.Message, *schema.Message]
	allowed  map[string]struct{}
	maxSteps int
}

// New binds tools to chatModel and compiles the per-step graph.
func New(ctx context.Context, chatModel einomodel.ToolCallingChatModel, tools []*schema.ToolInfo, opts ...Option) (*Assistant, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	toolModel, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
	}
	runner, err := compileModelStepGraph(ctx, toolModel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	allowed := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowed[t.Name] = struct{}{}
	}

	a := &Assistant{
		runner:   runner,
		allowed:  allowed,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Reply runs one user turn to completion.
func (a *Assistant) Reply(ctx context.Context, session Session, text string) (Reply, error) {
	result, err := session.ProcessInput(ctx, text)
	if err != nil {
		return Reply{}, err
	}

	reply := Reply{Result: result}
	msgs := buildMessages(result.Prompt, session.History())

	for reply.Steps < a.maxSteps {
		reply.Steps++
		msg, err := a.runner.Invoke(ctx, msgs)
		if err != nil {
			return reply, fmt.Errorf("%w: model step %d: %v", contractx.ErrModelInvoke, reply.Steps, err)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return reply, fmt.Errorf("%w: model returned neither text nor tool calls", contractx.ErrSchemaViolation)
			}
			session.RecordAssistantReply(content)
			reply.Message = content
			return reply, nil
		}

		msgs = append(msgs, msg)
		for _, call := range msg.ToolCalls {
			executed := a.runToolCall(ctx, session, call)
			reply.ToolCalls = append(reply.ToolCalls, executed)
			msgs = append(msgs, schema.ToolMessage(encodeToolResult(executed.Result), call.ID))
		}
	}

	log.Warn().
		Int("steps", reply.Steps).
		Int("tool_calls", len(reply.ToolCalls)).
		Msg("assistant stopped at step limit")
	return reply, ErrStepLimit
}

func (a *Assistant) runToolCall(ctx context.Context, session Session, call schema.ToolCall) ToolCall {
	name := strings.TrimSpace(call.Function.Name)
	params, err := toToolArgs(call)
	if err == nil {
		if _, ok := a.allowed[name]; !ok {
			err = fmt.Errorf("%w: tool %q was not offered to the model", contractx.ErrSchemaViolation, name)
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("rejected tool call")
		result := contractx.ToolResult{Success: false, Message: err.Error()}
		session.HandleToolResult(name, result)
		return ToolCall{Name: name, Result: result}
	}

	return ToolCall{
		Name:   name,
		Params: params,
		Result: session.ExecuteTool(ctx, name, params),
	}
}

func toToolArgs(call schema.ToolCall) (map[string]any, error) {
	name := strings.TrimSpace(call.Function.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
	}

	args := map[string]any{}
	raw := strings.TrimSpace(call.Function.Arguments)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("%w: invalid arguments for tool %s: %v", contractx.ErrSchemaViolation, name, err)
		}
	}
	return args, nil
}

func buildMessages(systemPrompt string, history []statex.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+1)
	msgs = append(msgs, schema.SystemMessage(systemPrompt))
	for _, turn := range history {
		switch turn.Role {
		case statex.RoleUser:
			msgs = append(msgs, schema.UserMessage(turn.Content))
		case statex.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(turn.Content, nil))
		case statex.RoleSystem:
			msgs = append(msgs, schema.SystemMessage(turn.Content))
		}
	}
	return msgs
}

func encodeToolResult(result contractx.ToolResult) string {
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"success":%t,"message":%q}`, result.Success, result.Message)
	}
	return string(b)
}
