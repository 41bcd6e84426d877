package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	orchestratorx "github.com/tanpawarit/chative-orchestrator/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	statex "github.com/tanpawarit/chative-orchestrator/agent/state"
	todox "github.com/tanpawarit/chative-orchestrator/agent/todo"
	toolx "github.com/tanpawarit/chative-orchestrator/agent/tool"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
	bound     []*schema.ToolInfo
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.bound = tools
	return f, nil
}

func toolCallMessage(id, name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:       id,
			Function: schema.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func newSession(t *testing.T) (*orchestratorx.Orchestrator, *toolx.Registry, *todox.Manager) {
	t.Helper()
	reg := toolx.NewRegistry()
	todos := todox.NewManager()
	toolx.RegisterDefaults(reg, todos)

	o, err := orchestratorx.New("s-1", reg, nil, nil, orchestratorx.DefaultConfig())
	if err != nil {
		t.Fatalf("orchestrator.New() error = %v", err)
	}
	return o, reg, todos
}

func TestReplyWithoutTools(t *testing.T) {
	t.Parallel()

	session, reg, _ := newSession(t)
	fake := &fakeToolCallingModel{responses: []*schema.Message{
		schema.AssistantMessage("Sure, noted.", nil),
	}}
	a, err := New(context.Background(), fake, reg.ToolInfos())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(fake.bound) != reg.Len() {
		t.Fatalf("bound %d tools, want %d", len(fake.bound), reg.Len())
	}

	reply, err := a.Reply(context.Background(), session, "buy milk")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply.Message != "Sure, noted." || reply.Steps != 1 {
		t.Fatalf("unexpected reply: %#v", reply)
	}

	input := fake.inputs[0]
	if len(input) != 2 || input[0].Role != schema.System || input[1].Content != "buy milk" {
		t.Fatalf("unexpected model input: %#v", input)
	}
	if input[0].Content != reply.Result.Prompt {
		t.Fatal("system message should be the composed prompt")
	}

	history := session.History()
	if len(history) != 2 || history[1].Role != statex.RoleAssistant || history[1].Content != "Sure, noted." {
		t.Fatalf("unexpected history: %#v", history)
	}
}

func TestReplyExecutesToolCalls(t *testing.T) {
	t.Parallel()

	session, reg, todos := newSession(t)
	fake := &fakeToolCallingModel{responses: []*schema.Message{
		toolCallMessage("call-1", toolx.ToolAddTodo, `{"task":"buy milk","priority":"high"}`),
		schema.AssistantMessage("Added buy milk.", nil),
	}}
	a, err := New(context.Background(), fake, reg.ToolInfos())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	reply, err := a.Reply(context.Background(), session, "add buy milk to my list")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply.Steps != 2 || len(reply.ToolCalls) != 1 || !reply.ToolCalls[0].Result.Success {
		t.Fatalf("unexpected reply: %#v", reply)
	}
	if items := todos.List(); len(items) != 1 || items[0].Task != "buy milk" {
		t.Fatalf("unexpected todos: %#v", items)
	}
	if session.State() != statex.StateTaskExecution {
		t.Fatalf("state = %s, want task_execution", session.State())
	}

	second := fake.inputs[1]
	last := second[len(second)-1]
	if last.Role != schema.Tool || last.ToolCallID != "call-1" || !strings.Contains(last.Content, `"success":true`) {
		t.Fatalf("unexpected tool message: %#v", last)
	}
}

func TestReplyRejectsBadToolCalls(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		call *schema.Message
	}{
		{name: "invalid json", call: toolCallMessage("c1", toolx.ToolAddTodo, `{"task":`)},
		{name: "not offered", call: toolCallMessage("c1", "sendEmail", `{}`)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			session, reg, todos := newSession(t)
			fake := &fakeToolCallingModel{responses: []*schema.Message{
				tt.call,
				schema.AssistantMessage("Could you clarify?", nil),
			}}
			a, err := New(context.Background(), fake, reg.ToolInfos())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			reply, err := a.Reply(context.Background(), session, "add something")
			if err != nil {
				t.Fatalf("Reply() error = %v", err)
			}
			if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Result.Success {
				t.Fatalf("expected one failed tool call, got %#v", reply.ToolCalls)
			}
			if len(todos.List()) != 0 {
				t.Fatal("rejected call must not touch todos")
			}
			if session.State() != statex.StateClarificationNeeded {
				t.Fatalf("state = %s, want clarification_needed", session.State())
			}
		})
	}
}

func TestReplyStopsAtStepLimit(t *testing.T) {
	t.Parallel()

	session, reg, _ := newSession(t)
	responses := make([]*schema.Message, 0, 3)
	for i := 0; i < 3; i++ {
		responses = append(responses, toolCallMessage("c", toolx.ToolListTodos, ""))
	}
	fake := &fakeToolCallingModel{responses: responses}
	a, err := New(context.Background(), fake, reg.ToolInfos(), WithMaxSteps(2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	reply, err := a.Reply(context.Background(), session, "what is on my list")
	if !errors.Is(err, ErrStepLimit) {
		t.Fatalf("expected ErrStepLimit, got %v", err)
	}
	if reply.Steps != 2 || len(reply.ToolCalls) != 2 {
		t.Fatalf("unexpected reply: %#v", reply)
	}
}

func TestReplyPropagatesModelErrors(t *testing.T) {
	t.Parallel()

	session, reg, _ := newSession(t)
	fake := &fakeToolCallingModel{err: errors.New("upstream 500")}
	a, err := New(context.Background(), fake, reg.ToolInfos())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := a.Reply(context.Background(), session, "buy milk"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}

	empty := &fakeToolCallingModel{responses: []*schema.Message{schema.AssistantMessage("  ", nil)}}
	a, err = New(context.Background(), empty, reg.ToolInfos())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.Reply(context.Background(), session, "buy milk"); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestBuildMessagesMapsRoles(t *testing.T) {
	t.Parallel()

	msgs := buildMessages("prompt", []statex.Turn{
		{Role: statex.RoleSystem, Content: "note"},
		{Role: statex.RoleUser, Content: "hi"},
		{Role: statex.RoleAssistant, Content: "hello"},
	})
	want := []schema.RoleType{schema.System, schema.System, schema.User, schema.Assistant}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i, role := range want {
		if msgs[i].Role != role {
			t.Fatalf("msgs[%d].Role = %s, want %s", i, msgs[i].Role, role)
		}
	}
}
