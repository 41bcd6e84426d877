package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	todox "github.com/tanpawarit/chative-orchestrator/agent/todo"
)

type stubTool struct {
	name  string
	out   any
	err   error
	panic bool
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Parameters() map[string]*schema.ParameterInfo {
	return nil
}

func (s *stubTool) Execute(context.Context, map[string]any) (any, error) {
	if s.panic {
		panic("boom")
	}
	return s.out, s.err
}

type countingDispatcher struct {
	calls     int
	failEvery int
}

func (c *countingDispatcher) Dispatch(context.Context, string, map[string]any) contractx.ToolResult {
	c.calls++
	if c.failEvery > 0 && c.calls%c.failEvery == 0 {
		return contractx.ToolResult{Success: false, Message: "nope"}
	}
	return contractx.ToolResult{Success: true, Message: "ok"}
}

func TestDispatchAddTodo(t *testing.T) {
	t.Parallel()

	reg, _ := newDefaultRegistry()
	res := reg.Dispatch(context.Background(), ToolAddTodo, map[string]any{"task": "buy milk"})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	item, ok := res.Data.(todox.Item)
	if !ok {
		t.Fatalf("unexpected data type: %T", res.Data)
	}
	if item.Task != "buy milk" {
		t.Fatalf("data.task = %q, want %q", item.Task, "buy milk")
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	t.Parallel()

	reg, _ := newDefaultRegistry()
	res := reg.Dispatch(context.Background(), "doesNotExist", map[string]any{})
	if res.Success {
		t.Fatal("expected failure for unknown tool")
	}
	if res.Message != "unsupported operation: doesNotExist" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestDispatchConvertsErrorsAndPanics(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&stubTool{name: "fails", err: errors.New("disk full")})
	reg.Register(&stubTool{name: "panics", panic: true})

	for _, name := range []string{"fails", "panics"} {
		res := reg.Dispatch(context.Background(), name, nil)
		if res.Success {
			t.Fatalf("%s: expected failure", name)
		}
		if res.Message != "error executing "+name {
			t.Fatalf("%s: unexpected message %q", name, res.Message)
		}
	}
}

func TestDispatchNormalizesRawResults(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&stubTool{name: "raw", out: 42})
	reg.Register(&stubTool{name: "shaped", out: map[string]any{"success": false, "message": "quota", "data": 1}})
	reg.Register(&stubTool{name: "typed", out: &contractx.ToolResult{Success: true, Message: "typed ok"}})

	raw := reg.Dispatch(context.Background(), "raw", nil)
	if !raw.Success || raw.Message != "raw executed" || raw.Data != 42 {
		t.Fatalf("unexpected wrapped result: %#v", raw)
	}

	shaped := reg.Dispatch(context.Background(), "shaped", nil)
	if shaped.Success || shaped.Message != "quota" || shaped.Data != 1 {
		t.Fatalf("unexpected passthrough result: %#v", shaped)
	}

	typed := reg.Dispatch(context.Background(), "typed", nil)
	if !typed.Success || typed.Message != "typed ok" {
		t.Fatalf("unexpected typed result: %#v", typed)
	}
}

func TestRegisterOverwritesKeepingPosition(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&stubTool{name: "a", out: 1})
	reg.Register(&stubTool{name: "b", out: 2})
	reg.Register(&stubTool{name: "a", out: 3})

	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}
	if specs := reg.Catalog(); specs[0].Name != "a" || specs[1].Name != "b" {
		t.Fatalf("unexpected order: %#v", specs)
	}
	if res := reg.Dispatch(context.Background(), "a", nil); res.Data != 3 {
		t.Fatalf("expected replaced handler, got %#v", res.Data)
	}
}

func TestTodoToolsReportMissingItems(t *testing.T) {
	t.Parallel()

	reg, _ := newDefaultRegistry()
	for _, name := range []string{ToolCompleteTodo, ToolDeleteTodo} {
		res := reg.Dispatch(context.Background(), name, map[string]any{"identifier": "ghost"})
		if res.Success {
			t.Fatalf("%s: expected failure", name)
		}
		if res.Message != `no todo matches "ghost"` {
			t.Fatalf("%s: unexpected message %q", name, res.Message)
		}
	}

	res := reg.Dispatch(context.Background(), ToolAddTodo, map[string]any{"task": "x", "priority": "urgent"})
	if res.Success {
		t.Fatal("expected invalid priority to fail")
	}
}

func TestTodoToolLifecycle(t *testing.T) {
	t.Parallel()

	reg, todos := newDefaultRegistry()
	ctx := context.Background()
	for _, task := range []string{"buy milk", "call mom"} {
		if res := reg.Dispatch(ctx, ToolAddTodo, map[string]any{"task": task}); !res.Success {
			t.Fatalf("addTodo failed: %s", res.Message)
		}
	}
	if res := reg.Dispatch(ctx, ToolCompleteTodo, map[string]any{"identifier": "1"}); !res.Success {
		t.Fatalf("completeTodo failed: %s", res.Message)
	}

	list := reg.Dispatch(ctx, ToolListTodos, nil)
	if list.Message != "2 todos (1 completed)" {
		t.Fatalf("unexpected list message: %q", list.Message)
	}

	if res := reg.Dispatch(ctx, ToolClearCompleted, nil); res.Message != "removed 1 completed todos" {
		t.Fatalf("unexpected clearCompleted message: %q", res.Message)
	}
	if res := reg.Dispatch(ctx, ToolClearAll, nil); res.Message != "removed 1 todos" {
		t.Fatalf("unexpected clearAll message: %q", res.Message)
	}
	if len(todos.List()) != 0 {
		t.Fatal("expected empty todo list")
	}
}
