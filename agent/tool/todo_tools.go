package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	todox "github.com/tanpawarit/chative-orchestrator/agent/todo"
)

const (
	ToolAddTodo         = "addTodo"
	ToolCompleteTodo    = "completeTodo"
	ToolDeleteTodo      = "deleteTodo"
	ToolListTodos       = "listTodos"
	ToolClearCompleted  = "clearCompleted"
	ToolClearAll        = "clearAll"
	ToolPlanComplexTask = "planComplexTask"

	categoryTodo     = "todo"
	categoryPlanning = "planning"
)

var priorityEnum = []string{"low", "medium", "high"}

// RegisterDefaults registers the todo tool set and the composite planning tool.
// The planning tool creates its subtasks by dispatching addTodo through reg.
func RegisterDefaults(reg *Registry, todos *todox.Manager) {
	reg.Register(&addTodoTool{todos: todos})
	reg.Register(&completeTodoTool{todos: todos})
	reg.Register(&deleteTodoTool{todos: todos})
	reg.Register(&listTodosTool{todos: todos})
	reg.Register(&clearCompletedTool{todos: todos})
	reg.Register(&clearAllTool{todos: todos})
	reg.Register(NewPlanComplexTaskTool(reg))
}

type addTodoTool struct{ todos *todox.Manager }

func (t *addTodoTool) Name() string     { return ToolAddTodo }
func (t *addTodoTool) Category() string { return categoryTodo }
func (t *addTodoTool) Description() string {
	return "Add a new item to the user's todo list."
}

func (t *addTodoTool) Parameters() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"task":     {Type: schema.String, Desc: "What needs to be done", Required: true},
		"priority": {Type: schema.String, Desc: "Optional priority", Enum: priorityEnum},
		"deadline": {Type: schema.String, Desc: "Optional deadline, free text or YYYY-MM-DD"},
	}
}

func (t *addTodoTool) Execute(_ context.Context, params map[string]any) (any, error) {
	task, _ := stringParam(params, "task")
	if task == "" {
		return failure("task is required"), nil
	}
	priority, _ := stringParam(params, "priority")
	if priority != "" && !validPriority(priority) {
		return failure(fmt.Sprintf("invalid priority %q", priority)), nil
	}
	deadline, _ := stringParam(params, "deadline")

	item, err := t.todos.Add(task, todox.WithPriority(priority), todox.WithDeadline(deadline))
	if err != nil {
		return nil, err
	}
	return contractx.ToolResult{
		Success: true,
		Message: fmt.Sprintf("added %q", item.Task),
		Data:    item,
	}, nil
}

type completeTodoTool struct{ todos *todox.Manager }

func (t *completeTodoTool) Name() string     { return ToolCompleteTodo }
func (t *completeTodoTool) Category() string { return categoryTodo }
func (t *completeTodoTool) Description() string {
	return "Mark a todo as completed. The identifier may be the id, the 1-based position, or the task text."
}

func (t *completeTodoTool) Parameters() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"identifier": {Type: schema.String, Desc: "Todo id, position, or text", Required: true},
	}
}

func (t *completeTodoTool) Execute(_ context.Context, params map[string]any) (any, error) {
	identifier, _ := stringParam(params, "identifier")
	item, err := t.todos.Complete(identifier)
	if err != nil {
		return notFoundOr(err, identifier)
	}
	return contractx.ToolResult{
		Success: true,
		Message: fmt.Sprintf("completed %q", item.Task),
		Data:    item,
	}, nil
}

type deleteTodoTool struct{ todos *todox.Manager }

func (t *deleteTodoTool) Name() string     { return ToolDeleteTodo }
func (t *deleteTodoTool) Category() string { return categoryTodo }
func (t *deleteTodoTool) Description() string {
	return "Delete a todo. The identifier may be the id, the 1-based position, or the task text."
}

func (t *deleteTodoTool) Parameters() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"identifier": {Type: schema.String, Desc: "Todo id, position, or text", Required: true},
	}
}

func (t *deleteTodoTool) Execute(_ context.Context, params map[string]any) (any, error) {
	identifier, _ := stringParam(params, "identifier")
	item, err := t.todos.Delete(identifier)
	if err != nil {
		return notFoundOr(err, identifier)
	}
	return contractx.ToolResult{
		Success: true,
		Message: fmt.Sprintf("deleted %q", item.Task),
		Data:    item,
	}, nil
}

type listTodosTool struct{ todos *todox.Manager }

func (t *listTodosTool) Name() string     { return ToolListTodos }
func (t *listTodosTool) Category() string { return categoryTodo }
func (t *listTodosTool) Description() string {
	return "List every todo with its completion status."
}

func (t *listTodosTool) Parameters() map[string]*schema.ParameterInfo {
	return nil
}

func (t *listTodosTool) Execute(_ context.Context, _ map[string]any) (any, error) {
	items := t.todos.List()
	done := 0
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	return contractx.ToolResult{
		Success: true,
		Message: fmt.Sprintf("%d todos (%d completed)", len(items), done),
		Data:    items,
	}, nil
}

type clearCompletedTool struct{ todos *todox.Manager }

func (t *clearCompletedTool) Name() string     { return ToolClearCompleted }
func (t *clearCompletedTool) Category() string { return categoryTodo }
func (t *clearCompletedTool) Description() string {
	return "Remove every completed todo."
}

func (t *clearCompletedTool) Parameters() map[string]*schema.ParameterInfo {
	return nil
}

func (t *clearCompletedTool) Execute(_ context.Context, _ map[string]any) (any, error) {
	removed := t.todos.ClearCompleted()
	return contractx.ToolResult{
		Success: true,
		Message: fmt.Sprintf("removed %d completed todos", removed),
		Data:    map[string]any{"removed": removed},
	}, nil
}

type clearAllTool struct{ todos *todox.Manager }

func (t *clearAllTool) Name() string     { return ToolClearAll }
func (t *clearAllTool) Category() string { return categoryTodo }
func (t *clearAllTool) Description() string {
	return "Remove every todo, completed or not."
}

func (t *clearAllTool) Parameters() map[string]*schema.ParameterInfo {
	return nil
}

func (t *clearAllTool) Execute(_ context.Context, _ map[string]any) (any, error) {
	removed := t.todos.ClearAll()
	return contractx.ToolResult{
		Success: true,
		Message: fmt.Sprintf("removed %d todos", removed),
		Data:    map[string]any{"removed": removed},
	}, nil
}

func stringParam(params map[string]any, key string) (string, bool) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func validPriority(p string) bool {
	for _, v := range priorityEnum {
		if strings.EqualFold(v, p) {
			return true
		}
	}
	return false
}

func failure(message string) contractx.ToolResult {
	return contractx.ToolResult{Success: false, Message: message}
}

func notFoundOr(err error, identifier string) (any, error) {
	if errors.Is(err, todox.ErrItemNotFound) {
		return failure(fmt.Sprintf("no todo matches %q", identifier)), nil
	}
	return nil, err
}
