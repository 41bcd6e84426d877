package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

type subtaskTemplate struct {
	category string
	keywords []string
	titles   []string
}

// Checked in order; the first template with a matching keyword wins.
var subtaskTemplates = []subtaskTemplate{
	{
		category: "event",
		keywords: []string{"event", "party", "wedding", "conference", "meetup", "celebration"},
		titles: []string{
			"Define goals, audience and budget",
			"Book venue and vendors",
			"Send invitations",
			"Prepare day-of logistics",
			"Collect feedback",
		},
	},
	{
		category: "project",
		keywords: []string{"project", "product", "website", "application", "build", "develop"},
		titles: []string{
			"Define scope and requirements",
			"Break work into milestones",
			"Assign owners and resources",
			"Execute milestones",
			"Review outcomes",
		},
	},
	{
		category: "learning",
		keywords: []string{"learn", "study", "course", "skill", "exam", "practice"},
		titles: []string{
			"Set learning goals",
			"Gather learning resources",
			"Follow a study schedule",
			"Practice with exercises",
			"Review progress",
		},
	},
}

var genericSubtasks = subtaskTemplate{
	category: "generic",
	titles:   []string{"Preparation", "Execution", "Review"},
}

type SubtaskResult struct {
	Title   string `json:"title"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PlanComplexTaskOutput struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Created     int             `json:"created"`
	Failed      int             `json:"failed"`
	Subtasks    []SubtaskResult `json:"subtasks"`
}

// PlanComplexTaskTool splits a description into a fixed subtask list and
// creates one todo per subtask through the dispatcher.
type PlanComplexTaskTool struct {
	dispatcher contractx.ToolDispatcher
}

func NewPlanComplexTaskTool(dispatcher contractx.ToolDispatcher) *PlanComplexTaskTool {
	return &PlanComplexTaskTool{dispatcher: dispatcher}
}

func (t *PlanComplexTaskTool) Name() string     { return ToolPlanComplexTask }
func (t *PlanComplexTaskTool) Category() string { return categoryPlanning }
func (t *PlanComplexTaskTool) Description() string {
	return "Break a complex task into subtasks and add each one to the todo list."
}

func (t *PlanComplexTaskTool) Parameters() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"description": {Type: schema.String, Desc: "The complex task to break down", Required: true},
		"deadline":    {Type: schema.String, Desc: "Optional overall deadline"},
		"priority":    {Type: schema.String, Desc: "Optional priority for every subtask", Enum: priorityEnum},
	}
}

func (t *PlanComplexTaskTool) Execute(ctx context.Context, params map[string]any) (any, error) {
	description, _ := stringParam(params, "description")
	if description == "" {
		return failure("description is required"), nil
	}
	deadline, _ := stringParam(params, "deadline")
	priority, _ := stringParam(params, "priority")
	if priority != "" && !validPriority(priority) {
		return failure(fmt.Sprintf("invalid priority %q", priority)), nil
	}

	tmpl := selectSubtasks(description)
	out := PlanComplexTaskOutput{
		Description: description,
		Category:    tmpl.category,
		Subtasks:    make([]SubtaskResult, 0, len(tmpl.titles)),
	}

	for _, title := range tmpl.titles {
		args := map[string]any{
			"task": fmt.Sprintf("%s: %s", title, description),
		}
		if priority != "" {
			args["priority"] = priority
		}
		if deadline != "" {
			args["deadline"] = deadline
		}

		res := t.dispatcher.Dispatch(ctx, ToolAddTodo, args)
		out.Subtasks = append(out.Subtasks, SubtaskResult{
			Title:   title,
			Success: res.Success,
			Message: res.Message,
		})
		if res.Success {
			out.Created++
		} else {
			out.Failed++
		}
	}

	msg := fmt.Sprintf("planned %d of %d subtasks for %q", out.Created, len(tmpl.titles), description)
	if out.Failed > 0 {
		msg += fmt.Sprintf(" (%d failed)", out.Failed)
	}
	return contractx.ToolResult{
		Success: out.Created > 0,
		Message: msg,
		Data:    out,
	}, nil
}

func selectSubtasks(description string) subtaskTemplate {
	lower := strings.ToLower(description)
	for _, tmpl := range subtaskTemplates {
		for _, kw := range tmpl.keywords {
			if strings.Contains(lower, kw) {
				return tmpl
			}
		}
	}
	return genericSubtasks
}
