// Package orchestrator is the per-session facade: it turns a user message into
// a system prompt, a tool catalog and a state transition, and folds tool
// outcomes reported by the host back into the conversation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	nodex "github.com/tanpawarit/chative-orchestrator/agent/nodes"
	plannerx "github.com/tanpawarit/chative-orchestrator/agent/planner"
	promptx "github.com/tanpawarit/chative-orchestrator/agent/prompt"
	statex "github.com/tanpawarit/chative-orchestrator/agent/state"
	toolx "github.com/tanpawarit/chative-orchestrator/agent/tool"
)

var (
	ErrInvalidSession = statex.ErrInvalidSession
	ErrNoPlan         = errors.New("session has no execution plan")
	ErrNoArchive      = errors.New("conversation archive is not configured")
)

// ProcessResult is returned by ProcessInput.
type ProcessResult = nodex.GraphOutput

// Orchestrator owns one session. Every method takes the session lock, so
// calls for the same session are applied one at a time in arrival order.
type Orchestrator struct {
	mu sync.Mutex

	session   *statex.Session
	plan      *plannerx.ExecutionPlan
	estimate  string
	tools     *toolx.Registry
	catalog   []toolx.Spec
	toolInfos []*schema.ToolInfo
	composer  *promptx.Composer
	planner   *plannerx.Planner
	retriever contractx.KnowledgeRetriever
	archive   statex.Archive

	cfg               Config
	defaultRole       contractx.Role
	defaultComplexity contractx.Complexity

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

// New builds the facade for sessionID. retriever and archive may be nil.
func New(
	sessionID string,
	tools *toolx.Registry,
	retriever contractx.KnowledgeRetriever,
	archive statex.Archive,
	cfg Config,
) (*Orchestrator, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	if tools == nil {
		return nil, errors.New("tool registry is required")
	}

	catalog := tools.Catalog()
	composer, err := promptx.NewComposer(promptx.LoadPromptSet(), catalog)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		tools:             tools,
		catalog:           catalog,
		toolInfos:         tools.ToolInfos(),
		composer:          composer,
		planner:           plannerx.New(),
		retriever:         retriever,
		archive:           archive,
		cfg:               cfg,
		defaultRole:       contractx.ParseRole(cfg.DefaultRole),
		defaultComplexity: contractx.ParseComplexity(cfg.DefaultComplexity),
		now:               time.Now,
	}
	o.session = statex.NewSession(sessionID,
		statex.WithMaxHistory(cfg.MaxHistoryLength),
		statex.WithClock(func() time.Time { return o.now() }),
	)

	graphRunner, err := o.compileProcessInputGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) SessionID() string {
	return o.session.ID()
}

// ProcessInput classifies text, gathers knowledge, composes the system prompt,
// moves the session state and records the user turn.
func (o *Orchestrator) ProcessInput(ctx context.Context, text string) (ProcessResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Text: text})
	if err != nil {
		return ProcessResult{}, err
	}
	if out.Plan != nil {
		plan := *out.Plan
		o.plan = &plan
		o.estimate = ""
		if out.Analysis != nil {
			o.estimate = out.Analysis.EstimatedDuration
		}
	}
	return out, nil
}

// HandleToolResult records the outcome of a tool the host executed and moves
// the conversation state accordingly. It returns the new state.
func (o *Orchestrator) HandleToolResult(toolName string, result contractx.ToolResult) statex.ConversationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handleToolResultLocked(toolName, result)
}

func (o *Orchestrator) handleToolResultLocked(toolName string, result contractx.ToolResult) statex.ConversationState {
	outcome := "succeeded"
	if !result.Success {
		outcome = "failed"
	}
	content := fmt.Sprintf("tool %s %s: %s", toolName, outcome, result.Message)
	o.session.AddAIMessage(content, map[string]any{
		"tags":    []string{"tool", toolName},
		"success": result.Success,
	})

	next := nodex.StateAfterToolResult(toolName, result)
	o.session.UpdateState(next, nil)
	return next
}

// ExecuteTool dispatches through the registry and records the result.
func (o *Orchestrator) ExecuteTool(ctx context.Context, name string, params map[string]any) contractx.ToolResult {
	result := o.tools.Dispatch(ctx, name, params)
	o.HandleToolResult(name, result)
	return result
}

// RecordAssistantReply appends the model's final reply to the history.
func (o *Orchestrator) RecordAssistantReply(content string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.AddAIMessage(content, nil)
}

func (o *Orchestrator) AddSystemMessage(content string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.AddSystemMessage(content)
}

// Plan returns a copy of the current execution plan, if any.
func (o *Orchestrator) Plan() (plannerx.ExecutionPlan, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.plan == nil {
		return plannerx.ExecutionPlan{}, false
	}
	return o.plan.Clone(), true
}

// NextStep recommends what to work on next in the current plan.
func (o *Orchestrator) NextStep() (plannerx.Recommendation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.plan == nil {
		return plannerx.Recommendation{}, ErrNoPlan
	}
	return plannerx.NextStepRecommendation(*o.plan), nil
}

// UpdatePlanProgress advances one plan step and refreshes the task context.
func (o *Orchestrator) UpdatePlanProgress(stepID string, status plannerx.StepStatus) (plannerx.ExecutionPlan, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.plan == nil {
		return plannerx.ExecutionPlan{}, ErrNoPlan
	}

	next, err := o.planner.UpdatePlanProgress(*o.plan, stepID, status)
	if err != nil {
		log.Warn().Err(err).
			Str("session_id", o.session.ID()).
			Str("step_id", stepID).
			Str("status", string(status)).
			Msg("rejected plan progress update")
		return plannerx.ExecutionPlan{}, err
	}
	o.plan = &next

	patch := nodex.PlanTaskContext(next, o.estimate)
	o.session.UpdateState(o.session.State(), &patch)
	return next.Clone(), nil
}

func (o *Orchestrator) State() statex.ConversationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.State()
}

func (o *Orchestrator) History() []statex.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.History()
}

func (o *Orchestrator) TaskContext() statex.TaskContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.TaskContext()
}

func (o *Orchestrator) AnalyzeConversation() statex.ConversationAnalysis {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.AnalyzeConversationPattern()
}

func (o *Orchestrator) Export() statex.ConversationExport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Export()
}

// ClearHistory resets the conversation and drops the current plan.
func (o *Orchestrator) ClearHistory() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.ClearHistory()
	o.plan = nil
	o.estimate = ""
}

// Archive writes an audit copy of the conversation to the configured archive.
func (o *Orchestrator) Archive(ctx context.Context) error {
	if o.archive == nil {
		return ErrNoArchive
	}
	export := o.Export()
	if err := o.archive.Save(ctx, export); err != nil {
		return fmt.Errorf("archive session %s: %w", export.SessionID, err)
	}
	return nil
}

func (o *Orchestrator) activeRetriever() contractx.KnowledgeRetriever {
	if !o.cfg.EnableRetrieval || o.retriever == nil {
		return nil
	}
	return o.retriever
}
