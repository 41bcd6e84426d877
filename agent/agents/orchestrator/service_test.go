package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	classifierx "github.com/tanpawarit/chative-orchestrator/agent/classifier"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	plannerx "github.com/tanpawarit/chative-orchestrator/agent/planner"
	statex "github.com/tanpawarit/chative-orchestrator/agent/state"
	todox "github.com/tanpawarit/chative-orchestrator/agent/todo"
	toolx "github.com/tanpawarit/chative-orchestrator/agent/tool"
)

type fakeRetriever struct {
	snippets []contractx.KnowledgeSnippet
	err      error
	calls    int
}

func (f *fakeRetriever) Search(context.Context, string) ([]contractx.KnowledgeSnippet, error) {
	f.calls++
	return f.snippets, f.err
}

type memoryArchive struct {
	saved map[string]statex.ConversationExport
}

func (m *memoryArchive) Save(_ context.Context, export statex.ConversationExport) error {
	if m.saved == nil {
		m.saved = map[string]statex.ConversationExport{}
	}
	m.saved[export.SessionID] = export
	return nil
}

func (m *memoryArchive) Load(_ context.Context, id string) (statex.ConversationExport, error) {
	export, ok := m.saved[id]
	if !ok {
		return statex.ConversationExport{}, statex.ErrArchiveNotFound
	}
	return export, nil
}

func (m *memoryArchive) Delete(_ context.Context, id string) error {
	delete(m.saved, id)
	return nil
}

func newTestOrchestrator(t *testing.T, retriever contractx.KnowledgeRetriever, cfg Config) (*Orchestrator, *todox.Manager) {
	t.Helper()
	reg := toolx.NewRegistry()
	todos := todox.NewManager()
	toolx.RegisterDefaults(reg, todos)

	o, err := New("session-1", reg, retriever, nil, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o, todos
}

func TestNewRejectsBlankSessionID(t *testing.T) {
	t.Parallel()

	if _, err := New("  ", toolx.NewRegistry(), nil, nil, DefaultConfig()); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestProcessInputEventPlanning(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{snippets: []contractx.KnowledgeSnippet{
		{Content: "Book the venue at least a month ahead", Score: 0.91},
	}}
	o, _ := newTestOrchestrator(t, retriever, DefaultConfig())

	out, err := o.ProcessInput(context.Background(), "plan a product launch event")
	if err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if out.Analysis == nil || out.Analysis.EstimatedDuration != "3 days" {
		t.Fatalf("unexpected analysis: %#v", out.Analysis)
	}
	if !strings.Contains(out.Prompt, "## Relevant knowledge") || !strings.Contains(out.Prompt, "Book the venue") {
		t.Fatalf("prompt should carry retrieved knowledge:\n%s", out.Prompt)
	}
	if len(out.ToolCatalog) != 7 || len(out.ToolInfos) != 7 {
		t.Fatalf("expected 7 tools, got %d/%d", len(out.ToolCatalog), len(out.ToolInfos))
	}
	if out.ConversationState == statex.StateIdle {
		t.Fatal("classified input should leave the idle state")
	}
	if got := o.State(); got != out.ConversationState {
		t.Fatalf("session state = %s, result state = %s", got, out.ConversationState)
	}

	history := o.History()
	if len(history) != 1 || history[0].Role != statex.RoleUser || history[0].Content != "plan a product launch event" {
		t.Fatalf("unexpected history: %#v", history)
	}
}

func TestProcessInputAcceptsBlankText(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t, nil, DefaultConfig())
	out, err := o.ProcessInput(context.Background(), "   ")
	if err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if out.Analysis == nil || out.Analysis.Type != classifierx.TypeSimpleTodo {
		t.Fatalf("expected a SIMPLE_TODO analysis, got %#v", out.Analysis)
	}
	if out.ConversationState != statex.StateTaskExecution {
		t.Fatalf("state = %s, want task_execution", out.ConversationState)
	}

	history := o.History()
	if len(history) != 1 || history[0].Content != "   " {
		t.Fatalf("blank input should be recorded unchanged, got %#v", history)
	}
}

func TestProcessInputSurvivesRetrievalFailure(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{err: errors.New("index offline")}
	o, _ := newTestOrchestrator(t, retriever, DefaultConfig())

	out, err := o.ProcessInput(context.Background(), "buy milk")
	if err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if out.KnowledgeContext != "" || strings.Contains(out.Prompt, "## Relevant knowledge") {
		t.Fatalf("failed retrieval should leave no knowledge, got %q", out.KnowledgeContext)
	}
	if retriever.calls != 1 {
		t.Fatalf("retriever calls = %d, want 1", retriever.calls)
	}
}

func TestProcessInputSkipsDisabledRetrieval(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnableRetrieval = false
	retriever := &fakeRetriever{snippets: []contractx.KnowledgeSnippet{{Content: "x", Score: 1}}}
	o, _ := newTestOrchestrator(t, retriever, cfg)

	if _, err := o.ProcessInput(context.Background(), "buy milk"); err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if retriever.calls != 0 {
		t.Fatalf("retriever should not be called, got %d calls", retriever.calls)
	}
}

func TestProcessInputWithPlanningDisabledStaysIdle(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnablePlanning = false
	o, _ := newTestOrchestrator(t, nil, cfg)

	out, err := o.ProcessInput(context.Background(), "research a complex integration strategy")
	if err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if out.Analysis != nil || out.Plan != nil {
		t.Fatal("planning disabled should skip analysis and plan")
	}
	if out.ConversationState != statex.StateIdle {
		t.Fatalf("state = %s, want idle", out.ConversationState)
	}
	if !strings.Contains(out.Prompt, "## Role") {
		t.Fatal("prompt should still be composed with defaults")
	}
}

func TestProcessInputWithComplexDefaultEntersPlanning(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnablePlanning = false
	cfg.DefaultComplexity = string(contractx.ComplexityComplex)
	o, _ := newTestOrchestrator(t, nil, cfg)

	out, err := o.ProcessInput(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if out.Analysis != nil || out.Plan != nil {
		t.Fatal("planning disabled should skip analysis and plan")
	}
	if out.ConversationState != statex.StateTaskPlanning {
		t.Fatalf("state = %s, want task_planning for a complex default", out.ConversationState)
	}
	if got := o.State(); got != statex.StateTaskPlanning {
		t.Fatalf("session state = %s, want task_planning", got)
	}
}

func TestComplexInputBuildsPlanAndTracksProgress(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t, nil, DefaultConfig())

	if _, err := o.NextStep(); !errors.Is(err, ErrNoPlan) {
		t.Fatalf("expected ErrNoPlan before any plan, got %v", err)
	}

	out, err := o.ProcessInput(context.Background(), "research a complex integration strategy")
	if err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if out.Plan == nil || len(out.Plan.Steps) == 0 {
		t.Fatal("complex input should produce a plan")
	}
	if out.ConversationState != statex.StateTaskPlanning {
		t.Fatalf("state = %s, want task_planning", out.ConversationState)
	}

	tc := o.TaskContext()
	if len(tc.TaskSteps) != len(out.Plan.Steps) || len(tc.PendingSteps) != len(out.Plan.Steps) {
		t.Fatalf("task context not derived from plan: %#v", tc)
	}

	first := out.Plan.Steps[0].ID
	rec, err := o.NextStep()
	if err != nil {
		t.Fatalf("NextStep() error = %v", err)
	}
	if len(rec.Ready) == 0 || rec.Ready[0].ID != first {
		t.Fatalf("first ready step = %#v, want %s", rec.Ready, first)
	}

	if _, err := o.UpdatePlanProgress(first, plannerx.StatusInProgress); err != nil {
		t.Fatalf("UpdatePlanProgress(in_progress) error = %v", err)
	}
	plan, err := o.UpdatePlanProgress(first, plannerx.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdatePlanProgress(completed) error = %v", err)
	}
	if plan.Steps[0].Status != plannerx.StatusCompleted {
		t.Fatalf("step status = %s, want completed", plan.Steps[0].Status)
	}
	if tc := o.TaskContext(); len(tc.CompletedSteps) != 1 || tc.CompletedSteps[0] != plan.Steps[0].Title {
		t.Fatalf("completed steps = %v", tc.CompletedSteps)
	}

	if _, err := o.UpdatePlanProgress(first, plannerx.StatusPending); !errors.Is(err, plannerx.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := o.UpdatePlanProgress("step-999", plannerx.StatusCompleted); !errors.Is(err, plannerx.ErrStepNotFound) {
		t.Fatalf("expected ErrStepNotFound, got %v", err)
	}
	if stored, _ := o.Plan(); stored.Steps[0].Status != plannerx.StatusCompleted {
		t.Fatal("rejected update must not change the stored plan")
	}
}

func TestHandleToolResultTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tool   string
		result contractx.ToolResult
		want   statex.ConversationState
	}{
		{name: "failure", tool: toolx.ToolAddTodo, result: contractx.ToolResult{Success: false, Message: "task is required"}, want: statex.StateClarificationNeeded},
		{name: "list", tool: toolx.ToolListTodos, result: contractx.ToolResult{Success: true, Message: "0 todos (0 completed)"}, want: statex.StateInformationGathering},
		{name: "write", tool: toolx.ToolAddTodo, result: contractx.ToolResult{Success: true, Message: "added"}, want: statex.StateTaskExecution},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o, _ := newTestOrchestrator(t, nil, DefaultConfig())
			if got := o.HandleToolResult(tt.tool, tt.result); got != tt.want {
				t.Fatalf("HandleToolResult() = %s, want %s", got, tt.want)
			}
			if o.State() != tt.want {
				t.Fatalf("session state = %s, want %s", o.State(), tt.want)
			}
			history := o.History()
			if len(history) != 1 || history[0].Role != statex.RoleAssistant {
				t.Fatalf("expected one assistant turn, got %#v", history)
			}
			if !strings.Contains(history[0].Content, tt.tool) {
				t.Fatalf("turn %q should name the tool", history[0].Content)
			}
		})
	}
}

func TestExecuteToolDispatchesAndRecords(t *testing.T) {
	t.Parallel()

	o, todos := newTestOrchestrator(t, nil, DefaultConfig())

	result := o.ExecuteTool(context.Background(), toolx.ToolAddTodo, map[string]any{"task": "buy milk"})
	if !result.Success {
		t.Fatalf("addTodo failed: %s", result.Message)
	}
	if len(todos.List()) != 1 {
		t.Fatalf("expected one todo, got %d", len(todos.List()))
	}
	if o.State() != statex.StateTaskExecution {
		t.Fatalf("state = %s, want task_execution", o.State())
	}

	result = o.ExecuteTool(context.Background(), "sendEmail", nil)
	if result.Success {
		t.Fatal("unknown tool should fail")
	}
	if o.State() != statex.StateClarificationNeeded {
		t.Fatalf("state = %s, want clarification_needed", o.State())
	}
}

func TestClearHistoryDropsPlan(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t, nil, DefaultConfig())
	if _, err := o.ProcessInput(context.Background(), "research a complex integration strategy"); err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	o.ClearHistory()

	if len(o.History()) != 0 {
		t.Fatal("history should be empty")
	}
	if _, ok := o.Plan(); ok {
		t.Fatal("plan should be dropped")
	}
}

func TestArchiveSavesExport(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t, nil, DefaultConfig())
	if err := o.Archive(context.Background()); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("expected ErrNoArchive, got %v", err)
	}

	archive := &memoryArchive{}
	o.archive = archive
	o.RecordAssistantReply("hello")
	if err := o.Archive(context.Background()); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	saved, err := archive.Load(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(saved.History) != 1 || saved.History[0].Content != "hello" {
		t.Fatalf("unexpected archived history: %#v", saved.History)
	}
}

func TestManagerReusesSessions(t *testing.T) {
	t.Parallel()

	created := 0
	m := NewManager(DefaultConfig(), func(id string) (*Orchestrator, error) {
		created++
		return New(id, toolx.NewRegistry(), nil, nil, DefaultConfig())
	})

	a, err := m.Session("alice")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	again, _ := m.Session(" alice ")
	if a != again {
		t.Fatal("same id should return the same orchestrator")
	}
	if _, err := m.Session("bob"); err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if created != 2 || m.Len() != 2 {
		t.Fatalf("created = %d, len = %d, want 2/2", created, m.Len())
	}
	if _, err := m.Session(""); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if !m.Remove("alice") || m.Len() != 1 {
		t.Fatal("Remove should drop alice")
	}
}

func TestManagerEvictsIdleSessions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SessionIdleTTL = 20 * time.Millisecond
	m := NewManager(cfg, func(id string) (*Orchestrator, error) {
		return New(id, toolx.NewRegistry(), nil, nil, DefaultConfig())
	})

	first, _ := m.Session("alice")
	time.Sleep(60 * time.Millisecond)
	second, _ := m.Session("alice")
	if first == second {
		t.Fatal("idle session should have been evicted")
	}
}

func TestManagerCapsSessionCount(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxSessions = 1
	m := NewManager(cfg, func(id string) (*Orchestrator, error) {
		return New(id, toolx.NewRegistry(), nil, nil, DefaultConfig())
	})

	_, _ = m.Session("alice")
	_, _ = m.Session("bob")
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}

func TestManagerKeepsBusySessions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxSessions = 1
	created := 0
	m := NewManager(cfg, func(id string) (*Orchestrator, error) {
		created++
		return New(id, toolx.NewRegistry(), nil, nil, DefaultConfig())
	})

	alice, _ := m.Session("alice")
	alice.mu.Lock()
	if _, err := m.Session("bob"); err != nil {
		alice.mu.Unlock()
		t.Fatalf("Session() error = %v", err)
	}
	if m.Len() != 2 {
		alice.mu.Unlock()
		t.Fatalf("Len() = %d, want 2 while alice is busy", m.Len())
	}
	alice.mu.Unlock()

	again, err := m.Session("alice")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if again != alice {
		t.Fatal("a session evicted mid-call should be handed back, not rebuilt")
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	// bob was idle when alice pushed it out, so it is rebuilt.
	if _, err := m.Session("bob"); err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if created != 3 || m.Len() != 1 {
		t.Fatalf("created = %d, len = %d, want 3/1", created, m.Len())
	}
}
