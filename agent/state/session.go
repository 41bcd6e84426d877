package state

import (
	"maps"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxHistoryLength = 50
	knowledgeBufferSize     = 10
)

type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
	RoleSystem    TurnRole = "system"
)

type Turn struct {
	Role      TurnRole       `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Tags      []string       `json:"tags,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type TaskContext struct {
	CurrentTask    string   `json:"current_task,omitempty"`
	TaskSteps      []string `json:"task_steps"`
	CompletedSteps []string `json:"completed_steps"`
	PendingSteps   []string `json:"pending_steps"`
	Dependencies   []string `json:"dependencies"`
	Priority       string   `json:"priority"`
	EstimatedTime  string   `json:"estimated_time,omitempty"`
	Resources      []string `json:"resources"`
}

func defaultTaskContext() TaskContext {
	return TaskContext{
		TaskSteps:      []string{},
		CompletedSteps: []string{},
		PendingSteps:   []string{},
		Dependencies:   []string{},
		Priority:       "medium",
		Resources:      []string{},
	}
}

func (tc TaskContext) clone() TaskContext {
	out := tc
	out.TaskSteps = cloneStrings(tc.TaskSteps)
	out.CompletedSteps = cloneStrings(tc.CompletedSteps)
	out.PendingSteps = cloneStrings(tc.PendingSteps)
	out.Dependencies = cloneStrings(tc.Dependencies)
	out.Resources = cloneStrings(tc.Resources)
	return out
}

// TaskContextPatch is merged field by field into TaskContext.
// Nil pointers and nil slices leave the current value untouched.
type TaskContextPatch struct {
	CurrentTask    *string
	TaskSteps      []string
	CompletedSteps []string
	PendingSteps   []string
	Dependencies   []string
	Priority       *string
	EstimatedTime  *string
	Resources      []string
}

func (tc *TaskContext) apply(p TaskContextPatch) {
	if p.CurrentTask != nil {
		tc.CurrentTask = *p.CurrentTask
	}
	if p.TaskSteps != nil {
		tc.TaskSteps = cloneStrings(p.TaskSteps)
	}
	if p.CompletedSteps != nil {
		tc.CompletedSteps = cloneStrings(p.CompletedSteps)
	}
	if p.PendingSteps != nil {
		tc.PendingSteps = cloneStrings(p.PendingSteps)
	}
	if p.Dependencies != nil {
		tc.Dependencies = cloneStrings(p.Dependencies)
	}
	if p.Priority != nil {
		tc.Priority = *p.Priority
	}
	if p.EstimatedTime != nil {
		tc.EstimatedTime = *p.EstimatedTime
	}
	if p.Resources != nil {
		tc.Resources = cloneStrings(p.Resources)
	}
}

type Metadata struct {
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

// Session is the conversation state machine for one session id.
// It is not safe for concurrent use; the owning orchestrator serialises access.
type Session struct {
	id          string
	state       ConversationState
	history     []Turn
	taskContext TaskContext
	knowledge   []string
	meta        Metadata
	maxHistory  int
	now         func() time.Time
}

type Option func(*Session)

// WithMaxHistory bounds the history; values below 1 keep the default.
func WithMaxHistory(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSession(id string, opts ...Option) *Session {
	s := &Session{
		id:          id,
		state:       StateIdle,
		history:     []Turn{},
		taskContext: defaultTaskContext(),
		knowledge:   []string{},
		maxHistory:  DefaultMaxHistoryLength,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	now := s.now().UTC()
	s.meta = Metadata{CreatedAt: now, LastActivity: now}
	return s
}

func (s *Session) ID() string                 { return s.id }
func (s *Session) State() ConversationState   { return s.state }
func (s *Session) MaxHistoryLength() int      { return s.maxHistory }
func (s *Session) Metadata() Metadata         { return s.meta }
func (s *Session) TaskContext() TaskContext   { return s.taskContext.clone() }
func (s *Session) KnowledgeContext() []string { return cloneStrings(s.knowledge) }

// History returns a copy of the turns in order. Tags and metadata are copied
// too, so callers cannot reach back into the session.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	for i, t := range s.history {
		t.Tags = cloneStrings(t.Tags)
		t.Metadata = maps.Clone(t.Metadata)
		out[i] = t
	}
	return out
}

// AddUserMessage appends a user turn. A "tags" entry in meta ([]string) becomes the turn's tags.
func (s *Session) AddUserMessage(content string, meta map[string]any) {
	s.append(RoleUser, content, meta)
}

func (s *Session) AddAIMessage(content string, meta map[string]any) {
	s.append(RoleAssistant, content, meta)
}

func (s *Session) AddSystemMessage(content string) {
	s.append(RoleSystem, content, nil)
}

func (s *Session) append(role TurnRole, content string, meta map[string]any) {
	now := s.now().UTC()
	turn := Turn{Role: role, Content: content, Timestamp: now}
	if len(meta) > 0 {
		turn.Metadata = make(map[string]any, len(meta))
		for k, v := range meta {
			if k == "tags" {
				if tags, ok := v.([]string); ok {
					turn.Tags = cloneStrings(tags)
					continue
				}
			}
			turn.Metadata[k] = v
		}
		if len(turn.Metadata) == 0 {
			turn.Metadata = nil
		}
	}

	s.history = append(s.history, turn)
	s.meta.MessageCount++
	s.meta.LastActivity = now
	s.trim()
}

// trim keeps every system turn and the most recent non-system turns that fit.
func (s *Session) trim() {
	if len(s.history) <= s.maxHistory {
		return
	}
	systemCount := 0
	for _, t := range s.history {
		if t.Role == RoleSystem {
			systemCount++
		}
	}
	keep := max(s.maxHistory-systemCount, 0)

	drop := len(s.history) - systemCount - keep
	out := make([]Turn, 0, systemCount+keep)
	for _, t := range s.history {
		if t.Role != RoleSystem && drop > 0 {
			drop--
			continue
		}
		out = append(out, t)
	}
	s.history = out
}

// UpdateState moves the session to next and merges patch into the task context.
// An out-of-range state is ignored.
func (s *Session) UpdateState(next ConversationState, patch *TaskContextPatch) {
	if !next.Valid() {
		log.Warn().Str("session_id", s.id).Uint8("state", uint8(next)).Msg("ignoring invalid conversation state")
		return
	}
	s.state = next
	if patch != nil {
		s.taskContext.apply(*patch)
	}
}

// AddKnowledgeContext appends text to a ring buffer holding the newest entries.
func (s *Session) AddKnowledgeContext(text string) {
	s.knowledge = append(s.knowledge, text)
	if over := len(s.knowledge) - knowledgeBufferSize; over > 0 {
		s.knowledge = append([]string(nil), s.knowledge[over:]...)
	}
}

// ClearHistory resets history, counters and the task context.
// The id, state and knowledge buffer are kept.
func (s *Session) ClearHistory() {
	now := s.now().UTC()
	s.history = []Turn{}
	s.taskContext = defaultTaskContext()
	s.meta.MessageCount = 0
	s.meta.CreatedAt = now
	s.meta.LastActivity = now
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
