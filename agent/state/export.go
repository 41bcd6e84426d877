package state

import "time"

// ConversationExport is a read-only snapshot of a session.
type ConversationExport struct {
	SessionID   string               `json:"session_id"`
	State       ConversationState    `json:"state"`
	Metadata    Metadata             `json:"metadata"`
	History     []Turn               `json:"history"`
	TaskContext TaskContext          `json:"task_context"`
	Knowledge   []string             `json:"knowledge"`
	Analysis    ConversationAnalysis `json:"analysis"`
	ExportedAt  time.Time            `json:"exported_at"`
}

func (s *Session) Export() ConversationExport {
	return ConversationExport{
		SessionID:   s.id,
		State:       s.state,
		Metadata:    s.meta,
		History:     s.History(),
		TaskContext: s.TaskContext(),
		Knowledge:   s.KnowledgeContext(),
		Analysis:    s.AnalyzeConversationPattern(),
		ExportedAt:  s.now().UTC(),
	}
}
