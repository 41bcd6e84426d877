package contract

import "strings"

type Role string

const (
	RoleTaskPlanner      Role = "task_planner"
	RoleKnowledgeAdvisor Role = "knowledge_advisor"
	RoleTaskExecutor     Role = "task_executor"
)

type Complexity string

const (
	ComplexitySimple   Complexity = "Simple"
	ComplexityModerate Complexity = "Moderate"
	ComplexityComplex  Complexity = "Complex"
)

// ParseComplexity accepts any casing and falls back to Simple.
func ParseComplexity(raw string) Complexity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "moderate":
		return ComplexityModerate
	case "complex":
		return ComplexityComplex
	default:
		return ComplexitySimple
	}
}

// ParseRole accepts the role names above and falls back to the executor role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleTaskPlanner:
		return RoleTaskPlanner
	case RoleKnowledgeAdvisor:
		return RoleKnowledgeAdvisor
	default:
		return RoleTaskExecutor
	}
}

// ToolResult is the uniform outcome of a tool dispatch.
type ToolResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type KnowledgeSnippet struct {
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
