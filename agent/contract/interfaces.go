package contract

import "context"

// KnowledgeRetriever returns ranked knowledge snippets for a query.
// Implementations should return an empty slice rather than an error on internal failure;
// callers still treat a returned error as an empty result.
type KnowledgeRetriever interface {
	Search(ctx context.Context, query string) ([]KnowledgeSnippet, error)
}

// ToolDispatcher executes a named tool and never returns a Go error:
// every failure is folded into ToolResult.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, params map[string]any) ToolResult
}
