package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

const defaultCategory = "general"

// Handler is one named operation exposed to the model.
type Handler interface {
	Name() string
	Description() string
	Parameters() map[string]*schema.ParameterInfo
	Execute(ctx context.Context, params map[string]any) (any, error)
}

// Categorizer is implemented by handlers that want to be grouped in Stats.
type Categorizer interface {
	Category() string
}

// Registry maps tool names to handlers. Registration normally happens once at
// startup; Dispatch is safe to call concurrently.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Handler
	order []string
}

var _ contractx.ToolDispatcher = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Handler, 8),
	}
}

// Register adds h, replacing any handler already registered under the same name.
// A replaced handler keeps its original catalog position.
func (r *Registry) Register(h Handler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	name := h.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = h
}

func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.tools[name]
	return h, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Dispatch runs the named tool. Unknown names, returned errors and panics are
// all folded into a failed ToolResult.
func (r *Registry) Dispatch(ctx context.Context, name string, params map[string]any) (result contractx.ToolResult) {
	h, ok := r.Get(name)
	if !ok {
		log.Warn().Str("tool", name).Msg("unsupported tool requested")
		return contractx.ToolResult{
			Success: false,
			Message: fmt.Sprintf("unsupported operation: %s", name),
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("tool", name).Interface("panic", rec).Msg("tool panicked")
			result = contractx.ToolResult{
				Success: false,
				Message: fmt.Sprintf("error executing %s", name),
				Data:    map[string]any{"error": fmt.Sprint(rec)},
			}
		}
	}()

	if params == nil {
		params = map[string]any{}
	}

	raw, err := h.Execute(ctx, params)
	if err != nil {
		log.Error().Err(err).Str("tool", name).Msg("tool execution failed")
		return contractx.ToolResult{
			Success: false,
			Message: fmt.Sprintf("error executing %s", name),
			Data:    map[string]any{"error": err.Error()},
		}
	}
	return normalizeResult(name, raw)
}

// normalizeResult passes through values that already carry a success flag and
// wraps everything else as a successful result.
func normalizeResult(name string, raw any) contractx.ToolResult {
	switch v := raw.(type) {
	case contractx.ToolResult:
		return v
	case *contractx.ToolResult:
		if v != nil {
			return *v
		}
	case map[string]any:
		if success, ok := v["success"].(bool); ok {
			message, _ := v["message"].(string)
			return contractx.ToolResult{
				Success: success,
				Message: message,
				Data:    v["data"],
			}
		}
	}
	return contractx.ToolResult{
		Success: true,
		Message: fmt.Sprintf("%s executed", name),
		Data:    raw,
	}
}

func categoryOf(h Handler) string {
	if c, ok := h.(Categorizer); ok {
		if cat := c.Category(); cat != "" {
			return cat
		}
	}
	return defaultCategory
}
