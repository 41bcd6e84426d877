package tool

import (
	"sort"

	"github.com/cloudwego/eino/schema"
)

// Spec is the presentation form of a tool for a model-invocation layer.
type Spec struct {
	Name        string                           `json:"name"`
	Description string                           `json:"description"`
	Parameters  map[string]*schema.ParameterInfo `json:"parameters,omitempty"`
}

type Summary struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type Stats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	Tools      []Summary      `json:"tools"`
}

// Catalog lists every registered tool in registration order.
func (r *Registry) Catalog() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		h := r.tools[name]
		out = append(out, Spec{
			Name:        h.Name(),
			Description: h.Description(),
			Parameters:  h.Parameters(),
		})
	}
	return out
}

// ToolInfos converts the catalog into eino tool definitions for a tool-calling chat model.
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	specs := r.Catalog()
	infos := make([]*schema.ToolInfo, 0, len(specs))
	for _, s := range specs {
		info := &schema.ToolInfo{
			Name: s.Name,
			Desc: s.Description,
		}
		if len(s.Parameters) > 0 {
			info.ParamsOneOf = schema.NewParamsOneOfByParams(s.Parameters)
		}
		infos = append(infos, info)
	}
	return infos
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Total:      len(r.order),
		ByCategory: make(map[string]int, 4),
		Tools:      make([]Summary, 0, len(r.order)),
	}
	for _, name := range r.order {
		cat := categoryOf(r.tools[name])
		stats.ByCategory[cat]++
		stats.Tools = append(stats.Tools, Summary{Name: name, Category: cat})
	}
	sort.SliceStable(stats.Tools, func(i, j int) bool {
		return stats.Tools[i].Category < stats.Tools[j].Category
	})
	return stats
}
