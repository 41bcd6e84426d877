package prompt

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	toolx "github.com/tanpawarit/chative-orchestrator/agent/tool"
)

// Composer assembles system prompts. Build is a pure function of its inputs
// and the tool catalog captured at construction.
type Composer struct {
	prompts PromptSet
	tools   string
}

func NewComposer(prompts PromptSet, catalog []toolx.Spec) (*Composer, error) {
	if err := prompts.Validate(); err != nil {
		return nil, err
	}
	return &Composer{prompts: prompts, tools: describeTools(catalog)}, nil
}

// Build returns the system prompt for role and complexity. Unknown values fall
// back to the executor role and Simple complexity. The knowledge section is
// omitted when knowledge is blank.
func (c *Composer) Build(role contractx.Role, complexity contractx.Complexity, knowledge string) string {
	roleText, ok := c.prompts.Roles[role]
	if !ok {
		roleText = c.prompts.Roles[contractx.RoleTaskExecutor]
	}
	if _, ok := c.prompts.Complexity[complexity]; !ok {
		complexity = contractx.ComplexitySimple
	}

	sections := []string{
		"## Role\n" + roleText,
		"## Task complexity\n" + c.prompts.Complexity[complexity],
		"## Response format\n" + c.prompts.ResponseContract,
		"## Guidance\n" + c.prompts.Guidance[complexity],
		"## Available tools\n" + c.tools,
	}
	if k := strings.TrimSpace(knowledge); k != "" {
		sections = append(sections, "## Relevant knowledge\n"+k)
	}
	return strings.Join(sections, "\n\n")
}

func describeTools(catalog []toolx.Spec) string {
	if len(catalog) == 0 {
		return "No tools are available."
	}
	lines := make([]string, 0, len(catalog))
	for _, spec := range catalog {
		line := fmt.Sprintf("- %s: %s", spec.Name, spec.Description)
		if params := describeParams(spec); params != "" {
			line += " Parameters: " + params + "."
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func describeParams(spec toolx.Spec) string {
	if len(spec.Parameters) == 0 {
		return ""
	}
	names := make([]string, 0, len(spec.Parameters))
	for name := range spec.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		p := spec.Parameters[name]
		if p == nil {
			continue
		}
		part := fmt.Sprintf("%s (%s", name, p.Type)
		if p.Required {
			part += ", required"
		}
		if len(p.Enum) > 0 {
			part += ", one of " + strings.Join(p.Enum, "|")
		}
		parts = append(parts, part+")")
	}
	return strings.Join(parts, ", ")
}
