package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

var (
	//go:embed template/role_task_planner.txt
	rolePlannerRaw string

	//go:embed template/role_knowledge_advisor.txt
	roleAdvisorRaw string

	//go:embed template/role_task_executor.txt
	roleExecutorRaw string

	//go:embed template/complexity_simple.txt
	complexitySimpleRaw string

	//go:embed template/complexity_moderate.txt
	complexityModerateRaw string

	//go:embed template/complexity_complex.txt
	complexityComplexRaw string

	//go:embed template/guidance_simple.txt
	guidanceSimpleRaw string

	//go:embed template/guidance_moderate.txt
	guidanceModerateRaw string

	//go:embed template/guidance_complex.txt
	guidanceComplexRaw string

	//go:embed template/response_contract.txt
	responseContractRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Roles            map[contractx.Role]string
	Complexity       map[contractx.Complexity]string
	Guidance         map[contractx.Complexity]string
	ResponseContract string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Roles: map[contractx.Role]string{
			contractx.RoleTaskPlanner:      strings.TrimSpace(rolePlannerRaw),
			contractx.RoleKnowledgeAdvisor: strings.TrimSpace(roleAdvisorRaw),
			contractx.RoleTaskExecutor:     strings.TrimSpace(roleExecutorRaw),
		},
		Complexity: map[contractx.Complexity]string{
			contractx.ComplexitySimple:   strings.TrimSpace(complexitySimpleRaw),
			contractx.ComplexityModerate: strings.TrimSpace(complexityModerateRaw),
			contractx.ComplexityComplex:  strings.TrimSpace(complexityComplexRaw),
		},
		Guidance: map[contractx.Complexity]string{
			contractx.ComplexitySimple:   strings.TrimSpace(guidanceSimpleRaw),
			contractx.ComplexityModerate: strings.TrimSpace(guidanceModerateRaw),
			contractx.ComplexityComplex:  strings.TrimSpace(guidanceComplexRaw),
		},
		ResponseContract: strings.TrimSpace(responseContractRaw),
	}
}

var (
	allRoles        = []contractx.Role{contractx.RoleTaskPlanner, contractx.RoleKnowledgeAdvisor, contractx.RoleTaskExecutor}
	allComplexities = []contractx.Complexity{contractx.ComplexitySimple, contractx.ComplexityModerate, contractx.ComplexityComplex}
)

// Validate reports the first missing template.
func (p PromptSet) Validate() error {
	for _, r := range allRoles {
		if p.Roles[r] == "" {
			return fmt.Errorf("%w: role %s", contractx.ErrPromptMissing, r)
		}
	}
	for _, c := range allComplexities {
		if p.Complexity[c] == "" {
			return fmt.Errorf("%w: complexity %s", contractx.ErrPromptMissing, c)
		}
		if p.Guidance[c] == "" {
			return fmt.Errorf("%w: guidance %s", contractx.ErrPromptMissing, c)
		}
	}
	if p.ResponseContract == "" {
		return fmt.Errorf("%w: response contract", contractx.ErrPromptMissing)
	}
	return nil
}
