package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/chative-orchestrator/agent/nodes"
)

func (o *Orchestrator) compileProcessInputGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_input",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateInput(in, o.session, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_input: %w", err)
	}

	if err := graph.AddLambdaNode("classify_task",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyTask(in, o.cfg.EnablePlanning, o.defaultRole, o.defaultComplexity)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_task: %w", err)
	}

	if err := graph.AddLambdaNode("retrieve_knowledge",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RetrieveKnowledge(ctx, in, o.activeRetriever(), o.cfg.RetrievalTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node retrieve_knowledge: %w", err)
	}

	if err := graph.AddLambdaNode("compose_prompt",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ComposePrompt(in, o.composer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose_prompt: %w", err)
	}

	if err := graph.AddLambdaNode("build_plan",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BuildPlan(in, o.planner)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_plan: %w", err)
	}

	if err := graph.AddLambdaNode("transition_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.TransitionState(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node transition_state: %w", err)
	}

	if err := graph.AddLambdaNode("record_user_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordUserTurn(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_user_turn: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_result",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeResult(in, o.catalog, o.toolInfos)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_result: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_input"},
		{"validate_input", "classify_task"},
		{"classify_task", "retrieve_knowledge"},
		{"retrieve_knowledge", "compose_prompt"},
		{"compose_prompt", "build_plan"},
		{"build_plan", "transition_state"},
		{"transition_state", "record_user_turn"},
		{"record_user_turn", "finalize_result"},
		{"finalize_result", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.process_input"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
