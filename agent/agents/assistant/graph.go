package assistant

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

func compileModelStepGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
) (compose.Runnable[[]*schema.Message, *schema.Message], error) {
	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()

	if err := graph.AddLambdaNode("check_messages",
		compose.InvokableLambda(func(ctx context.Context, msgs []*schema.Message) ([]*schema.Message, error) {
			if len(msgs) == 0 || msgs[0].Role != schema.System {
				return nil, fmt.Errorf("%w: conversation must start with a system prompt", contractx.ErrValidation)
			}
			return msgs, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add model step check node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model step model node: %w", err)
	}
	if err := graph.AddLambdaNode("check_response",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (*schema.Message, error) {
			if msg == nil {
				return nil, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
			}
			return msg, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add model step response node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "check_messages"},
		{"check_messages", "model"},
		{"model", "check_response"},
		{"check_response", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add model step edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("assistant.model_step"))
	if err != nil {
		return nil, fmt.Errorf("compile model step graph: %w", err)
	}
	return runner, nil
}
