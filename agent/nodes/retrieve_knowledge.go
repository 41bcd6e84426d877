package orchestratornode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	retrievalx "github.com/tanpawarit/chative-orchestrator/agent/retrieval"
)

// RetrieveKnowledge looks up context for the message. Errors and timeouts
// leave the knowledge context empty and never fail the pipeline. Non-empty
// context is pushed into the session knowledge buffer.
func RetrieveKnowledge(
	ctx context.Context,
	in *GraphState,
	retriever contractx.KnowledgeRetriever,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if retriever == nil {
		return in, nil
	}

	snippets, err := searchWithTimeout(ctx, retriever, in.Text, timeout)
	if err != nil {
		in.RetrievalErr = fmt.Errorf("%w: %v", contractx.ErrRetrieval, err)
		log.Warn().Err(err).Str("session_id", in.Session.ID()).Msg("knowledge retrieval failed, continuing without context")
		return in, nil
	}

	in.Snippets = snippets
	in.KnowledgeContext = retrievalx.FormatKnowledge(snippets)
	if in.KnowledgeContext != "" {
		in.Session.AddKnowledgeContext(in.KnowledgeContext)
	}
	return in, nil
}

type searchResult struct {
	snippets []contractx.KnowledgeSnippet
	err      error
}

// searchWithTimeout returns when the retriever answers or the deadline passes,
// whichever comes first, even if the retriever ignores ctx.
func searchWithTimeout(
	ctx context.Context,
	retriever contractx.KnowledgeRetriever,
	query string,
	timeout time.Duration,
) ([]contractx.KnowledgeSnippet, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan searchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- searchResult{err: fmt.Errorf("retriever panic: %v", r)}
			}
		}()
		snippets, err := retriever.Search(ctx, query)
		done <- searchResult{snippets: snippets, err: err}
	}()

	select {
	case res := <-done:
		return res.snippets, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
