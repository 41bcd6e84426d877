package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	assistantx "github.com/tanpawarit/chative-orchestrator/agent/agents/assistant"
	orchestratorx "github.com/tanpawarit/chative-orchestrator/agent/agents/orchestrator"
	llmx "github.com/tanpawarit/chative-orchestrator/agent/llm"
	retrievalx "github.com/tanpawarit/chative-orchestrator/agent/retrieval"
	statex "github.com/tanpawarit/chative-orchestrator/agent/state"
	todox "github.com/tanpawarit/chative-orchestrator/agent/todo"
	toolx "github.com/tanpawarit/chative-orchestrator/agent/tool"
	configx "github.com/tanpawarit/chative-orchestrator/pkg/config"
	_ "github.com/tanpawarit/chative-orchestrator/pkg/logger/autoload"
)

type AppConfig struct {
	SessionID      string `envconfig:"SESSION_ID" split_words:"true"`
	KnowledgeFile  string `envconfig:"KNOWLEDGE_FILE" split_words:"true"`
	ArchiveEnabled bool   `envconfig:"ARCHIVE_ENABLED" split_words:"true" default:"false"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid model config")
	}
	orchCfg := configx.MustNew[orchestratorx.Config]("ORCHESTRATOR")
	retrievalCfg := configx.MustNew[retrievalx.Config]("RETRIEVAL")

	retriever, err := retrievalx.New(ctx, *retrievalCfg, llmCfg.EmbeddingClient())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize retrieval")
	}
	defer retriever.Close()

	if path := strings.TrimSpace(appCfg.KnowledgeFile); path != "" {
		if err := seedKnowledge(ctx, retriever, path); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("failed to seed knowledge")
		}
	}

	var archive statex.Archive
	if appCfg.ArchiveEnabled {
		upstashCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		a, err := statex.NewUpstashRedisArchive(*upstashCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize conversation archive")
		}
		archive = a
	}

	registry := toolx.NewRegistry()
	toolx.RegisterDefaults(registry, todox.NewManager())

	chatModelCfg := llmCfg.ChatModel()
	chatModel, err := chatModelCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create chat model")
	}
	assistant, err := assistantx.New(ctx, chatModel, registry.ToolInfos())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create assistant")
	}

	manager := orchestratorx.NewManager(*orchCfg, func(id string) (*orchestratorx.Orchestrator, error) {
		return orchestratorx.New(id, registry, retriever, archive, *orchCfg)
	})

	sessionID := strings.TrimSpace(appCfg.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	session, err := manager.Session(sessionID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session")
	}
	log.Info().Str("session_id", sessionID).Msg("session ready")

	runREPL(ctx, assistant, session)

	if archive != nil {
		if err := session.Archive(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("failed to archive session")
		}
	}
}

func seedKnowledge(ctx context.Context, retriever *retrievalx.Retriever, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var docs []retrievalx.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("decode knowledge file: %w", err)
	}
	if err := retriever.AddDocuments(ctx, docs); err != nil {
		return err
	}
	log.Info().Int("documents", len(docs)).Msg("knowledge seeded")
	return nil
}

func runREPL(ctx context.Context, assistant *assistantx.Assistant, session *orchestratorx.Orchestrator) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Type a message, or /plan /next /export /clear /quit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() || ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return
		case "/plan":
			plan, ok := session.Plan()
			if !ok {
				fmt.Println("no plan yet")
				continue
			}
			printJSON(plan)
		case "/next":
			rec, err := session.NextStep()
			if err != nil {
				fmt.Println(err)
				continue
			}
			printJSON(rec)
		case "/export":
			printJSON(session.Export())
		case "/clear":
			session.ClearHistory()
			fmt.Println("history cleared")
		default:
			reply, err := assistant.Reply(ctx, session, line)
			for _, call := range reply.ToolCalls {
				fmt.Printf("  [%s] %s\n", call.Name, call.Result.Message)
			}
			if err != nil {
				if errors.Is(err, assistantx.ErrStepLimit) {
					fmt.Println("(stopped after too many tool calls)")
					continue
				}
				log.Error().Err(err).Str("session_id", session.SessionID()).Msg("reply failed")
				continue
			}
			fmt.Println(reply.Message)
		}
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(b))
}
