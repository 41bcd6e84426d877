package orchestrator

import (
	"time"

	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	statex "github.com/tanpawarit/chative-orchestrator/agent/state"
)

type Config struct {
	MaxHistoryLength  int           `envconfig:"MAX_HISTORY_LENGTH" split_words:"true" default:"50"`
	EnablePlanning    bool          `envconfig:"ENABLE_PLANNING" split_words:"true" default:"true"`
	EnableRetrieval   bool          `envconfig:"ENABLE_RETRIEVAL" split_words:"true" default:"true"`
	RetrievalTimeout  time.Duration `envconfig:"RETRIEVAL_TIMEOUT" split_words:"true" default:"300ms"`
	DefaultRole       string        `envconfig:"DEFAULT_ROLE" split_words:"true" default:"task_executor"`
	DefaultComplexity string        `envconfig:"DEFAULT_COMPLEXITY" split_words:"true" default:"Simple"`
	MaxSessions       int           `envconfig:"MAX_SESSIONS" split_words:"true" default:"0"`
	SessionIdleTTL    time.Duration `envconfig:"SESSION_IDLE_TTL" split_words:"true" default:"0"`
}

// DefaultConfig matches the envconfig defaults for callers that build Config by hand.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLength:  statex.DefaultMaxHistoryLength,
		EnablePlanning:    true,
		EnableRetrieval:   true,
		RetrievalTimeout:  300 * time.Millisecond,
		DefaultRole:       string(contractx.RoleTaskExecutor),
		DefaultComplexity: string(contractx.ComplexitySimple),
	}
}
