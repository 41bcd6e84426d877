package llm

import (
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	openrouterx "github.com/tanpawarit/chative-orchestrator/pkg/openrouter"
)

// Config holds the model host settings. The chat model always goes through
// BaseURL; embeddings can point at a different OpenAI-compatible endpoint.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	MaxRetries         int           `envconfig:"MAX_RETRIES" split_words:"true" default:"2"`
	DisableReasoning   bool          `envconfig:"DISABLE_REASONING" split_words:"true" default:"false"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	EmbeddingBaseURL string `envconfig:"EMBEDDING_BASE_URL" split_words:"true"`
	EmbeddingAPIKey  string `envconfig:"EMBEDDING_API_KEY" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return nil
}

// ChatModel returns the builder config for the assistant chat model.
func (c Config) ChatModel() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		MaxRetries:         c.MaxRetries,
		DisableReasoning:   c.DisableReasoning,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// EmbeddingClient returns an SDK client for the embedding endpoint, falling
// back to the chat endpoint settings. It returns nil when no key is set.
func (c Config) EmbeddingClient() *openaisdk.Client {
	cfg := c.ChatModel()
	if v := strings.TrimSpace(c.EmbeddingBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(c.EmbeddingAPIKey); v != "" {
		cfg.APIKey = v
	}
	return openrouterx.NewClient(cfg)
}
