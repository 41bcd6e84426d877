package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrArchiveNotFound = errors.New("conversation archive not found")
	ErrInvalidSession  = errors.New("session id is empty")
)

const (
	defaultArchiveKeyPrefix = "conv:"
	defaultArchiveKeySuffix = ":archive"
	defaultArchiveTTL       = 7 * 24 * time.Hour
	maxResponseSizeBytes    = 2 << 20
)

// Archive keeps an audit copy of exported conversations.
// Sessions are never rebuilt from it.
type Archive interface {
	Save(ctx context.Context, export ConversationExport) error
	Load(ctx context.Context, sessionID string) (ConversationExport, error)
	Delete(ctx context.Context, sessionID string) error
}

type ArchiveOption func(*UpstashRedisArchive)

func WithKeyPrefix(prefix string) ArchiveOption {
	return func(a *UpstashRedisArchive) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			a.keyPrefix = trimmed
		}
	}
}

// WithTTL sets the key expiry; 0 keeps archives forever.
func WithTTL(ttl time.Duration) ArchiveOption {
	return func(a *UpstashRedisArchive) {
		a.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) ArchiveOption {
	return func(a *UpstashRedisArchive) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// UpstashRedisArchive stores ConversationExport values in Upstash Redis over its REST API.
type UpstashRedisArchive struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashRedisArchive(cfg UpstashRedisConfig, opts ...ArchiveOption) (*UpstashRedisArchive, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	archive := &UpstashRedisArchive{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		keyPrefix:  defaultArchiveKeyPrefix,
		ttl:        defaultArchiveTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(archive)
		}
	}
	if archive.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return archive, nil
}

func (a *UpstashRedisArchive) Save(ctx context.Context, export ConversationExport) error {
	key, err := a.redisKey(export.SessionID)
	if err != nil {
		return err
	}
	if export.ExportedAt.IsZero() {
		export.ExportedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(export)
	if err != nil {
		return fmt.Errorf("marshal conversation export: %w", err)
	}

	cmd := []any{"SET", key, string(payload)}
	if a.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(a.ttl))
	}
	_, err = a.exec(ctx, cmd)
	return err
}

func (a *UpstashRedisArchive) Load(ctx context.Context, sessionID string) (ConversationExport, error) {
	key, err := a.redisKey(sessionID)
	if err != nil {
		return ConversationExport{}, err
	}

	resp, err := a.exec(ctx, []any{"GET", key})
	if err != nil {
		return ConversationExport{}, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return ConversationExport{}, fmt.Errorf("%w: %s", ErrArchiveNotFound, sessionID)
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return ConversationExport{}, fmt.Errorf("decode archive payload: %w", err)
	}

	var export ConversationExport
	if err := json.Unmarshal([]byte(encoded), &export); err != nil {
		return ConversationExport{}, fmt.Errorf("unmarshal conversation export: %w", err)
	}
	return export, nil
}

func (a *UpstashRedisArchive) Delete(ctx context.Context, sessionID string) error {
	key, err := a.redisKey(sessionID)
	if err != nil {
		return err
	}
	_, err = a.exec(ctx, []any{"DEL", key})
	return err
}

func (a *UpstashRedisArchive) redisKey(sessionID string) (string, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return "", ErrInvalidSession
	}
	prefix := a.keyPrefix
	if prefix == "" {
		prefix = defaultArchiveKeyPrefix
	}
	return prefix + id + defaultArchiveKeySuffix, nil
}

func (a *UpstashRedisArchive) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
