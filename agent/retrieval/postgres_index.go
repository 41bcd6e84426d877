package retrieval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type knowledgeRow struct {
	bun.BaseModel `bun:"table:knowledge_documents,alias:kd"`

	ID        string         `bun:"id,pk"`
	Content   string         `bun:"content,notnull"`
	Embedding []float64      `bun:"embedding,array"`
	Metadata  map[string]any `bun:"metadata,type:jsonb"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// PostgresIndex stores documents and their embeddings in Postgres and
// ranks them in process. It suits knowledge bases of a few thousand rows.
type PostgresIndex struct {
	db  *bun.DB
	now func() time.Time
}

var _ VectorIndex = (*PostgresIndex)(nil)

func NewPostgresIndex(dsn string) (*PostgresIndex, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return NewPostgresIndexFromDB(bun.NewDB(sqldb, pgdialect.New())), nil
}

func NewPostgresIndexFromDB(db *bun.DB) *PostgresIndex {
	return &PostgresIndex{db: db, now: time.Now}
}

func (p *PostgresIndex) EnsureSchema(ctx context.Context) error {
	if _, err := p.createTableQuery().Exec(ctx); err != nil {
		return fmt.Errorf("create knowledge table: %w", err)
	}
	return nil
}

func (p *PostgresIndex) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	now := p.now().UTC()
	rows := make([]knowledgeRow, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, knowledgeRow{
			ID:        d.ID,
			Content:   d.Content,
			Embedding: d.Vector.float64s(),
			Metadata:  d.Metadata,
			UpdatedAt: now,
		})
	}

	if _, err := p.upsertQuery(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("upsert knowledge documents: %w", err)
	}
	return nil
}

func (p *PostgresIndex) Search(ctx context.Context, query Vector, limit int) ([]Match, error) {
	var rows []knowledgeRow
	if err := p.selectQuery(&rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load knowledge documents: %w", err)
	}
	return rankRows(rows, query, limit), nil
}

func (p *PostgresIndex) Close() error {
	return p.db.Close()
}

func (p *PostgresIndex) createTableQuery() *bun.CreateTableQuery {
	return p.db.NewCreateTable().
		Model((*knowledgeRow)(nil)).
		IfNotExists()
}

// Re-ingesting a document id replaces its content and embedding in place.
func (p *PostgresIndex) upsertQuery(rows *[]knowledgeRow) *bun.InsertQuery {
	return p.db.NewInsert().
		Model(rows).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding").
		Set("metadata = EXCLUDED.metadata").
		Set("updated_at = EXCLUDED.updated_at")
}

func (p *PostgresIndex) selectQuery(rows *[]knowledgeRow) *bun.SelectQuery {
	return p.db.NewSelect().Model(rows).Order("id ASC")
}

func rankRows(rows []knowledgeRow, query Vector, limit int) []Match {
	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		vec := vectorFromFloat64s(r.Embedding)
		matches = append(matches, Match{
			Document: Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata, Vector: vec},
			Score:    query.Similarity(vec),
		})
	}
	return rankMatches(matches, limit)
}
