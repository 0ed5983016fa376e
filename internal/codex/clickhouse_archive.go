package codex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ForceField/internal/domain/models"
	"ForceField/internal/domain/repository"
	pkgch "ForceField/pkg/clickhouse"
	applogger "ForceField/pkg/logger"
)

// ClickHouseArchive persists interpretation batches to ClickHouse for
// long-term querying. The in-process Log stays authoritative; archive
// failures are reported but never abort a detection pass.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseArchive creates an archive over an established client.
func NewClickHouseArchive(ch *pkgch.Client, table string, l *applogger.Logger) repository.Archive {
	return &ClickHouseArchive{db: ch.DB(), table: table, l: l}
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	q := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id            String,
            ts            DateTime64(3, 'UTC'),
            tipo          LowCardinality(String),
            preco_centro  Float64,
            range_low     Float64,
            range_high    Float64,
            intensidade   Float64,
            descricao     String,
            analise       String,
            recomendacoes Array(String)
        ) ENGINE = ReplacingMergeTree()
        ORDER BY (tipo, ts, id)
    `, a.table)
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init archive schema: %w", err)
	}
	return nil
}

func (a *ClickHouseArchive) ArchiveInterpretations(ctx context.Context, batch []models.Interpretation) error {
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()

	values := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*10)
	for _, in := range batch {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			in.ID,
			in.Timestamp.UTC(),
			string(in.Type),
			in.Location.PriceCenter,
			in.Location.Range[0],
			in.Location.Range[1],
			in.Intensity,
			in.Description,
			in.Analysis,
			in.Recommendations,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (id, ts, tipo, preco_centro, range_low, range_high, intensidade, descricao, analise, recomendacoes) VALUES %s",
		a.table, strings.Join(values, ","))
	if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
		if a.l != nil {
			a.l.Error("clickhouse archive insert error",
				applogger.String("table", a.table),
				applogger.Int("batch", len(batch)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("archive interpretations: %w", err)
	}
	if a.l != nil {
		a.l.Debug("clickhouse archive insert ok",
			applogger.String("table", a.table),
			applogger.Int("batch", len(batch)),
			applogger.Duration("duration", time.Since(start)),
		)
	}
	return nil
}

func (a *ClickHouseArchive) Close() error {
	return nil // pool owned by pkg client
}
