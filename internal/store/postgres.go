package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/orcafacil/orcafacil/internal/logger"
	"github.com/orcafacil/orcafacil/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultTable is the table created by the bundled migrations.
const DefaultTable = "budgets"

var columns = []string{
	"id",
	"batch_id",
	"device_type",
	"service_description",
	"quality",
	"notes",
	"cash_price_minor",
	"installment_price_minor",
	"installment_count",
	"payment_method",
	"warranty_months",
	"validity_days",
	"includes_delivery",
	"includes_screen_protector",
	"created_at",
}

// Pool is the subset of pgxpool.Pool the store needs.
type Pool interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

var _ Pool = (*pgxpool.Pool)(nil)

// Postgres bulk-loads budgets with COPY.
type Postgres struct {
	pool  Pool
	table string
	now   func() time.Time
	newID func() uuid.UUID
}

// NewPostgres returns a store writing to table, or DefaultTable when empty.
func NewPostgres(pool Pool, table string) *Postgres {
	if table == "" {
		table = DefaultTable
	}
	return &Postgres{pool: pool, table: table, now: time.Now, newID: uuid.New}
}

// Connect opens a pool for dsn and checks that the server answers.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// InsertMany copies records into the table under one batch id. All rows of a
// call share created_at.
func (p *Postgres) InsertMany(ctx context.Context, records []model.BudgetRecord) (int, error) {
	if p.pool == nil {
		return 0, ErrNoPool
	}
	if len(records) == 0 {
		return 0, nil
	}

	batch := p.newID()
	created := p.now().UTC()
	n, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{p.table},
		columns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return p.row(batch, created, records[i]), nil
		}),
	)
	if err != nil {
		return int(n), fmt.Errorf("copying budgets: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("batch_id", batch.String()).
		Int64("rows", n).
		Msg("budgets stored")
	return int(n), nil
}

func (p *Postgres) row(batch uuid.UUID, created time.Time, r model.BudgetRecord) []any {
	return []any{
		p.newID(),
		batch,
		r.DeviceType,
		r.ServiceDescription,
		nullable(r.Quality),
		nullable(r.Notes),
		int64(r.CashPrice),
		int64(r.InstallmentPrice),
		r.InstallmentCount,
		r.PaymentMethod,
		r.WarrantyMonths,
		r.ValidityDays,
		r.IncludesDelivery,
		r.IncludesScreenProtector,
		created,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Migrate applies the bundled migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// MigratePool runs Migrate over a database/sql handle borrowed from pool.
func MigratePool(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return Migrate(ctx, db)
}
