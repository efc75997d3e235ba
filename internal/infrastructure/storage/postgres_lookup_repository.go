package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"whatflower/internal/domain/entity"
	"whatflower/internal/domain/port"
)

const schemaLookups = `
create table if not exists flower_lookups (
  id            uuid primary key,
  user_id       bigint not null,
  chat_id       bigint not null,
  label         text not null,
  title         text not null,
  confidence    real not null,
  page_id       text not null default '',
  thumbnail_url text not null default '',
  created_at    timestamptz not null default now()
);
create index if not exists flower_lookups_user_created_idx on flower_lookups (user_id, created_at desc);`

// PostgresLookupRepository хранит историю распознаваний в Postgres.
type PostgresLookupRepository struct{ DB *sql.DB }

func NewPostgresLookupRepository(db *sql.DB) *PostgresLookupRepository {
	return &PostgresLookupRepository{DB: db}
}

// OpenPostgres открывает пул соединений через драйвер pgx и проверяет доступность БД.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// EnsureSchema создаёт таблицу истории, если её ещё нет.
func (r *PostgresLookupRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schemaLookups); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresLookupRepository) Save(ctx context.Context, l *entity.Lookup) error {
	const q = `
insert into flower_lookups (id, user_id, chat_id, label, title, confidence, page_id, thumbnail_url, created_at)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
on conflict (id) do nothing`
	_, err := r.DB.ExecContext(ctx, q,
		l.ID.String(), l.UserID, l.ChatID, l.Label, l.Title, l.Confidence, l.PageID, l.ThumbnailURL, l.CreatedAt,
	)
	return err
}

func (r *PostgresLookupRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]entity.Lookup, error) {
	const q = `
select id, user_id, chat_id, label, title, confidence, page_id, thumbnail_url, created_at
from flower_lookups
where user_id = $1
order by created_at desc
limit $2`
	rows, err := r.DB.QueryContext(ctx, q, userID, listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Lookup
	for rows.Next() {
		var l entity.Lookup
		if err := rows.Scan(&l.ID, &l.UserID, &l.ChatID, &l.Label, &l.Title, &l.Confidence,
			&l.PageID, &l.ThumbnailURL, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

var _ port.LookupRepository = (*PostgresLookupRepository)(nil)
