package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

// PostgresJournal — журнал синхронизаций в Postgres: одна строка на заказ,
// последняя запись побеждает.
type PostgresJournal struct {
	Pool *pgxpool.Pool
}

func NewPostgresJournal(pool *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{Pool: pool}
}

func (r *PostgresJournal) Record(ctx context.Context, rec domain.SyncRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = r.Pool.Exec(ctx, `INSERT INTO sync_journal(order_code, outcome, recorded_at, payload) VALUES($1, $2, $3, $4)
        ON CONFLICT (order_code) DO UPDATE SET outcome = EXCLUDED.outcome, recorded_at = EXCLUDED.recorded_at, payload = EXCLUDED.payload`,
		rec.OrderCode, string(rec.Outcome), rec.RecordedAt, raw)
	if err != nil {
		return fmt.Errorf("record sync journal %s: %w", rec.OrderCode, err)
	}
	return nil
}

func (r *PostgresJournal) Get(ctx context.Context, orderCode string) (domain.SyncRecord, bool, error) {
	var raw []byte
	err := r.Pool.QueryRow(ctx, `SELECT payload FROM sync_journal WHERE order_code = $1`, orderCode).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SyncRecord{}, false, nil
	}
	if err != nil {
		return domain.SyncRecord{}, false, err
	}
	var rec domain.SyncRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.SyncRecord{}, false, err
	}
	return rec, true, nil
}

// LoadAll отдаёт последние записи журнала, новые первыми, не больше limit.
func (r *PostgresJournal) LoadAll(ctx context.Context, limit int, fn func(rec domain.SyncRecord) error) error {
	rows, err := r.Pool.Query(ctx, `SELECT payload FROM sync_journal ORDER BY recorded_at DESC LIMIT $1`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		var rec domain.SyncRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

var _ domain.SyncJournal = (*PostgresJournal)(nil)

// EnsureSchema — создать необходимые таблицы, если отсутствуют.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sync_journal (
  order_code text PRIMARY KEY,
  outcome text NOT NULL,
  recorded_at timestamptz NOT NULL,
  payload jsonb NOT NULL
);`)
	return err
}
