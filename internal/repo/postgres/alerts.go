package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/certwatch/internal/domain"
	"github.com/hamed0406/certwatch/internal/repo"
)

var _ repo.AlertHistoryStore = (*Store)(nil)

func (s *Store) Load(ctx context.Context) (repo.AlertHistory, error) {
	rows, err := s.pool.Query(ctx, `SELECT host, last_alert_date FROM alert_history`)
	if err != nil {
		return repo.AlertHistory{}, fmt.Errorf("load alert history: %w", err)
	}
	defer rows.Close()

	h := repo.AlertHistory{}
	for rows.Next() {
		var host, date string
		if err := rows.Scan(&host, &date); err != nil {
			return repo.AlertHistory{}, fmt.Errorf("scan alert history: %w", err)
		}
		h[domain.Host(host)] = date
	}
	if err := rows.Err(); err != nil {
		return repo.AlertHistory{}, fmt.Errorf("load alert history: %w", err)
	}
	return h, nil
}

// Save replaces the table contents with h in one transaction.
func (s *Store) Save(ctx context.Context, h repo.AlertHistory) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM alert_history`); err != nil {
			return fmt.Errorf("clear alert history: %w", err)
		}
		if len(h) == 0 {
			return nil
		}
		b := &pgx.Batch{}
		for host, date := range h {
			b.Queue(`INSERT INTO alert_history (host, last_alert_date) VALUES ($1, $2)`, string(host), date)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("insert alert history: %w", err)
		}
		return nil
	})
}
