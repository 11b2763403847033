package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (s *PostgresStore) InsertLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	details := entry.Details
	if len(details) == 0 {
		details = []byte("{}")
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO logs (log_id, user_id, action, details, notification_sent)
		 VALUES ($1, $2, $3, $4, $5) RETURNING timestamp`,
		entry.ID, entry.UserID, entry.Action, details, entry.NotificationSent,
	).Scan(&entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkNotificationSent(ctx context.Context, logID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE logs SET notification_sent = TRUE WHERE log_id = $1`, logID)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

func logFilterWhere(f models.LogFilter) sq.And {
	where := sq.And{}
	if f.Action != "" {
		where = append(where, sq.ILike{"action": "%" + f.Action + "%"})
	}
	if f.UserID != nil {
		where = append(where, sq.Eq{"user_id": *f.UserID})
	}
	if f.StartDate != nil {
		where = append(where, sq.GtOrEq{"timestamp": *f.StartDate})
	}
	if f.EndDate != nil {
		where = append(where, sq.LtOrEq{"timestamp": *f.EndDate})
	}
	return where
}

func buildLogQueries(f models.LogFilter) (sq.SelectBuilder, sq.SelectBuilder) {
	list := psql.Select("log_id", "user_id", "action", "details", "timestamp", "notification_sent").
		From("logs").
		OrderBy("timestamp DESC", "log_id").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))
	count := psql.Select("COUNT(*)").From("logs")

	if where := logFilterWhere(f); len(where) > 0 {
		list = list.Where(where)
		count = count.Where(where)
	}
	return list, count
}

// ListLogs returns one filtered page of audit entries, newest first, plus the total count.
func (s *PostgresStore) ListLogs(ctx context.Context, f models.LogFilter) ([]models.AuditLog, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	listQ, countQ := buildLogQueries(f)

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	listSQL, listArgs, err := listQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := s.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Details, &l.Timestamp, &l.NotificationSent); err != nil {
			return nil, 0, fmt.Errorf("scan log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

func (s *PostgresStore) ListLogActions(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT action FROM logs ORDER BY action`)
	if err != nil {
		return nil, fmt.Errorf("list log actions: %w", err)
	}
	defer rows.Close()

	var actions []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
