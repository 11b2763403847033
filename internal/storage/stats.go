package storage

import (
	"context"
	"fmt"

	"github.com/your-org/photohub/internal/models"
)

func (s *PostgresStore) StatsSummary(ctx context.Context) (*models.StatsSummary, error) {
	st := &models.StatsSummary{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM images),
			(SELECT COUNT(*) FROM faces),
			(SELECT COALESCE(SUM(file_size), 0) FROM images),
			(SELECT COUNT(*) FROM images WHERE timestamp > now() - interval '24 hours'),
			(SELECT COUNT(*) FROM logs WHERE action = 'login_success' AND timestamp > now() - interval '24 hours'),
			(SELECT COUNT(*) FROM images WHERE consent_given),
			(SELECT COUNT(*) FROM images WHERE NOT consent_given)`,
	).Scan(&st.TotalUsers, &st.TotalEvents, &st.TotalImages, &st.TotalFaces, &st.TotalStorage,
		&st.RecentUploads24h, &st.RecentLogins24h, &st.ConsentGiven, &st.ConsentNotGiven)
	if err != nil {
		return nil, fmt.Errorf("stats summary: %w", err)
	}
	return st, nil
}

// Dashboard collects the admin overview: per-event image counts, users per
// role, uploads of the last day per event and the five newest events.
func (s *PostgresStore) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	d := &models.Dashboard{
		ImageCounts:   []models.EventImageCount{},
		UserCounts:    []models.RoleCount{},
		RecentUploads: []models.EventImageCount{},
		Events:        []models.Event{},
	}

	var err error
	if d.ImageCounts, err = s.eventImageCounts(ctx,
		`SELECT event_id::text, COUNT(*) FROM images GROUP BY event_id ORDER BY COUNT(*) DESC`); err != nil {
		return nil, err
	}
	if d.RecentUploads, err = s.eventImageCounts(ctx,
		`SELECT event_id::text, COUNT(*) FROM images WHERE timestamp > now() - interval '24 hours'
		 GROUP BY event_id ORDER BY COUNT(*) DESC`); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role ORDER BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	for rows.Next() {
		var rc models.RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		d.UserCounts = append(d.UserCounts, rc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}

	events, err := s.ListEvents(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(events) > 5 {
		events = events[:5]
	}
	if events != nil {
		d.Events = events
	}
	return d, nil
}

func (s *PostgresStore) eventImageCounts(ctx context.Context, query string) ([]models.EventImageCount, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count images by event: %w", err)
	}
	defer rows.Close()

	counts := []models.EventImageCount{}
	for rows.Next() {
		var c models.EventImageCount
		if err := rows.Scan(&c.EventID, &c.Count); err != nil {
			return nil, fmt.Errorf("scan image count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
