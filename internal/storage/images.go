package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/photohub/internal/models"
)

const imageColumns = `id, event_id, filename, thumbnail_url, uploaded_by, consent_given,
	file_size, content_type, captured_at, timestamp`

func scanImage(row pgx.Row, img *models.Image) error {
	return row.Scan(&img.ID, &img.EventID, &img.Filename, &img.ThumbnailURL, &img.UploadedBy,
		&img.ConsentGiven, &img.FileSize, &img.ContentType, &img.CapturedAt, &img.Timestamp)
}

func (s *PostgresStore) CreateImage(ctx context.Context, img *models.Image) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO images (id, event_id, filename, thumbnail_url, uploaded_by, consent_given,
		                     file_size, content_type, captured_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING timestamp`,
		img.ID, img.EventID, img.Filename, img.ThumbnailURL, img.UploadedBy, img.ConsentGiven,
		img.FileSize, img.ContentType, img.CapturedAt,
	).Scan(&img.Timestamp)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetImage(ctx context.Context, eventID, imageID uuid.UUID) (*models.Image, error) {
	img := &models.Image{}
	err := scanImage(s.pool.QueryRow(ctx,
		`SELECT `+imageColumns+` FROM images WHERE id = $1 AND event_id = $2`, imageID, eventID,
	), img)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// ListImages returns one page of an event's images, newest first, plus the total count.
func (s *PostgresStore) ListImages(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]models.Image, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM images WHERE event_id = $1`, eventID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count images: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+imageColumns+` FROM images WHERE event_id = $1
		 ORDER BY timestamp DESC, id LIMIT $2 OFFSET $3`,
		eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		var img models.Image
		if err := scanImage(rows, &img); err != nil {
			return nil, 0, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, total, rows.Err()
}

// ListImagesBefore returns up to limit images uploaded before cutoff, oldest first.
func (s *PostgresStore) ListImagesBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Image, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+imageColumns+` FROM images WHERE timestamp < $1 ORDER BY timestamp LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired images: %w", err)
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		var img models.Image
		if err := scanImage(rows, &img); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes an image row and its faces. It returns ErrNotFound when
// the image does not belong to the event.
func (s *PostgresStore) DeleteImage(ctx context.Context, eventID, imageID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM faces WHERE image_id = $1`, imageID); err != nil {
		return fmt.Errorf("delete image faces: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM images WHERE id = $1 AND event_id = $2`, imageID, eventID)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
