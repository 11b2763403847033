package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/photohub/internal/models"
)

func (s *PostgresStore) AddFaceEmbedding(ctx context.Context, imageID, eventID uuid.UUID, embedding []float32) (*models.FaceEmbedding, error) {
	fe := &models.FaceEmbedding{
		ID:        uuid.New(),
		ImageID:   imageID,
		EventID:   eventID,
		Embedding: embedding,
	}

	vec := pgvector.NewVector(embedding)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO faces (face_id, image_id, event_id, face_embedding) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		fe.ID, fe.ImageID, fe.EventID, vec,
	).Scan(&fe.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add face embedding: %w", err)
	}
	return fe, nil
}

func (s *PostgresStore) CountFaces(ctx context.Context, imageID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM faces WHERE image_id = $1`, imageID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count faces: %w", err)
	}
	return count, nil
}

// MatchFaces returns the faces of one event whose cosine similarity to probe
// is strictly greater than threshold, best first. Equal similarities are
// ordered by face id so repeated queries return the same sequence.
func (s *PostgresStore) MatchFaces(ctx context.Context, probe []float32, eventID uuid.UUID, threshold float64, limit int) ([]models.FaceMatch, error) {
	if limit <= 0 {
		limit = 50
	}
	vec := pgvector.NewVector(probe)

	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.filename, i.thumbnail_url, COALESCE(i.uploaded_by, '00000000-0000-0000-0000-000000000000'),
		       i.timestamp, f.face_id, 1 - (f.face_embedding <=> $2) AS similarity
		FROM images i
		JOIN faces f ON i.id = f.image_id
		WHERE i.event_id = $1 AND 1 - (f.face_embedding <=> $2) > $3
		ORDER BY similarity DESC, f.face_id ASC
		LIMIT $4`,
		eventID, vec, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("match faces: %w", err)
	}
	defer rows.Close()

	matches := make([]models.FaceMatch, 0)
	for rows.Next() {
		var m models.FaceMatch
		if err := rows.Scan(&m.ImageID, &m.Filename, &m.ThumbnailURL, &m.UploadedBy,
			&m.Timestamp, &m.FaceID, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
