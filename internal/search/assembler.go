package search

import (
	"github.com/google/uuid"

	"github.com/your-org/photohub/internal/models"
	"github.com/your-org/photohub/pkg/dto"
)

// Assemble shapes matcher rows into the response, keeping their order.
// Stored thumbnail keys are exposed as fetchable API paths.
func Assemble(matches []models.FaceMatch, eventID uuid.UUID, threshold float64) *dto.SearchResponse {
	results := make([]dto.SearchResult, 0, len(matches))
	for _, m := range matches {
		var thumb *string
		if m.ThumbnailURL != nil {
			u := dto.ImageThumbnailURL(eventID, m.ImageID)
			thumb = &u
		}
		results = append(results, dto.SearchResult{
			ID:           m.ImageID,
			Filename:     m.Filename,
			ThumbnailURL: thumb,
			UploadedBy:   m.UploadedBy,
			Timestamp:    m.Timestamp,
			FaceID:       m.FaceID,
			Similarity:   m.Similarity,
		})
	}

	return &dto.SearchResponse{
		Results: results,
		SearchParams: dto.SearchParams{
			EventID:      eventID,
			Threshold:    threshold,
			TotalMatches: len(results),
		},
	}
}

func successDetails(v *Validated, resp *dto.SearchResponse) map[string]any {
	return map[string]any{
		"event_id":     v.EventID.String(),
		"result_count": resp.SearchParams.TotalMatches,
		"threshold":    v.Threshold,
		"filename":     v.Filename,
	}
}
