package dto

type StatsSummaryResponse struct {
	TotalUsers       int64   `json:"total_users"`
	TotalEvents      int64   `json:"total_events"`
	TotalImages      int64   `json:"total_images"`
	TotalFaces       int64   `json:"total_faces"`
	TotalStorage     int64   `json:"total_storage_bytes"`
	TotalStorageMB   float64 `json:"total_storage_mb"`
	RecentUploads24h int64   `json:"recent_uploads_24h"`
	RecentLogins24h  int64   `json:"recent_logins_24h"`
	ConsentGiven     int64   `json:"consent_given"`
	ConsentNotGiven  int64   `json:"consent_not_given"`
}
