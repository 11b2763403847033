package models

type StatsSummary struct {
	TotalUsers       int64
	TotalEvents      int64
	TotalImages      int64
	TotalFaces       int64
	TotalStorage     int64
	RecentUploads24h int64
	RecentLogins24h  int64
	ConsentGiven     int64
	ConsentNotGiven  int64
}

type EventImageCount struct {
	EventID string `json:"event_id"`
	Count   int64  `json:"count"`
}

type RoleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"user_count"`
}

type Dashboard struct {
	ImageCounts   []EventImageCount `json:"image_counts"`
	UserCounts    []RoleCount       `json:"user_counts"`
	RecentUploads []EventImageCount `json:"recent_uploads"`
	Events        []Event           `json:"events"`
}
