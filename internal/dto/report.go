package dto

import "github.com/thuongvd0411/theodoihoctoan/internal/models"

// ReportRequest captures the payload for generating a monthly report.
type ReportRequest struct {
	Month  int                 `json:"month"`
	Year   int                 `json:"year"`
	Format models.ReportFormat `json:"format"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}

// StatsQuery scopes a monthly statistics request.
type StatsQuery struct {
	Month int `form:"month"`
	Year  int `form:"year"`
}
