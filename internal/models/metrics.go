package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot exposed on the API.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	StatsComputeCount        uint64    `json:"statsComputeCount"`
	AverageStatsComputeMs    float64   `json:"averageStatsComputeMs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
