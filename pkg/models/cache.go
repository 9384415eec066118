package models

// CacheStats reports query cache performance metrics.
type CacheStats struct {
	Entries       int64 `json:"entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	FetchErrors   int64 `json:"fetch_errors"`
	Invalidations int64 `json:"invalidations"`
}
