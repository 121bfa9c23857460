package domain

// MetricsSummary holds the aggregate figures derived from the snapshots of
// the most recent round.
type MetricsSummary struct {
	// VenuesOnline is the number of instruments with a displayable snapshot.
	VenuesOnline int `json:"venues_online"`

	// AverageFundingRate is the mean funding rate across those snapshots.
	AverageFundingRate float64 `json:"average_funding_rate"`
}
