package model

// UserStatistics holds demographic counts computed at aggregation time.
type UserStatistics struct {
	GenderCounts   map[string]int
	AgeGroupCounts map[string]int
}

// ListParams is the shared paged-and-sortable query shape used by the
// user, share, holding and transaction listings.
type ListParams struct {
	OrderBy string
	Order   string
	Offset  int
	Limit   int
}
