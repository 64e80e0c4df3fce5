package usage

import "time"

// Data is the root structure stored in usage.json.
type Data struct {
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Aggregate Stats     `json:"aggregate"`
}

// Stats holds counters broken down by various dimensions.
type Stats struct {
	Total       TokenCounts            `json:"total"`
	ByProvider  map[string]TokenCounts `json:"by_provider"`
	ByModel     map[string]TokenCounts `json:"by_model"`
	ByOperation map[string]TokenCounts `json:"by_operation"` // mindmap, embedding, ...
	ByDay       map[string]TokenCounts `json:"by_day"`       // 2006-01-02
}

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Calls  int64 `json:"calls"`
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
	Total  int64 `json:"total"`
}

// Add records one call.
func (tc *TokenCounts) Add(input, output int) {
	tc.Calls++
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
}

func newStats() Stats {
	return Stats{
		ByProvider:  make(map[string]TokenCounts),
		ByModel:     make(map[string]TokenCounts),
		ByOperation: make(map[string]TokenCounts),
		ByDay:       make(map[string]TokenCounts),
	}
}
