// Package ledger records the cost of each completed analysis per day.
package ledger

import (
	"context"
	"time"
)

// DateLayout is the day key of ledger rows
const DateLayout = "2006-01-02"

// Entry is one completed analysis
type Entry struct {
	UsedAI     bool
	Method     string
	Confidence int
	Cost       float64
	Date       string // YYYY-MM-DD, today when empty
}

// Day is the aggregate of one date
type Day struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	LocalRequests int     `json:"localRequests"`
	AIRequests    int     `json:"aiRequests"`
	LocalCost     float64 `json:"localCost"`
	AICost        float64 `json:"aiCost"`
	TotalCost     float64 `json:"totalCost"`
}

// Summary aggregates a date range
type Summary struct {
	StartDate         string  `json:"startDate"`
	EndDate           string  `json:"endDate"`
	ActiveDays        int     `json:"activeDays"`
	LocalRequests     int     `json:"localRequests"`
	AIRequests        int     `json:"aiRequests"`
	LocalCost         float64 `json:"localCost"`
	AICost            float64 `json:"aiCost"`
	TotalCost         float64 `json:"totalCost"`
	AIUsagePercentage float64 `json:"aiUsagePercentage"`
	CostPerRequest    float64 `json:"costPerRequest"`
}

// Sink accepts one entry per completed analysis
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// NopSink discards entries
type NopSink struct{}

// Record does nothing
func (NopSink) Record(ctx context.Context, entry Entry) error {
	return nil
}

// Today returns the current day key
func Today() string {
	return time.Now().Format(DateLayout)
}
