// Package models defines data structures and domain types.
package models

import "time"

// HistorySnapshot is one point-in-time quota reading for an (account, model) pair.
type HistorySnapshot struct {
	AccountID  Identity `json:"accountId"`
	ModelName  string   `json:"modelName"`
	Timestamp  int64    `json:"timestamp"`
	Percentage int      `json:"percentage"`
}

// Time returns the snapshot timestamp.
func (h *HistorySnapshot) Time() time.Time {
	return time.UnixMilli(h.Timestamp)
}
