package store

import (
	"encoding/json"
	"time"
)

// SyncRun is one persisted batch sync
type SyncRun struct {
	RunID      string          `json:"run_id" db:"run_id"`
	Trigger    string          `json:"trigger" db:"trigger"`
	Total      int             `json:"total" db:"total"`
	Successful int             `json:"successful" db:"successful"`
	Failed     int             `json:"failed" db:"failed"`
	Results    json.RawMessage `json:"results" db:"results"`
	StartedAt  time.Time       `json:"started_at" db:"started_at"`
	FinishedAt time.Time       `json:"finished_at" db:"finished_at"`
}

// Run triggers
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)
