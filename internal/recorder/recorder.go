// Package recorder keeps a history of scan runs so cross signals can be
// compared across days.
package recorder

import (
	"time"

	"github.com/seenimoa/equitylens/pkg/models"
)

// Run is one recorded scan.
type Run struct {
	ID       string           `json:"id"`
	Started  time.Time        `json:"started"`
	Finished time.Time        `json:"finished"`
	Rows     []models.ScanRow `json:"rows"`
	Failed   int              `json:"failed"`
}

// Recorder persists scan runs.
type Recorder interface {
	RecordScan(run *Run) error
	LastRuns(limit int) ([]Run, error)
	Close() error
}

// NoopRecorder is used when the history database is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordScan(*Run) error       { return nil }
func (NoopRecorder) LastRuns(int) ([]Run, error) { return nil, nil }
func (NoopRecorder) Close() error                { return nil }
