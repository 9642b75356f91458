// Package sink persists scan tables: a local CSV file or a Google Sheets
// spreadsheet, with a CSV fallback whenever the spreadsheet is unreachable.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seenimoa/equitylens/pkg/models"
)

// EmergencyBackupFile is written when an upload fails part way.
const EmergencyBackupFile = "emergency_backup.csv"

// TimestampedName returns the local fallback file name for a report
// generated at t, e.g. sp500_analysis_20250114_1630.csv.
func TimestampedName(t time.Time) string {
	return fmt.Sprintf("sp500_analysis_%s.csv", t.Format("20060102_1504"))
}

// WriteCSV writes the header and rows of table to path, creating parent
// directories as needed.
func WriteCSV(path string, table models.Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(table.Records()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
