package sink

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/equitylens/pkg/models"
)

// Uploader is the remote spreadsheet target. *Sheets implements it.
type Uploader interface {
	Upload(ctx context.Context, name string, table models.Table) (string, error)
}

// Publisher sends scan tables to a spreadsheet when one is configured and
// to local CSV files otherwise.
type Publisher struct {
	Remote    Uploader // nil means no credentials
	SheetName string
	Dir       string
	Log       zerolog.Logger

	now func() time.Time
}

// Location describes where a table ended up.
type Location struct {
	Target   string `json:"target"` // "sheets", "csv" or "backup"
	Path     string `json:"path"`
	Fallback bool   `json:"fallback"`
}

// Publish writes table. A failed upload is not returned as an error: the
// table is saved to the emergency backup file instead and the failure is
// logged. Only a failure to write any file at all is an error.
func (p *Publisher) Publish(ctx context.Context, table models.Table) (Location, error) {
	now := time.Now
	if p.now != nil {
		now = p.now
	}

	if p.Remote == nil {
		path := filepath.Join(p.Dir, TimestampedName(now()))
		p.Log.Info().Str("path", path).Msg("no spreadsheet credentials, writing local CSV")
		if err := WriteCSV(path, table); err != nil {
			return Location{}, err
		}
		return Location{Target: "csv", Path: path}, nil
	}

	link, err := p.Remote.Upload(ctx, p.SheetName, table)
	if err == nil {
		p.Log.Info().Str("sheet", p.SheetName).Str("url", link).Int("rows", len(table.Rows)).Msg("uploaded to Google Sheets")
		return Location{Target: "sheets", Path: link}, nil
	}

	p.Log.Error().Err(err).Str("sheet", p.SheetName).Msg("upload failed, writing emergency backup")
	path := filepath.Join(p.Dir, EmergencyBackupFile)
	if werr := WriteCSV(path, table); werr != nil {
		return Location{}, werr
	}
	return Location{Target: "backup", Path: path, Fallback: true}, nil
}
