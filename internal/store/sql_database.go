package store

import (
	"database/sql"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
)

// DB wraps a *sql.DB together with the driver-specific error classifier and
// the logger it was opened with.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// Classify reports whether err returned by this database is worth retrying.
func (db *DB) Classify(err error) ErrorClassification {
	if db.errorClassificator == nil {
		return NonRetryable
	}
	return db.errorClassificator.Classify(err)
}
