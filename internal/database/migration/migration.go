// Package migration creates the export audit schema on startup.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_export_records",
		SQL: `CREATE TABLE IF NOT EXISTS export_records (
  id           UUID        PRIMARY KEY,
  request_id   TEXT        NOT NULL DEFAULT '',
  page_id      TEXT        NOT NULL DEFAULT '',
  filename     TEXT        NOT NULL DEFAULT '',
  page_size    TEXT        NOT NULL DEFAULT '',
  watermarked  BOOLEAN     NOT NULL DEFAULT FALSE,
  page_numbers BOOLEAN     NOT NULL DEFAULT FALSE,
  status       TEXT        NOT NULL,
  interpreter  TEXT        NOT NULL DEFAULT '',
  size         BIGINT      NOT NULL DEFAULT 0 CHECK (size >= 0),
  pages        INTEGER     NOT NULL DEFAULT 0 CHECK (pages >= 0),
  duration_ms  BIGINT      NOT NULL DEFAULT 0,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_export_records_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_export_records_created_at ON export_records (created_at);`,
	},
	{
		Name: "create_index_export_records_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_export_records_status ON export_records (status);`,
	},
}

// EnsureMigrated checks whether the export_records table exists and runs the
// migration steps if it does not.
func EnsureMigrated(ctx context.Context, db *sql.DB, log logrus.FieldLogger, dbHost string) error {
	start := time.Now()
	log = log.WithFields(logrus.Fields{"component": "database", "db_host": dbHost})

	var exists bool
	query := "SELECT to_regclass('public.export_records') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.WithError(err).WithField("duration_ms", time.Since(start).Milliseconds()).
			Error("db_migration_failed")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			Info("db_migration_skip: schema already exists")
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"migration_step":   step.Name,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}).Error("db_migration_failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.WithFields(logrus.Fields{
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Info("db_migration_step")
	}

	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("db_migration_success")
	return nil
}
