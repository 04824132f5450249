package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sethvargo/go-retry"
)

// IsBusy reports whether err is SQLite refusing access because another
// connection holds a lock.
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// MigrateWithRetry runs Migrate, retrying up to attempts times while the database
// is busy. Any other failure is returned immediately.
func (s *SQLiteStorage) MigrateWithRetry(ctx context.Context, attempts uint64) error {
	b := retry.WithMaxRetries(attempts, retry.NewFibonacci(250*time.Millisecond))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.Migrate(ctx); err != nil {
			if IsBusy(err) {
				slog.Warn("Database busy, retrying migration", "path", s.dbPath, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
