package database

import (
	"context"
	"fmt"
	"strings"
)

// SettingsStore is the settings.Store view of one scope in the settings table.
type SettingsStore struct {
	d     *Database
	scope string
}

func (d *Database) Settings(scope string) *SettingsStore {
	return &SettingsStore{d: d, scope: scope}
}

func (s *SettingsStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	items := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return items, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	query := "select name, value from settings where scope = ? and name in (" + placeholders + ")"

	args := make([]any, 0, len(keys)+1)
	args = append(args, s.scope)
	for _, key := range keys {
		args = append(args, key)
	}

	rows, err := s.d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			s.d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"scope", s.scope,
				"operation", "GetSettings")
		}
	}()

	for rows.Next() {
		var name, value string
		if err = rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		items[name] = value
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return items, nil
}

func (s *SettingsStore) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := s.d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	query := `insert into settings (scope, name, value)
	values (?, ?, ?)
	on conflict (scope, name) do update
	set value = excluded.value, updated_at = current_timestamp`

	for name, value := range values {
		if _, err = tx.ExecContext(ctx, query, s.scope, name, value); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.d.log.ErrorContext(ctx, "Failed to rollback transaction",
					"error", rollbackErr,
					"scope", s.scope,
					"operation", "SetSettings")
			}

			return fmt.Errorf("upsert setting %s: %w", name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
