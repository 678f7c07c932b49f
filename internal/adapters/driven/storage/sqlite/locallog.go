package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
)

// localLog implements driven.LocalLog for one dataset.
type localLog struct {
	store *Store
	log   string
}

var _ driven.LocalLog = (*localLog)(nil)

// AppendUnsaved queues an update. Queuing an ID twice keeps the first entry.
func (l *localLog) AppendUnsaved(ctx context.Context, update domain.Update) error {
	return l.insert(ctx, "unsaved_updates", update)
}

// RemoveUnsaved drops a queued update.
func (l *localLog) RemoveUnsaved(ctx context.Context, id string) error {
	_, err := l.store.db.ExecContext(ctx,
		"DELETE FROM unsaved_updates WHERE log = ? AND id = ?", l.log, id)
	if err != nil {
		return fmt.Errorf("removing unsaved update %s: %w", id, err)
	}
	return nil
}

// ListUnsaved returns queued updates oldest first.
func (l *localLog) ListUnsaved(ctx context.Context) ([]domain.Update, error) {
	return l.list(ctx, "unsaved_updates")
}

// AppendKnown records an applied update. Recording an ID twice keeps the first entry.
func (l *localLog) AppendKnown(ctx context.Context, update domain.Update) error {
	return l.insert(ctx, "known_updates", update)
}

// ListKnown returns applied updates in application order.
func (l *localLog) ListKnown(ctx context.Context) ([]domain.Update, error) {
	return l.list(ctx, "known_updates")
}

// KnownIDs returns the IDs of all applied updates.
func (l *localLog) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := l.store.db.QueryContext(ctx,
		"SELECT id FROM known_updates WHERE log = ?", l.log)
	if err != nil {
		return nil, fmt.Errorf("querying known ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning known id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating known ids: %w", err)
	}
	return ids, nil
}

// insert adds update to table. Table names are fixed by the callers above.
func (l *localLog) insert(ctx context.Context, table string, update domain.Update) error {
	body, err := domain.EncodeUpdate(update)
	if err != nil {
		return err
	}
	_, err = l.store.db.ExecContext(ctx,
		"INSERT INTO "+table+" (log, id, body) VALUES (?, ?, ?) ON CONFLICT (log, id) DO NOTHING",
		l.log, update.ID, string(body))
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	return nil
}

func (l *localLog) list(ctx context.Context, table string) ([]domain.Update, error) {
	rows, err := l.store.db.QueryContext(ctx,
		"SELECT id, body FROM "+table+" WHERE log = ? ORDER BY seq", l.log)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var updates []domain.Update //nolint:prealloc // size unknown from query
	for rows.Next() {
		update, err := scanUpdate(rows, table)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return updates, nil
}

func scanUpdate(rows *sql.Rows, table string) (domain.Update, error) {
	var id, body string
	if err := rows.Scan(&id, &body); err != nil {
		return domain.Update{}, fmt.Errorf("scanning %s: %w", table, err)
	}
	return domain.DecodeUpdate(table+"/"+id, []byte(body))
}
