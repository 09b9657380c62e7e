package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roam-social/roam-feed/internal/core/storage"
)

// MarkAttended records that userID joined providerEventID. Returns
// storage.ErrDuplicate when the pair is already recorded, so callers can
// answer joins idempotently.
//
// The attendance table keys on (user_id, event_id) and accepts both provider
// and community event ids; the feed keeps the stable source id through
// normalization so no title matching is needed here.
func (a *Adapter) MarkAttended(ctx context.Context, userID, providerEventID string) error {
	var id string
	err := a.stmtMarkAttended.QueryRowContext(ctx, userID, providerEventID).Scan(&id)

	if err == sql.ErrNoRows {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to mark attendance: %w", err)
	}

	slog.Debug("[Postgres] Marked attendance",
		"user_id", userID,
		"event_id", providerEventID)
	return nil
}
