package database

import (
	"context"
	"database/sql"
	"log"
)

// legacyDefaultDuration is the duration the previous system assumed for
// reservations that were stored without an end time.  It is used only
// by the one-time backfill below; the engine itself requires end_time
// on every row.
const legacyDefaultDuration = "2:00:00"

// BackfillEndTimes fills legacy reservations that have a NULL end_time
// with start_time + 2 hours, then tightens the column to NOT NULL.  It
// is idempotent: once no NULL rows remain the UPDATE is a no-op and the
// MODIFY re-applies the same definition.  Run at startup before the
// server accepts traffic.
func BackfillEndTimes(ctx context.Context, db *sql.DB) error {
	res, err := db.ExecContext(ctx,
		`UPDATE reservations
		 SET end_time = ADDTIME(start_time, ?)
		 WHERE end_time IS NULL`, legacyDefaultDuration)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("backfilled end_time on %d legacy reservations", n)
	}
	_, err = db.ExecContext(ctx,
		`ALTER TABLE reservations MODIFY end_time TIME NOT NULL`)
	return err
}
