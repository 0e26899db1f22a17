package db

import (
	"context"
	"fmt"
	"log"
)

// Cleanup deletes every snapshot except the newest keep ones
func (db *DB) Cleanup(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}

	db.LockWrite()
	defer db.UnlockWrite()

	keepClause := `
		SELECT snapshot_id FROM ado_snapshots
		ORDER BY loaded_at_utc DESC
		LIMIT ?
	`

	queries := []struct {
		name  string
		query string
	}{
		{
			name:  "cities",
			query: "DELETE FROM ado_cities WHERE snapshot_id NOT IN (" + keepClause + ")",
		},
		{
			name:  "snapshots",
			query: "DELETE FROM ado_snapshots WHERE snapshot_id NOT IN (" + keepClause + ")",
		},
	}

	totalDeleted := 0
	for _, q := range queries {
		result, err := db.conn.ExecContext(ctx, q.query, keep)
		if err != nil {
			return fmt.Errorf("failed to cleanup %s: %w", q.name, err)
		}
		rows, _ := result.RowsAffected()
		totalDeleted += int(rows)
	}

	if totalDeleted > 0 {
		log.Printf("Cleanup: deleted %d records, kept newest %d snapshots", totalDeleted, keep)
	}

	return nil
}
