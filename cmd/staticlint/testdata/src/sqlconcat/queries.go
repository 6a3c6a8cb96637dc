package sqlconcat

import (
	"context"
	"database/sql"
	"fmt"
)

const byID = `SELECT url FROM url WHERE url_id = $1`

func queries(ctx context.Context, db *sql.DB, tx *sql.Tx, table, id string) {
	_, _ = db.QueryContext(ctx, byID, id)
	_ = db.QueryRow(`SELECT COUNT(*) FROM ` + `users`)
	_, _ = tx.ExecContext(ctx, `DELETE FROM url WHERE url_id = $1`, id)

	_, _ = db.Query("SELECT * FROM " + table) // want `query passed to Query is not a constant expression: string concatenation`

	_ = db.QueryRowContext(ctx, fmt.Sprintf("SELECT url FROM url WHERE id = %s", id)) // want `query passed to QueryRowContext is not a constant expression: fmt.Sprintf call`

	_, _ = tx.Exec(table) // want `query passed to Exec is not a constant expression: non-constant value`
}

type fake struct{}

func (fake) Query(q string) {}

func notSQL(f fake, q string) {
	f.Query(q)
}
