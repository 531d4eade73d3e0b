package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Ticket exports leave fields blank rather than absent; both are stored as
// NULL and read back as the zero value.

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func textOrEmpty(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func nullTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// timeOrNil maps NULL and infinite timestamps to nil and normalizes to UTC.
func timeOrNil(t pgtype.Timestamptz) *time.Time {
	if !t.Valid || t.InfinityModifier != pgtype.Finite {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
