// Package sheets mirrors recorded transactions into a spreadsheet.
package sheets

import (
	"context"
	"time"
)

// Row is one mirrored transaction.
type Row struct {
	EventID     string
	Date        time.Time
	Kind        string
	Amount      string
	Description string
	Balance     string
}

// RowAppender adds a row at the end of the transactions sheet and returns a
// reference to where it landed.
type RowAppender interface {
	AppendRow(ctx context.Context, r Row) (ref string, err error)
}
