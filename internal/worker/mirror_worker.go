package worker

import (
	"context"
	"fmt"

	"finanzas/internal/events"
	"finanzas/internal/log"
	"finanzas/internal/sheets"
)

// MirrorWorker copies recorded transactions into a spreadsheet.
type MirrorWorker struct {
	sheet  sheets.RowAppender
	logger *log.Logger
}

func NewMirrorWorker(sheet sheets.RowAppender, logger *log.Logger) *MirrorWorker {
	return &MirrorWorker{
		sheet:  sheet,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Handle appends msg as a row. An error makes the transport redeliver it.
func (w *MirrorWorker) Handle(ctx context.Context, msg *events.TransactionRecorded) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldEventID, msg.ID,
		log.FieldKind, msg.Kind.String())

	ref, err := w.sheet.AppendRow(ctx, RowFromEvent(msg))
	if err != nil {
		return fmt.Errorf("append row for event %s: %w", msg.ID, err)
	}

	w.logger.InfoContext(ctx, "Transaction mirrored",
		log.FieldOperation, log.OpMirror,
		log.FieldEventID, msg.ID,
		"ref", ref)
	return nil
}

// RowFromEvent lays an event out as a spreadsheet row.
func RowFromEvent(msg *events.TransactionRecorded) sheets.Row {
	return sheets.Row{
		EventID:     msg.ID,
		Date:        msg.RecordedAt,
		Kind:        msg.Kind.Title(),
		Amount:      msg.Amount,
		Description: msg.Description,
		Balance:     msg.Balance,
	}
}
