package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/events"
	"finanzas/internal/log"
	"finanzas/internal/sheets"
	"finanzas/internal/sheets/memory"
)

type failingSheet struct{}

func (failingSheet) AppendRow(context.Context, sheets.Row) (string, error) {
	return "", errors.New("quota exceeded")
}

func testEvent() *events.TransactionRecorded {
	return &events.TransactionRecorded{
		ID:          "evt-1",
		Kind:        core.Expense,
		Amount:      "50",
		Description: "café",
		RecordedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Balance:     "-50",
	}
}

func TestMirrorWorker_Handle(t *testing.T) {
	sheet := memory.New()
	w := NewMirrorWorker(sheet, log.Discard())

	if err := w.Handle(context.Background(), testEvent()); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	// redelivery is absorbed by the sheet
	if err := w.Handle(context.Background(), testEvent()); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	rows := sheet.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Kind != "Gasto" || rows[0].Balance != "-50" || rows[0].EventID != "evt-1" {
		t.Fatalf("row = %+v", rows[0])
	}
}

func TestMirrorWorker_HandleError(t *testing.T) {
	w := NewMirrorWorker(failingSheet{}, log.Discard())
	if err := w.Handle(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error")
	}
}
