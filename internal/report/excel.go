// Package report renders booking data as Excel workbooks for venue
// administrators.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bookit/internal/models"
)

// Writer builds a workbook sheet by sheet, row by row.
type Writer struct {
	file  *excelize.File
	sheet string
	row   int
}

func NewWriter() *Writer {
	return &Writer{file: excelize.NewFile()}
}

// AddSheet starts a new sheet. The first call renames the default
// sheet; Excel caps sheet names at 31 characters.
func (w *Writer) AddSheet(name string) error {
	if len(name) > 31 {
		name = name[:31]
	}
	if w.sheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	w.sheet = name
	w.row = 1
	return nil
}

// WriteHeader writes a bold header row on the current sheet.
func (w *Writer) WriteHeader(columns []string) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, col); err != nil {
			return err
		}
	}
	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.row)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.row)
		_ = w.file.SetCellStyle(w.sheet, startCell, endCell, style)
	}
	w.row++
	return nil
}

// WriteRow writes one data row on the current sheet.
func (w *Writer) WriteRow(row []interface{}) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, val); err != nil {
			return err
		}
	}
	w.row++
	return nil
}

// Save writes the workbook to wr.
func (w *Writer) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases the workbook resources.
func (w *Writer) Close() error {
	return w.file.Close()
}

var bookingColumns = []string{
	"Ref", "Venue", "Event", "Organizer ID", "Start", "End",
	"Attendees", "Status", "Attendance Confirmed", "Cancellation Reason",
}

// Bookings renders the given bookings to wr as a single-sheet workbook.
// venueName resolves venue IDs to display names; unknown venues fall
// back to the numeric ID.
func Bookings(wr io.Writer, bookings []models.Booking, venueName func(int64) string) error {
	w := NewWriter()
	defer w.Close()

	if err := w.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := w.WriteHeader(bookingColumns); err != nil {
		return err
	}

	for i := range bookings {
		b := &bookings[i]
		name := venueName(b.VenueID)
		if name == "" {
			name = fmt.Sprintf("venue %d", b.VenueID)
		}
		status := b.Status
		if b.AutoCancelled {
			status = "auto-cancelled"
		}
		row := []interface{}{
			b.Ref, name, b.EventName, b.UserID,
			b.StartAt.Format("2006-01-02 15:04"),
			b.EndAt.Format("2006-01-02 15:04"),
			b.ExpectedAttendees, status, b.Confirmed, b.CancellationReason,
		}
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return w.Save(wr)
}
