// Package export writes logged transactions as CSV or XLSX in the
// one-row-per-transaction layout tutoring log tools expect.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/motivsim/internal/store"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath infers the format from a file extension. Anything that is
// not .xlsx is CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Sheet names in the XLSX workbook.
const (
	SheetTransactions = "transactions"
	SheetStudents     = "students"
)

// Columns is the header row of the transaction export.
var Columns = []string{
	"Transaction Id", "Kind", "Time", "Anon Student Id", "Tutor Id", "Session Id",
	"Curriculum", "Unit", "Section", "Problem Name", "Step Name",
	"Student Response Type", "Outcome", "Duration (sec)", "KC (Default)",
	"P(L) Before", "P(L) After", "Hints Used", "Hints Available", "Attempt At Step",
}

// StudentColumns is the header row of the per-student sheet.
var StudentColumns = []string{
	"Anon Student Id", "Transactions", "Graded Inputs", "Correct", "Accuracy", "Hints", "Idle", "Time (sec)",
}

// values returns the typed cells of one transaction row.
func values(tx store.TransactionData) []any {
	var act, kc string
	if tx.Action.Valid() {
		act = tx.Action.String()
	}
	if tx.KC != nil {
		kc = tx.KC.ID
	}
	return []any{
		tx.ID, string(tx.Kind), tx.Time.UTC(), tx.StudentID, tx.TutorID, tx.SessionID,
		tx.CurriculumID, tx.UnitID, tx.SectionID, tx.ProblemID, tx.StepID,
		act, tx.Outcome, tx.Duration.Seconds(), kc,
		tx.PLt, tx.PLt1, tx.HintsUsed, tx.HintsAvail, tx.Attempt,
	}
}

func studentValues(s store.StudentStats) []any {
	return []any{
		s.StudentID, s.Transactions, s.Attempts, s.Correct, s.Accuracy(), s.Hints, s.Idle, s.Time.Seconds(),
	}
}

// WriteCSV writes a header and one row per transaction.
func WriteCSV(w io.Writer, txs []store.TransactionData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(Columns))
	for _, tx := range txs {
		for i, v := range values(tx) {
			row[i] = text(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a transactions sheet and, when stats is
// non-empty, a per-student summary sheet.
func WriteXLSX(w io.Writer, txs []store.TransactionData, stats []store.StudentStats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	rows := make([][]any, len(txs))
	for i, tx := range txs {
		rows[i] = values(tx)
	}
	if err := writeSheet(f, SheetTransactions, header, Columns, rows); err != nil {
		return err
	}

	if len(stats) > 0 {
		if _, err := f.NewSheet(SheetStudents); err != nil {
			return fmt.Errorf("add sheet: %w", err)
		}
		rows := make([][]any, len(stats))
		for i, s := range stats {
			rows[i] = studentValues(s)
		}
		if err := writeSheet(f, SheetStudents, header, StudentColumns, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// writeSheet streams a bold header and the rows into sheet.
func writeSheet(f *excelize.File, sheet string, headerStyle int, columns []string, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream %s: %w", sheet, err)
	}
	head := make([]any, len(columns))
	for i, c := range columns {
		head[i] = c
	}
	if err := sw.SetRow("A1", head, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", sheet, err)
	}
	return nil
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
