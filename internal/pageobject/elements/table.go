// internal/pageobject/elements/table.go
//
// Package elements holds composite page-object types built from the
// descriptor engine: tables, toggles and custom dropdowns.
package elements

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/xkilldash9x/testlab/internal/driver"
	"github.com/xkilldash9x/testlab/internal/pageobject"
	"github.com/xkilldash9x/testlab/internal/report"
)

var (
	tableHeader = pageobject.NewElement("Table header", driver.TagName("thead"), NewTableHeader)
	tableRows   = pageobject.NewElements("Table rows", driver.CSS("tbody tr"), NewTableRow)

	headerCells = pageobject.NewElements("Table header cells", driver.CSS("tr th"), pageobject.AsElement)
	rowCells    = pageobject.NewElements("Table cells", driver.CSS("td"), pageobject.AsElement)
)

// TableHeader is a table's thead.
type TableHeader struct {
	*pageobject.Element
}

func NewTableHeader(el *pageobject.Element, _ ...interface{}) *TableHeader {
	return &TableHeader{Element: el}
}

// Cells returns the header cells.
func (h *TableHeader) Cells(ctx context.Context) pageobject.Collection[*pageobject.Element] {
	return headerCells.Resolve(ctx, h)
}

// Values returns the header cell texts.
func (h *TableHeader) Values(ctx context.Context) ([]string, error) {
	if !h.Present() {
		return nil, h.Err()
	}
	return h.Cells(ctx).Texts(ctx)
}

// HasSize checks the number of columns.
func (h *TableHeader) HasSize(ctx context.Context, n int) error {
	return h.Cells(ctx).HasSize(ctx, n)
}

// TableRow is one tbody row.
type TableRow struct {
	*pageobject.Element
}

func NewTableRow(el *pageobject.Element, _ ...interface{}) *TableRow {
	return &TableRow{Element: el}
}

func (r *TableRow) Cells(ctx context.Context) pageobject.Collection[*pageobject.Element] {
	return rowCells.Resolve(ctx, r)
}

// Values returns the row's cell texts.
func (r *TableRow) Values(ctx context.Context) ([]string, error) {
	if !r.Present() {
		return nil, r.Err()
	}
	return r.Cells(ctx).Texts(ctx)
}

// HasSize checks the number of cells.
func (r *TableRow) HasSize(ctx context.Context, n int) error {
	return r.Cells(ctx).HasSize(ctx, n)
}

// Table is a header plus body rows.
type Table struct {
	*pageobject.Element
}

func NewTable(el *pageobject.Element, _ ...interface{}) *Table {
	return &Table{Element: el}
}

func (t *Table) Header(ctx context.Context) *TableHeader {
	return tableHeader.Resolve(ctx, t)
}

func (t *Table) Rows(ctx context.Context) pageobject.Collection[*TableRow] {
	return tableRows.Resolve(ctx, t)
}

// Values returns every row's cell texts, top to bottom.
func (t *Table) Values(ctx context.Context) ([][]string, error) {
	if !t.Present() {
		return nil, t.Err()
	}
	rows := t.Rows(ctx)
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([][]string, 0, rows.Len())
	for _, row := range rows.Items() {
		values, err := row.Values(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, values)
	}
	return out, nil
}

// Columns maps each header text to that column's cell texts, pairing
// header position i with cell i of every row. Rows shorter than the header
// contribute nothing to the missing columns.
func (t *Table) Columns(ctx context.Context) (map[string][]string, error) {
	header, err := t.Header(ctx).Values(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := t.Values(ctx)
	if err != nil {
		return nil, err
	}
	columns := make(map[string][]string, len(header))
	for i, name := range header {
		column := make([]string, 0, len(rows))
		for _, row := range rows {
			if i < len(row) {
				column = append(column, row[i])
			}
		}
		columns[name] = column
	}
	return columns, nil
}

// Column returns one column's cell texts.
func (t *Table) Column(ctx context.Context, name string) ([]string, error) {
	columns, err := t.Columns(ctx)
	if err != nil {
		return nil, err
	}
	column, ok := columns[name]
	if !ok {
		return nil, fmt.Errorf("table %q has no column %q", t.Name(), name)
	}
	return column, nil
}

// Size returns the number of body rows.
func (t *Table) Size(ctx context.Context) (int, error) {
	if !t.Present() {
		return 0, t.Err()
	}
	rows := t.Rows(ctx)
	return rows.Len(), rows.Err()
}

// HasSize checks the number of body rows.
func (t *Table) HasSize(ctx context.Context, n int) (err error) {
	end := t.Page().Step(ctx, fmt.Sprintf("%q has %d rows", t.Name(), n))
	defer func() { end(err) }()

	size, err := t.Size(ctx)
	if err != nil {
		return err
	}
	if size == n {
		return nil
	}
	return t.Page().Fail(ctx, &report.AssertionError{
		Subject:  t.Name(),
		Message:  fmt.Sprintf("row count does not match: %d != %d", size, n),
		Expected: n,
		Actual:   size,
	})
}

// IsNotEmpty checks there are more than rowsGreaterThan rows.
func (t *Table) IsNotEmpty(ctx context.Context, rowsGreaterThan int) (err error) {
	end := t.Page().Step(ctx, fmt.Sprintf("%q has more than %d rows", t.Name(), rowsGreaterThan))
	defer func() { end(err) }()

	size, err := t.Size(ctx)
	if err != nil {
		return err
	}
	if size > rowsGreaterThan {
		return nil
	}
	return t.Page().Fail(ctx, &report.AssertionError{
		Subject:  t.Name(),
		Message:  fmt.Sprintf("table has %d rows, want more than %d", size, rowsGreaterThan),
		Expected: fmt.Sprintf("> %d", rowsGreaterThan),
		Actual:   size,
	})
}

// GetRowByValue scans column top to bottom and returns the first row whose
// cell equals value. ok is false when no row matches.
func (t *Table) GetRowByValue(ctx context.Context, column, value string) (row *TableRow, ok bool, err error) {
	end := t.Page().Step(ctx, fmt.Sprintf("Find row of %q where %s = %q", t.Name(), column, value))
	defer func() { end(err) }()

	cells, err := t.Column(ctx, column)
	if err != nil {
		return nil, false, err
	}
	for i, cell := range cells {
		if cell != value {
			continue
		}
		rows := t.Rows(ctx)
		if i >= rows.Len() {
			// The table changed between the two reads.
			return nil, false, fmt.Errorf("table %q: row %d disappeared", t.Name(), i)
		}
		return rows.At(i), true, nil
	}
	return nil, false, nil
}

// TableValues is the expected content for Table.HasValues. A nil field is
// not checked; an empty non-nil one expects nothing there.
type TableValues struct {
	Rows [][]string
	// Columns lists the header texts.
	Columns []string
}

// HasValues compares the header and/or rows. inAnyOrder sorts the header
// texts and the rows (not the cells within a row) on both sides.
func (t *Table) HasValues(ctx context.Context, expected TableValues, inAnyOrder bool) (err error) {
	end := t.Page().Step(ctx, fmt.Sprintf("Compare values of %q (any order: %v)", t.Name(), inAnyOrder))
	defer func() { end(err) }()

	if expected.Columns == nil && expected.Rows == nil {
		return fmt.Errorf("%w: table comparison needs rows or columns", pageobject.ErrInvalidUsage)
	}
	if expected.Columns != nil {
		header, err := t.Header(ctx).Values(ctx)
		if err != nil {
			return err
		}
		want := append([]string(nil), expected.Columns...)
		if inAnyOrder {
			sort.Strings(header)
			sort.Strings(want)
		}
		if err := t.compare(ctx, "columns do not match", want, header); err != nil {
			return err
		}
	}
	if expected.Rows != nil {
		rows, err := t.Values(ctx)
		if err != nil {
			return err
		}
		want := append([][]string(nil), expected.Rows...)
		if inAnyOrder {
			sortRows(rows)
			sortRows(want)
		}
		if err := t.compare(ctx, "rows do not match", want, rows); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) compare(ctx context.Context, msg string, want, got interface{}) error {
	if cmp.Equal(want, got, cmpopts.EquateEmpty()) {
		return nil
	}
	return t.Page().Fail(ctx, &report.AssertionError{
		Subject:  t.Name(),
		Message:  msg,
		Expected: want,
		Actual:   got,
		Diff:     cmp.Diff(want, got, cmpopts.EquateEmpty()),
	})
}

// sortRows orders rows lexicographically, cell by cell.
func sortRows(rows [][]string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if c := strings.Compare(a[k], b[k]); c != 0 {
				return c < 0
			}
		}
		return len(a) < len(b)
	})
}
