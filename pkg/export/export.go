// Package export renders reports as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentType of the produced files.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	dateFormat  = "02/01/2006"
	moneyFormat = `#,##0.00`
)

type sheet struct {
	f     *excelize.File
	name  string
	money int
	bold  int
	row   int
	err   error
}

func newSheet(name string) (*sheet, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(moneyFormat)})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	return &sheet{f: f, name: name, money: money, bold: bold}, nil
}

func strPtr(s string) *string { return &s }

func money(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}

// line writes values on the next row. Decimal values get the money style.
// After the first failure every call is a no-op and write reports it.
func (s *sheet) line(bold bool, values ...any) {
	if s.err != nil {
		return
	}
	s.row++
	for i, v := range values {
		if s.err = s.cell(i+1, bold, v); s.err != nil {
			return
		}
	}
}

func (s *sheet) cell(col int, bold bool, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, s.row)
	if err != nil {
		return err
	}
	style := 0
	if d, ok := v.(decimal.Decimal); ok {
		v = money(d)
		style = s.money
	}
	if err := s.f.SetCellValue(s.name, cell, v); err != nil {
		return err
	}
	if bold {
		style = s.bold
	}
	if style == 0 {
		return nil
	}
	return s.f.SetCellStyle(s.name, cell, cell, style)
}

func (s *sheet) blank() { s.row++ }

func (s *sheet) write(w io.Writer) error {
	defer s.f.Close()
	if s.err != nil {
		return s.err
	}
	if err := s.f.SetColWidth(s.name, "A", "A", 14); err != nil {
		return err
	}
	if err := s.f.SetColWidth(s.name, "B", "F", 18); err != nil {
		return err
	}
	if err := s.f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// CashFlow writes the cash-flow report for the period described by title.
func CashFlow(w io.Writer, title string, cf ledger.CashFlow) error {
	s, err := newSheet("Fluxo de Caixa")
	if err != nil {
		return err
	}
	s.line(true, title)
	s.blank()
	s.line(true, "Data", "Compras", "Pagamentos", "Saldo do dia", "Acumulado")
	for _, r := range cf.Rows {
		s.line(false, r.Date.Format(dateFormat), r.Purchases, r.Payments, r.DayBalance, r.Accumulated)
	}
	s.line(true, "Total", cf.TotalPurchases, cf.TotalPayments, cf.Balance)
	s.blank()
	s.line(true, "Forma de pagamento", "Valor")
	methods := make([]string, 0, len(cf.ByMethod))
	for m := range cf.ByMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		s.line(false, m, cf.ByMethod[m])
	}
	return s.write(w)
}

// Statement writes a supplier statement. title usually carries the
// supplier name and the period.
func Statement(w io.Writer, title string, st ledger.Statement) error {
	s, err := newSheet("Extrato")
	if err != nil {
		return err
	}
	s.line(true, title)
	s.blank()
	s.line(true, "Data", "Tipo", "Descrição", "Débito", "Crédito", "Saldo")
	s.line(false, "", "", "Saldo anterior", "", "", st.Opening)
	for _, e := range st.Entries {
		s.line(false, e.Date.Format(dateFormat), string(e.Kind), e.Description, e.Debit, e.Credit, e.Balance)
	}
	s.line(true, "", "", "Totais", st.TotalDebits, st.TotalCredits, st.Closing)
	return s.write(w)
}
