// Package export renders the finance read model as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"sort"

	"clientbook-backend/internal/application/overview"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetClients = "Clients"
	SheetSummary = "Summary"
	SheetTeam    = "Team"
)

var clientHeader = []interface{}{
	"Client ID", "Name", "Status", "Service Cost", "Domain Charged", "Actual Domain Cost",
	"Extra Features", "Extra Production", "Total Value", "Total Paid", "Pending", "Profit",
	"Domain Margin", "Progress %", "Team Spent", "Issues",
}

// WriteXLSX writes the overview as a three-sheet workbook.
func WriteXLSX(w io.Writer, ov *overview.Overview) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetClients); err != nil {
		return err
	}
	if err := writeClients(f, ov); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	if err := writeSummary(f, ov); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetTeam); err != nil {
		return err
	}
	if err := writeTeam(f, ov); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

func num(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeClients(f *excelize.File, ov *overview.Overview) error {
	if err := setRow(f, SheetClients, 1, clientHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(clientHeader))
	if err := f.SetCellStyle(SheetClients, "A1", last+"1", bold); err != nil {
		return err
	}
	for i, v := range ov.Clients {
		c, s := v.Client, v.Finance
		row := []interface{}{
			c.ID, c.Name, string(c.Status),
			num(c.ServiceCost), num(c.DomainCharged), num(c.ActualDomainCost),
			num(c.ExtraFeatures), num(c.ExtraProductionCharges),
			num(s.TotalValue), num(s.TotalPaid), num(s.Pending), num(s.Profit),
			num(s.DomainMargin), s.ProgressPercent, num(s.TeamSpent), len(v.Validation.Issues),
		}
		if err := setRow(f, SheetClients, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, ov *overview.Overview) error {
	g := ov.Global
	rows := [][]interface{}{
		{"Generated", ov.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Clients", g.ClientCount},
		{"Total Value", num(g.TotalValue)},
		{"Total Revenue", num(g.TotalRevenue)},
		{"Total Pending", num(g.TotalPending)},
		{"Total Profit", num(g.TotalProfit)},
		{"Cash Collected", num(g.CashCollected)},
	}
	modes := make([]string, 0, len(g.ByMode))
	for m := range g.ByMode {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	for _, m := range modes {
		rows = append(rows, []interface{}{fmt.Sprintf("Collected (%s)", m), num(g.ByMode[m])})
	}
	rows = append(rows, []interface{}{"Consistency Errors", ov.ErrorCount}, []interface{}{"Warnings", ov.WarnCount})
	for i, r := range rows {
		if err := setRow(f, SheetSummary, i+1, r); err != nil {
			return err
		}
	}
	return nil
}

func writeTeam(f *excelize.File, ov *overview.Overview) error {
	if err := setRow(f, SheetTeam, 1, []interface{}{"Member", "Given", "Spent", "Investment", "Wallet"}); err != nil {
		return err
	}
	row := 2
	for _, m := range ov.Members {
		if err := setRow(f, SheetTeam, row, []interface{}{m.MemberID, num(m.Given), num(m.Spent), num(m.Investment), num(m.Wallet)}); err != nil {
			return err
		}
		row++
	}
	t := ov.Team
	return setRow(f, SheetTeam, row, []interface{}{"Total", num(t.Given), num(t.Spent), num(t.Investment), num(t.Wallet)})
}
