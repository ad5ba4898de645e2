/*
report_handlers.go - Financial report endpoints

PURPOSE:
  HTTP front for the report engine. Period handling differs per report:
  the statements that summarize a filing period (P&L, VAT summary, cash
  flow) require an explicit startDate/endDate; the running ledgers (VAT
  ledger, general ledger) default to the previous calendar month.

EXPORT:
  The general ledger can be downloaded as an .xlsx workbook. The export
  uses the same fold as the JSON endpoint, so the two can never disagree.
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/warp/ledger-engine/ledger"
)

// ProfitLossReport answers the P&L statement. Dates are required.
// GET /api/ledger/report/profit-loss?startDate&endDate
func (h *Handler) ProfitLossReport(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeRequired(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	pl, err := h.Reports.ProfitLoss(r.Context(), ownerFrom(r.Context()), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toProfitLossDTO(pl))
}

// VATSummaryReport answers input/output VAT totals. Dates are required.
// GET /api/ledger/report/vat-summary?startDate&endDate
func (h *Handler) VATSummaryReport(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeRequired(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	vs, err := h.Reports.VATSummary(r.Context(), ownerFrom(r.Context()), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toVATSummaryDTO(vs))
}

// VATLedgerReport answers the chronological VAT ledger. Defaults to the
// previous calendar month.
// GET /api/ledger/report/vat-ledger?startDate&endDate
func (h *Handler) VATLedgerReport(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeOrPreviousMonth(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	vl, err := h.Reports.VATLedger(r.Context(), ownerFrom(r.Context()), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toVATLedgerDTO(vl))
}

// GeneralLedgerReport answers the running-balance general ledger.
// Defaults to the previous calendar month.
// GET /api/ledger/report/general-ledger?startDate&endDate
func (h *Handler) GeneralLedgerReport(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeOrPreviousMonth(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	gl, err := h.Reports.GeneralLedger(r.Context(), ownerFrom(r.Context()), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toGeneralLedgerDTO(gl))
}

// CashFlowReport answers the inflow/outflow partition. Dates are required.
// GET /api/ledger/report/cash-flow?startDate&endDate
func (h *Handler) CashFlowReport(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeRequired(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	cf, err := h.Reports.CashFlow(r.Context(), ownerFrom(r.Context()), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, toCashFlowDTO(cf))
}

// ExportGeneralLedger streams the general ledger as an .xlsx workbook.
// GET /api/ledger/report/general-ledger/export?startDate&endDate
func (h *Handler) ExportGeneralLedger(w http.ResponseWriter, r *http.Request) {
	rng, err := h.rangeOrPreviousMonth(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	gl, err := h.Reports.GeneralLedger(r.Context(), ownerFrom(r.Context()), rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "General Ledger"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Description", "Category", "Counterparty", "Type", "Amount", "Balance"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, head)
	}

	for i, line := range gl.Lines {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), line.Date.Format(ledger.DateFormat))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.Description)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line.Category)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), line.Counterparty)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(line.Type))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), money(line.Amount))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), money(line.Balance))
	}

	totalsRow := len(gl.Lines) + 3
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow), "Total Income")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", totalsRow), money(gl.TotalIncome))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow+1), "Total Expense")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", totalsRow+1), money(gl.TotalExpense))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow+2), "Closing Balance")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", totalsRow+2), money(gl.ClosingBalance))

	filename := fmt.Sprintf("general-ledger_%s_%s.xlsx",
		rng.Start.Format(ledger.DateFormat), rng.End.Format(ledger.DateFormat))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	if err := f.Write(w); err != nil {
		h.Log.Error().Err(err).Msg("failed to stream xlsx export")
	}
}
