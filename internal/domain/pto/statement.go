package pto

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WriteStatement renders v as a one page PDF leave statement.
func WriteStatement(w io.Writer, v View, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "PTO Statement")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s", v.EmployeeID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Generated: %s", generatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(10)

	if v.ErrorMessage != "" {
		pdf.SetTextColor(200, 0, 0)
		pdf.Cell(0, 7, v.ErrorMessage)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(10)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Totals")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Allocated: %s h", v.TotalAllocatedHours))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Used: %s h", v.TotalHoursOff))
	pdf.Ln(6)
	if v.TotalBalanceClass == BalanceError {
		pdf.SetTextColor(200, 0, 0)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Remaining: %s h", v.TotalRemainingHours))
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Requests: %s (average %s h)", v.TotalRequests, v.AverageHoursPerRequest))
	pdf.Ln(10)

	if len(v.LeaveSummaries) > 0 {
		writeSummaryTable(pdf, v.LeaveSummaries)
	}
	if v.LeaveRecords != nil && len(v.LeaveRecords.Records) > 0 {
		writeRecordTable(pdf, v)
	}

	return pdf.Output(w)
}

func writeSummaryTable(pdf *gofpdf.Fpdf, summaries []DisplaySummary) {
	widths := []float64{50, 28, 28, 28, 24, 22}
	header := []string{"Leave type", "Allocated h", "Used h", "Remaining h", "Usage", "Requests"}
	tableHeader(pdf, widths, header)
	for _, s := range summaries {
		row := []string{
			s.LeaveTypeName,
			s.AllocatedHoursDisplay,
			s.UsedHoursDisplay,
			s.RemainingHoursDisplay,
			strconv.Itoa(s.UsagePercentage) + "%",
			strconv.Itoa(s.RecordCount),
		}
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}

func writeRecordTable(pdf *gofpdf.Fpdf, v View) {
	widths := []float64{28, 28, 50, 20, 30}
	tableHeader(pdf, widths, []string{"Start", "End", "Leave type", "Days", "Status"})
	for _, r := range v.LeaveRecords.Records {
		row := []string{
			r.StartDate.Format("2006-01-02"),
			r.EndDate.Format("2006-01-02"),
			r.LeaveTypeName,
			formatNumber(r.Days),
			r.Status,
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, header []string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
}
