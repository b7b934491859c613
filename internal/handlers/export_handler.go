package handlers

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strings"

	"back_scan/internal/models"
	"back_scan/internal/services"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const exportTimeLayout = "2006-01-02 15:04:05"

type ExportHandler struct {
	reportService *services.ReportService
}

func NewExportHandler(reportService *services.ReportService) *ExportHandler {
	return &ExportHandler{reportService: reportService}
}

// Export handles GET /api/export
func (eh *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = todayDate()
	}
	reportType := r.URL.Query().Get("type")
	if reportType == "" {
		reportType = services.ExportAll
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}

	rows, err := eh.reportService.ExportRows(date, reportType)
	if err != nil {
		log.Printf("export: %v", err)
		http.Error(w, fmt.Sprintf("Failed to export records: %v", err), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("report-%s-%s", reportType, date)
	switch format {
	case "csv":
		eh.writeCSV(w, filename, rows)
	case "xlsx", "excel":
		eh.writeXLSX(w, filename, rows)
	case "pdf":
		eh.writePDF(w, filename, date, reportType, rows)
	default:
		http.Error(w, "Invalid format. Use csv, xlsx, or pdf.", http.StatusBadRequest)
	}
}

func (eh *ExportHandler) writeCSV(w http.ResponseWriter, filename string, rows []models.Parcel) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))

	cw := csv.NewWriter(w)
	cw.Write([]string{"AWB", "Status", "Date", "Time"})
	for _, row := range rows {
		cw.Write([]string{row.Awb, row.Status, row.Date, row.UpdatedAt.Format(exportTimeLayout)})
	}
	cw.Flush()
}

func (eh *ExportHandler) writeXLSX(w http.ResponseWriter, filename string, rows []models.Parcel) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Report"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &[]interface{}{"AWB", "Status", "Date", "Time"})
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheet, cell, &[]interface{}{row.Awb, row.Status, row.Date, row.UpdatedAt.Format(exportTimeLayout)})
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
	if err := f.Write(w); err != nil {
		log.Printf("export: failed to write xlsx: %v", err)
	}
}

func (eh *ExportHandler) writePDF(w http.ResponseWriter, filename, date, reportType string, rows []models.Parcel) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Inventory Report (%s)", date), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Type: "+reportType, "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 10)
	for i, row := range rows {
		line := fmt.Sprintf("%d. %s | %s | %s | %s", i+1, row.Awb, row.Status, row.Date, row.UpdatedAt.Format(exportTimeLayout))
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
	if err := pdf.Output(w); err != nil {
		log.Printf("export: failed to write pdf: %v", err)
	}
}
