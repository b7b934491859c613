package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"back_scan/internal/ingest"
	"back_scan/internal/models"
	"back_scan/internal/services"
	"back_scan/internal/store"

	"github.com/gorilla/mux"
)

// maxUploadSize caps manifest uploads at 16 MB.
const maxUploadSize = 16 << 20

type ParcelHandler struct {
	reconcileService *services.ReconcileService
	reportService    *services.ReportService
	purgeService     *services.PurgeService
}

func NewParcelHandler(reconcileService *services.ReconcileService, reportService *services.ReportService, purgeService *services.PurgeService) *ParcelHandler {
	return &ParcelHandler{
		reconcileService: reconcileService,
		reportService:    reportService,
		purgeService:     purgeService,
	}
}

// todayDate supplies the default business date. The services never read the
// clock for "today"; the boundary layer decides it.
func todayDate() string {
	return time.Now().Format("2006-01-02")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Upload handles POST /api/upload
func (ph *ParcelHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	awbs, err := ingest.ReadFile(file, header.Filename)
	if errors.Is(err, ingest.ErrUnsupportedFormat) {
		http.Error(w, "Invalid file format. Please upload .xlsx or .csv", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("upload: failed to parse %s: %v", header.Filename, err)
		http.Error(w, "Unable to read file", http.StatusBadRequest)
		return
	}

	result, err := ph.reconcileService.IngestManifest(awbs, todayDate())
	if err != nil {
		log.Printf("upload: ingest failed: %v", err)
		http.Error(w, fmt.Sprintf("Failed to process file: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// Scan handles POST /api/scan
func (ph *ParcelHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := ph.reconcileService.RecordScan(req.Awb, todayDate())
	if errors.Is(err, services.ErrEmptyAwb) {
		http.Error(w, "AWB is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("scan: %v", err)
		http.Error(w, fmt.Sprintf("Failed to record scan: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// Dashboard handles GET /api/dashboard
func (ph *ParcelHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = todayDate()
	}

	stats, err := ph.reportService.Dashboard(date)
	if err != nil {
		log.Printf("dashboard: %v", err)
		http.Error(w, fmt.Sprintf("Failed to compute dashboard: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=5")
	writeJSON(w, stats)
}

// History handles GET /api/history
func (ph *ParcelHandler) History(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = todayDate()
	}
	search := r.URL.Query().Get("search")

	parcels, err := ph.reportService.History(date, search)
	if err != nil {
		log.Printf("history: %v", err)
		http.Error(w, fmt.Sprintf("Failed to list history: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3")
	writeJSON(w, parcels)
}

// Clear handles POST /api/clear
func (ph *ParcelHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req models.ClearRequest
	if r.Body != nil {
		// An empty body means the default mode
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	mode := req.Mode
	if mode == "" {
		mode = services.ClearOld
	}

	deleted, err := ph.purgeService.Clear(mode, todayDate())
	if err != nil {
		log.Printf("clear: %v", err)
		http.Error(w, fmt.Sprintf("Failed to clear records: %v", err), http.StatusInternalServerError)
		return
	}

	var message string
	switch mode {
	case services.ClearToday:
		message = fmt.Sprintf("Cleared %d records for today.", deleted)
	case services.ClearAll:
		message = fmt.Sprintf("Cleared %d records.", deleted)
	default:
		message = fmt.Sprintf("Cleared %d old pending records.", deleted)
	}
	writeJSON(w, map[string]interface{}{"message": message, "cleared": deleted})
}

// Delete handles DELETE /api/parcels/{id}
func (ph *ParcelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	if err := ph.purgeService.DeleteByID(uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Record not found", http.StatusNotFound)
			return
		}
		log.Printf("delete: %v", err)
		http.Error(w, fmt.Sprintf("Failed to delete record: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"message": "Record deleted"})
}
