package main

import (
	"bufio"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"os"
	"strings"

	"back_scan/internal/database"
	"back_scan/internal/handlers"
	"back_scan/internal/services"
	"back_scan/internal/store"

	"github.com/gorilla/mux"
)

// loadEnvFile loads environment variables from a file
func loadEnvFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		return // File doesn't exist, skip silently
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	}

	log.Printf("Loaded environment from %s", filename)
}

// CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getLocalIP returns the first non-loopback IPv4 address, so the scanner UI
// on a handheld can be pointed at this machine over the LAN.
func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return "localhost"
}

func main() {
	log.Println("Starting parcel reconciliation server...")

	// Load environment variables from .env file
	loadEnvFile(".env")
	loadEnvFile("env.local")

	// Initialize record store: gorm-backed by default, in-memory demo mode
	// when DB_TYPE=memory
	var parcelStore store.ParcelStore
	if os.Getenv("DB_TYPE") == "memory" {
		log.Println("DB_TYPE=memory: using in-memory store (data is lost on restart)")
		parcelStore = store.NewMemStore()
	} else {
		database.InitDatabase()
		parcelStore = store.NewGormStore(database.GetDB())
	}

	// Initialize services and handlers
	reconcileService := services.NewReconcileService(parcelStore)
	reportService := services.NewReportService(parcelStore)
	purgeService := services.NewPurgeService(parcelStore)
	parcelHandler := handlers.NewParcelHandler(reconcileService, reportService, purgeService)
	exportHandler := handlers.NewExportHandler(reportService)

	r := mux.NewRouter()

	// Reconciliation endpoints
	r.HandleFunc("/api/upload", parcelHandler.Upload).Methods("POST")
	r.HandleFunc("/api/scan", parcelHandler.Scan).Methods("POST")

	// Reporting endpoints
	r.HandleFunc("/api/dashboard", parcelHandler.Dashboard).Methods("GET")
	r.HandleFunc("/api/history", parcelHandler.History).Methods("GET")
	r.HandleFunc("/api/export", exportHandler.Export).Methods("GET")

	// Retention endpoints
	r.HandleFunc("/api/clear", parcelHandler.Clear).Methods("POST")
	r.HandleFunc("/api/parcels/{id}", parcelHandler.Delete).Methods("DELETE")

	// Network discovery for pairing the handheld scanner UI
	r.HandleFunc("/api/ip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"ip": getLocalIP()})
	}).Methods("GET")

	// Health check endpoint
	r.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","message":"Backend is running"}`))
	}).Methods("GET")

	// Apply CORS middleware
	handler := corsMiddleware(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Parcel reconciliation backend started on :%s", port)
	log.Printf("📡 Local network: http://%s:%s", getLocalIP(), port)
	log.Println("   📦 POST /api/upload        - Upload manifest (.xlsx/.csv)")
	log.Println("   📷 POST /api/scan          - Record a parcel scan")
	log.Println("   📊 GET  /api/dashboard     - Live counts and AWB lists")
	log.Println("   🕘 GET  /api/history       - Parcel history for a date")
	log.Println("   📄 GET  /api/export        - Export report (csv/xlsx/pdf)")
	log.Println("   🧹 POST /api/clear         - Purge records (old/today/all)")

	log.Fatal(http.ListenAndServe(":"+port, handler))
}
