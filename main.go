package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"stockflow/internal/handlers/common"
	"stockflow/internal/handlers/company"
	"stockflow/internal/handlers/purchase"
	"stockflow/internal/handlers/sales"
	"stockflow/internal/handlers/stock"
	"stockflow/internal/response"
	"stockflow/internal/websocket"
)

var cfg Config

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	var err error
	cfg, err = LoadConfig(*configPath)
	if err != nil {
		log.Fatal("Config load failed:", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	if err := initDB(cfg.DBPath); err != nil {
		log.Fatal("DB init failed:", err)
	}
	seedDB()
	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		log.Fatal("Uploads dir failed:", err)
	}

	hub := websocket.NewHub()

	purchaseH := &purchase.Handler{DB: db, Hub: hub, DefaultLocation: cfg.DefaultLocation}
	salesH := &sales.Handler{DB: db, Hub: hub}
	stockH := &stock.Handler{DB: db, Hub: hub}
	companyH := &company.Handler{DB: db}
	commonH := &common.Handler{DB: db}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.HandleWebSocket(hub, w, r)
	})

	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		filename := strings.TrimPrefix(r.URL.Path, "/files/")
		if filename == "" {
			http.NotFound(w, r)
			return
		}
		handleServeFile(w, r, filename)
	})

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogin(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogout(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/me", handleMe)
	mux.HandleFunc("/auth/password", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleChangePassword(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})

	// API routes - simple path-split router
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		switch {
		// Purchase orders
		case match(parts, "order", "po", "export") && r.Method == "GET":
			commonH.ExportPurchaseOrders(w, r)
		case match(parts, "order", "po") && r.Method == "GET":
			purchaseH.ListOrders(w, r)
		case match(parts, "order", "po") && r.Method == "POST":
			purchaseH.CreateOrder(w, r)
		case match(parts, "order", "po", "*") && r.Method == "GET":
			purchaseH.GetOrder(w, r, parts[2])
		case match(parts, "order", "po", "*") && r.Method == "PATCH":
			purchaseH.UpdateOrder(w, r, parts[2])
		case match(parts, "order", "po", "*") && r.Method == "DELETE":
			purchaseH.DeleteOrder(w, r, parts[2])
		case match(parts, "order", "po", "*", "issue") && r.Method == "POST":
			purchaseH.IssueOrder(w, r, parts[2])
		case match(parts, "order", "po", "*", "complete") && r.Method == "POST":
			purchaseH.CompleteOrder(w, r, parts[2])
		case match(parts, "order", "po", "*", "cancel") && r.Method == "POST":
			purchaseH.CancelOrder(w, r, parts[2])
		case match(parts, "order", "po", "*", "receive") && r.Method == "GET":
			purchaseH.ReceiveCandidates(w, r, parts[2])
		case match(parts, "order", "po", "*", "receive") && r.Method == "POST":
			purchaseH.ReceiveItems(w, r, parts[2])

		// Purchase order lines
		case match(parts, "order", "po-line") && r.Method == "GET":
			purchaseH.ListLines(w, r)
		case match(parts, "order", "po-line") && r.Method == "POST":
			purchaseH.CreateLine(w, r)
		case match(parts, "order", "po-line", "*") && r.Method == "GET":
			withIntID(w, parts[2], func(id int) { purchaseH.GetLine(w, id) })
		case match(parts, "order", "po-line", "*") && r.Method == "PATCH":
			withIntID(w, parts[2], func(id int) { purchaseH.UpdateLine(w, r, id) })
		case match(parts, "order", "po-line", "*") && r.Method == "DELETE":
			withIntID(w, parts[2], func(id int) { purchaseH.DeleteLine(w, r, id) })
		case match(parts, "order", "po-extra-line") && r.Method == "GET":
			purchaseH.ListExtraLines(w, r)
		case match(parts, "order", "po-extra-line") && r.Method == "POST":
			purchaseH.CreateExtraLine(w, r)
		case match(parts, "order", "po-extra-line", "*") && r.Method == "GET":
			withIntID(w, parts[2], func(id int) { purchaseH.GetExtraLine(w, id) })
		case match(parts, "order", "po-extra-line", "*") && r.Method == "PATCH":
			withIntID(w, parts[2], func(id int) { purchaseH.UpdateExtraLine(w, r, id) })
		case match(parts, "order", "po-extra-line", "*") && r.Method == "DELETE":
			withIntID(w, parts[2], func(id int) { purchaseH.DeleteExtraLine(w, r, id) })

		// Shipments (before the so/{id} routes so "shipment" isn't taken as an order id)
		case match(parts, "order", "so", "shipment") && r.Method == "GET":
			salesH.ListShipments(w, r)
		case match(parts, "order", "so", "shipment") && r.Method == "POST":
			salesH.CreateShipment(w, r)
		case match(parts, "order", "so", "shipment", "*") && r.Method == "GET":
			salesH.GetShipment(w, r, parts[3])
		case match(parts, "order", "so", "shipment", "*") && r.Method == "PATCH":
			salesH.UpdateShipment(w, r, parts[3])
		case match(parts, "order", "so", "shipment", "*") && r.Method == "DELETE":
			salesH.DeleteShipment(w, r, parts[3])
		case match(parts, "order", "so", "shipment", "*", "ship") && r.Method == "POST":
			salesH.ShipShipment(w, r, parts[3])

		// Sales orders
		case match(parts, "order", "so", "export") && r.Method == "GET":
			commonH.ExportSalesOrders(w, r)
		case match(parts, "order", "so") && r.Method == "GET":
			salesH.ListOrders(w, r)
		case match(parts, "order", "so") && r.Method == "POST":
			salesH.CreateOrder(w, r)
		case match(parts, "order", "so", "*") && r.Method == "GET":
			salesH.GetOrder(w, r, parts[2])
		case match(parts, "order", "so", "*") && r.Method == "PATCH":
			salesH.UpdateOrder(w, r, parts[2])
		case match(parts, "order", "so", "*") && r.Method == "DELETE":
			salesH.DeleteOrder(w, r, parts[2])
		case match(parts, "order", "so", "*", "complete") && r.Method == "POST":
			salesH.CompleteOrder(w, r, parts[2])
		case match(parts, "order", "so", "*", "cancel") && r.Method == "POST":
			salesH.CancelOrder(w, r, parts[2])
		case match(parts, "order", "so", "*", "allocate") && r.Method == "POST":
			salesH.Allocate(w, r, parts[2])
		case match(parts, "order", "so", "*", "allocate-serials") && r.Method == "POST":
			salesH.AllocateSerials(w, r, parts[2])
		case match(parts, "order", "so", "*", "ship-pending") && r.Method == "POST":
			salesH.ShipPending(w, r, parts[2])

		// Sales order lines and allocations
		case match(parts, "order", "so-line") && r.Method == "GET":
			salesH.ListLines(w, r)
		case match(parts, "order", "so-line") && r.Method == "POST":
			salesH.CreateLine(w, r)
		case match(parts, "order", "so-line", "*") && r.Method == "GET":
			withIntID(w, parts[2], func(id int) { salesH.GetLine(w, id) })
		case match(parts, "order", "so-line", "*") && r.Method == "PATCH":
			withIntID(w, parts[2], func(id int) { salesH.UpdateLine(w, r, id) })
		case match(parts, "order", "so-line", "*") && r.Method == "DELETE":
			withIntID(w, parts[2], func(id int) { salesH.DeleteLine(w, r, id) })
		case match(parts, "order", "so-extra-line") && r.Method == "GET":
			salesH.ListExtraLines(w, r)
		case match(parts, "order", "so-extra-line") && r.Method == "POST":
			salesH.CreateExtraLine(w, r)
		case match(parts, "order", "so-extra-line", "*") && r.Method == "GET":
			withIntID(w, parts[2], func(id int) { salesH.GetExtraLine(w, id) })
		case match(parts, "order", "so-extra-line", "*") && r.Method == "PATCH":
			withIntID(w, parts[2], func(id int) { salesH.UpdateExtraLine(w, r, id) })
		case match(parts, "order", "so-extra-line", "*") && r.Method == "DELETE":
			withIntID(w, parts[2], func(id int) { salesH.DeleteExtraLine(w, r, id) })
		case match(parts, "order", "so-allocation", "*") && r.Method == "GET":
			withIntID(w, parts[2], func(id int) { salesH.GetAllocation(w, id) })
		case match(parts, "order", "so-allocation", "*") && r.Method == "PATCH":
			withIntID(w, parts[2], func(id int) { salesH.UpdateAllocation(w, r, id) })
		case match(parts, "order", "so-allocation", "*") && r.Method == "DELETE":
			withIntID(w, parts[2], func(id int) { salesH.DeleteAllocation(w, r, id) })

		// Attachments
		case match(parts, "order", "attachment") && r.Method == "GET":
			handleListAttachments(w, r)
		case match(parts, "order", "attachment") && r.Method == "POST":
			handleUploadAttachment(w, r)
		case match(parts, "order", "attachment", "*") && r.Method == "DELETE":
			handleDeleteAttachment(w, r, parts[2])

		// Company / supplier parts
		case match(parts, "company", "part") && r.Method == "GET":
			companyH.ListSupplierParts(w, r)
		case match(parts, "company", "part", "*") && r.Method == "GET":
			withIntID(w, parts[2], func(id int) { companyH.GetSupplierPart(w, r, id) })
		case match(parts, "part", "supplier", "price-list") && r.Method == "GET":
			companyH.PriceList(w, r)

		// Stock
		case match(parts, "stock") && r.Method == "GET":
			stockH.List(w, r)
		case match(parts, "stock") && r.Method == "POST":
			stockH.Create(w, r)
		case match(parts, "stock", "*") && r.Method == "GET":
			withIntID(w, parts[1], func(id int) { stockH.Get(w, r, id) })

		// Audit
		case match(parts, "audit") && r.Method == "GET":
			handleAuditLog(w, r)

		default:
			response.Err(w, "not found", 404)
		}
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("stockflow server starting on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, logging(secureHeaders(gzipped(requireAuth(readOnly(mux)))))))
}

// match reports whether the path segments fit the pattern; "*" matches
// any single segment.
func match(parts []string, pattern ...string) bool {
	if len(parts) != len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p != "*" && p != parts[i] {
			return false
		}
	}
	return true
}

func withIntID(w http.ResponseWriter, s string, fn func(id int)) {
	id, err := strconv.Atoi(s)
	if err != nil {
		response.Err(w, "invalid id", 400)
		return
	}
	fn(id)
}
