// Package common holds handlers shared across order modules: CSV and
// Excel export.
package common

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"

	"stockflow/internal/audit"
)

// Handler holds dependencies for the shared handlers.
type Handler struct {
	DB *sql.DB
}

// ExportPurchaseOrders exports the purchase order list to CSV or Excel.
func (h *Handler) ExportPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	status := r.URL.Query().Get("status")
	query := `SELECT po.id,po.reference,po.supplier,po.status,COALESCE(po.target_date,''),
		COALESCE(po.issue_date,''),COALESCE(po.complete_date,''),
		(SELECT COUNT(*) FROM po_lines l WHERE l.order_id = po.id),
		COALESCE(po.notes,''),po.created_at FROM purchase_orders po`
	var args []interface{}
	if status != "" {
		query += " WHERE po.status=?"
		args = append(args, status)
	}
	query += " ORDER BY po.created_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	headers := []string{"ID", "Reference", "Supplier", "Status", "Target Date", "Issue Date", "Complete Date", "Line Items", "Notes", "Created At"}
	var data [][]string

	for rows.Next() {
		var id, reference, supplier, st, targetDate, issueDate, completeDate, notes, createdAt string
		var lineItems int
		rows.Scan(&id, &reference, &supplier, &st, &targetDate, &issueDate, &completeDate, &lineItems, &notes, &createdAt)
		data = append(data, []string{id, reference, supplier, st, targetDate, issueDate, completeDate, fmt.Sprintf("%d", lineItems), notes, createdAt})
	}

	audit.LogAudit(h.DB, nil, audit.GetUsername(h.DB, r), "exported", "purchase_order", "-",
		fmt.Sprintf("Exported %d purchase orders as %s", len(data), format))

	if format == "xlsx" {
		ExportExcel(w, "PurchaseOrders", headers, data)
	} else {
		ExportCSV(w, "purchase_orders.csv", headers, data)
	}
}

// ExportSalesOrders exports the sales order list to CSV or Excel.
func (h *Handler) ExportSalesOrders(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	status := r.URL.Query().Get("status")
	query := `SELECT so.id,so.reference,so.customer,so.status,COALESCE(so.target_date,''),
		COALESCE(so.shipment_date,''),
		(SELECT COUNT(*) FROM so_lines l WHERE l.order_id = so.id),
		(SELECT COUNT(*) FROM shipments sh WHERE sh.order_id = so.id),
		COALESCE(so.notes,''),so.created_at FROM sales_orders so`
	var args []interface{}
	if status != "" {
		query += " WHERE so.status=?"
		args = append(args, status)
	}
	query += " ORDER BY so.created_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	headers := []string{"ID", "Reference", "Customer", "Status", "Target Date", "Shipment Date", "Line Items", "Shipments", "Notes", "Created At"}
	var data [][]string

	for rows.Next() {
		var id, reference, customer, st, targetDate, shipmentDate, notes, createdAt string
		var lineItems, shipments int
		rows.Scan(&id, &reference, &customer, &st, &targetDate, &shipmentDate, &lineItems, &shipments, &notes, &createdAt)
		data = append(data, []string{id, reference, customer, st, targetDate, shipmentDate, fmt.Sprintf("%d", lineItems), fmt.Sprintf("%d", shipments), notes, createdAt})
	}

	audit.LogAudit(h.DB, nil, audit.GetUsername(h.DB, r), "exported", "sales_order", "-",
		fmt.Sprintf("Exported %d sales orders as %s", len(data), format))

	if format == "xlsx" {
		ExportExcel(w, "SalesOrders", headers, data)
	} else {
		ExportCSV(w, "sales_orders.csv", headers, data)
	}
}

// ExportCSV writes data to CSV format.
func ExportCSV(w http.ResponseWriter, filename string, headers []string, data [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		http.Error(w, "Failed to write CSV headers", 500)
		return
	}

	for _, row := range data {
		if err := writer.Write(row); err != nil {
			http.Error(w, "Failed to write CSV row", 500)
			return
		}
	}
}

// ExportExcel writes data to Excel format.
func ExportExcel(w http.ResponseWriter, sheetName string, headers []string, data [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		http.Error(w, "Failed to create Excel sheet", 500)
		return
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		http.Error(w, "Failed to create header style", 500)
		return
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", strings.ToLower(sheetName)))

	if err := f.Write(w); err != nil {
		http.Error(w, "Failed to write Excel file", 500)
		return
	}
}
