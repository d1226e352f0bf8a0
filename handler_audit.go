package main

import (
	"net/http"
	"strconv"

	"stockflow/internal/response"
)

type AuditEntry struct {
	ID        int    `json:"id"`
	Module    string `json:"module"`
	Action    string `json:"action"`
	RecordID  string `json:"record_id"`
	Username  string `json:"username"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

// handleAuditLog lists audit entries, newest first. Filters: module,
// record_id, limit (default 100).
func handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := "SELECT id, module, action, record_id, username, summary, created_at FROM audit_log WHERE 1=1"
	var args []interface{}
	if v := q.Get("module"); v != "" {
		query += " AND module=?"
		args = append(args, v)
	}
	if v := q.Get("record_id"); v != "" {
		query += " AND record_id=?"
		args = append(args, v)
	}
	limit := 100
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		rows.Scan(&e.ID, &e.Module, &e.Action, &e.RecordID, &e.Username, &e.Summary, &e.CreatedAt)
		entries = append(entries, e)
	}
	response.JSON(w, entries)
}
