package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"stockflow/internal/audit"
	"stockflow/internal/models"
	"stockflow/internal/response"
)

// handleUploadAttachment stores a file against an order. Files live in
// the uploads dir under a random name; the original name is kept in the
// attachments table.
func handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		response.Err(w, "Failed to parse form", 400)
		return
	}
	module := r.FormValue("module")
	recordID := r.FormValue("record_id")
	if module == "" || recordID == "" {
		response.Err(w, "module and record_id required", 400)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Err(w, "File required", 400)
		return
	}
	defer file.Close()

	filename := uuid.NewString() + filepath.Ext(header.Filename)
	outPath := filepath.Join(cfg.UploadsDir, filename)
	out, err := os.Create(outPath)
	if err != nil {
		response.Err(w, "Failed to save file", 500)
		return
	}
	defer out.Close()
	written, err := io.Copy(out, file)
	if err != nil {
		response.Err(w, "Failed to write file", 500)
		return
	}

	uploadedBy := audit.GetUsername(db, r)
	result, err := db.Exec(`INSERT INTO attachments (module, record_id, filename, original_name, size_bytes, comment, uploaded_by) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		module, recordID, filename, header.Filename, written, r.FormValue("comment"), uploadedBy)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}

	id, _ := result.LastInsertId()
	w.WriteHeader(201)
	response.JSON(w, models.Attachment{
		ID:           int(id),
		Module:       module,
		RecordID:     recordID,
		Filename:     filename,
		OriginalName: header.Filename,
		SizeBytes:    written,
		Comment:      r.FormValue("comment"),
		UploadedBy:   uploadedBy,
	})
}

func handleListAttachments(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")
	recordID := r.URL.Query().Get("record_id")
	if module == "" || recordID == "" {
		response.Err(w, "module and record_id required", 400)
		return
	}
	rows, err := db.Query(`SELECT id, module, record_id, filename, original_name, size_bytes, COALESCE(comment,''), uploaded_by, created_at
		FROM attachments WHERE module = ? AND record_id = ? ORDER BY created_at DESC`, module, recordID)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	atts := []models.Attachment{}
	for rows.Next() {
		var a models.Attachment
		rows.Scan(&a.ID, &a.Module, &a.RecordID, &a.Filename, &a.OriginalName, &a.SizeBytes, &a.Comment, &a.UploadedBy, &a.CreatedAt)
		atts = append(atts, a)
	}
	response.JSON(w, atts)
}

func handleServeFile(w http.ResponseWriter, r *http.Request, filename string) {
	// stored names are uuid + extension, so a path separator means tampering
	if filepath.Base(filename) != filename {
		http.NotFound(w, r)
		return
	}
	var original string
	if err := db.QueryRow("SELECT original_name FROM attachments WHERE filename = ?", filename).Scan(&original); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Disposition", "inline; filename=\""+original+"\"")
	http.ServeFile(w, r, filepath.Join(cfg.UploadsDir, filename))
}

func handleDeleteAttachment(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.Atoi(idStr)
	if err != nil {
		response.Err(w, "Invalid ID", 400)
		return
	}
	var filename string
	err = db.QueryRow("SELECT filename FROM attachments WHERE id = ?", id).Scan(&filename)
	if err != nil {
		response.Err(w, "Attachment not found", 404)
		return
	}
	db.Exec("DELETE FROM attachments WHERE id = ?", id)
	os.Remove(filepath.Join(cfg.UploadsDir, filename))
	response.JSON(w, map[string]string{"status": "deleted"})
}
