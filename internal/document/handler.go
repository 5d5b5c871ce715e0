package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mdviewer/internal/document/model"
	"mdviewer/internal/document/repository"
	"mdviewer/internal/document/service"
	"mdviewer/pkg/logger"
)

const maxUploadBytes = 5 << 20

type DocumentHandler struct {
	Service *service.DocumentService
}

func NewDocumentHandler(service *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{Service: service}
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docs := h.Service.ListDocuments(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}

	doc, err := h.Service.GetDocument(r.Context(), docID)
	if err != nil {
		writeError(w, "Failed to load document "+docID, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.Service.SaveDocument(r.Context(), req)
	if err != nil {
		writeError(w, "Failed to create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}

	var req model.UpdateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.Service.UpdateDocument(r.Context(), docID, req)
	if err != nil {
		writeError(w, "Failed to update document "+docID, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}

	if err := h.Service.DeleteDocument(r.Context(), docID); err != nil {
		writeError(w, "Failed to delete document "+docID, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Document deleted successfully"))
}

// UploadDocument expects a multipart form with the file under "file".
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	doc, err := h.Service.UploadDocument(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, "Failed to import "+header.Filename, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// ExportDocument downloads a saved document (GET ?docId=) or the posted
// editor buffer (POST) as document.md.
func (h *DocumentHandler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	var content string
	switch r.Method {
	case http.MethodGet:
		docID := r.URL.Query().Get("docId")
		if docID == "" {
			http.Error(w, "Missing docId parameter", http.StatusBadRequest)
			return
		}
		_, saved, err := h.Service.ExportDocument(r.Context(), docID)
		if err != nil {
			writeError(w, "Failed to export document "+docID, err)
			return
		}
		content = saved
	case http.MethodPost:
		var req model.PreviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		content = req.Content
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.ExportName+`"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, content)
}

func (h *DocumentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.Preview(req.Content)
	if err != nil {
		writeError(w, "Failed to render preview", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) ToggleCheckbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.CheckboxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.ToggleCheckbox(req))
}

func (h *DocumentHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.Service.GetPreferences(r.Context()))
	case http.MethodPut:
		var patch model.PreferencesPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		prefs, err := h.Service.UpdatePreferences(r.Context(), patch)
		if err != nil {
			writeError(w, "Failed to update preferences", err)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrNotMarkdown):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Sugar.Errorf("Handler: %s: %v", action, err)
		http.Error(w, action, http.StatusInternalServerError)
	}
}
