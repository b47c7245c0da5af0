package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"coscribe/internal/document/model"
	"coscribe/internal/document/service"
	"coscribe/middleware"
	"coscribe/pkg/logger"

	"github.com/gorilla/mux"
)

type DocumentHandler struct {
	Service *service.DocumentService
}

func NewDocumentHandler(service *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{Service: service}
}

// writeServiceError maps the service error taxonomy onto HTTP status
// codes. Anything outside the taxonomy is a storage failure.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, model.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrAlreadyHasAccess),
		errors.Is(err, model.ErrDuplicatePending),
		errors.Is(err, model.ErrAlreadyProcessed),
		errors.Is(err, model.ErrAlreadyCollaborator):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Storage failure", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)

	var req model.CreateDocRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body means untitled

	docID, err := h.Service.CreateDocument(identity.ID, req.Title)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create document: %v", err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, model.CreateDocResponse{DocID: docID})
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)

	docs, err := h.Service.GetDocuments(identity.ID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list documents: %v", err)
		writeServiceError(w, err)
		return
	}
	if docs == nil {
		docs = []model.DocumentSummary{}
	}
	writeJSON(w, docs)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)
	docID := mux.Vars(r)["id"]

	doc, err := h.Service.GetDocument(docID, identity.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, doc)
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)
	docID := mux.Vars(r)["id"]

	var req model.UpdateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdateTitle(docID, identity.ID, req.Title); err != nil {
		logger.Sugar.Errorf("Handler: Failed to update title for doc %s: %v", docID, err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Document updated successfully"))
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)
	docID := mux.Vars(r)["id"]

	if err := h.Service.DeleteDocument(docID, identity.ID); err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete document %s: %v", docID, err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Document deleted successfully"))
}

func (h *DocumentHandler) ShareDocument(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)

	var req model.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.DocID == "" || req.Email == "" {
		http.Error(w, "Document ID and email are required", http.StatusBadRequest)
		return
	}

	if err := h.Service.ShareDocument(identity.ID, req); err != nil {
		logger.Sugar.Errorf("Handler: Failed to share document %s: %v", req.DocID, err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Collaborator added successfully"))
}

func (h *DocumentHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)
	docID := mux.Vars(r)["id"]

	var req model.AccessRequestInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.SubmitAccessRequest(docID, identity.ID, req.RequestedRole); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("Access request sent to the document owner"))
}

func (h *DocumentHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)

	reqs, err := h.Service.PendingRequests(identity.ID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list pending requests: %v", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, reqs)
}

func (h *DocumentHandler) AccessDecision(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r)
	docID := mux.Vars(r)["id"]

	var req model.AccessDecisionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RequestID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.DecideAccessRequest(docID, req.RequestID, identity.ID, req.Action); err != nil {
		writeServiceError(w, err)
		return
	}

	msg := "Access request denied"
	if req.Action == model.ActionGrant {
		msg = "Access granted"
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(msg))
}
