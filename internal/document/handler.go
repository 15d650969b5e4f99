package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"naskahweb/internal/document/model"
	"naskahweb/internal/document/service"
	"naskahweb/middleware"
	"naskahweb/pkg/apperror"
	"naskahweb/pkg/httputil"
	"naskahweb/pkg/logger"
)

const listPath = "/documents"

type DocumentHandler struct {
	Service   *service.DocumentService
	Sessions  *service.SessionService
	SignInURL string
}

func NewDocumentHandler(service *service.DocumentService, sessions *service.SessionService, signInURL string) *DocumentHandler {
	return &DocumentHandler{Service: service, Sessions: sessions, SignInURL: signInURL}
}

// ListDocuments renders the list view for the filters in the query string.
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.Redirect(w, r, h.SignInURL)
		return
	}

	ctrl := service.NewListController(h.Service.API, identity)
	ctrl.Path = listPath
	if err := ctrl.Navigate(r.Context(), r.URL.Query()); err != nil {
		h.respondListError(w, r, ctrl, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ctrl.View())
}

// DeleteDocument deletes a document from the list view at the filters in
// the query string. The answer is the updated view, whose redirect field is
// set when the view moved back a page.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.Redirect(w, r, h.SignInURL)
		return
	}

	docID := r.PathValue("id")
	ctrl := service.NewListController(h.Service.API, identity)
	ctrl.Path = listPath
	if err := ctrl.Navigate(r.Context(), r.URL.Query()); err != nil {
		h.respondListError(w, r, ctrl, err)
		return
	}

	redirect, err := ctrl.Delete(r.Context(), docID)
	if err != nil && redirect == "" {
		logger.Sugar.Errorf("Handler: Failed to delete document %s: %v", docID, err)
		respondServiceError(w, err)
		return
	}
	h.Service.CloseRoom(docID)
	if err != nil {
		// Deleted, but the previous page could not be loaded.
		logger.Sugar.Warnf("Handler: Failed to reload list after deleting %s: %v", docID, err)
	}

	httputil.RespondJSON(w, http.StatusOK, ctrl.View())
}

func (h *DocumentHandler) respondListError(w http.ResponseWriter, r *http.Request, ctrl *service.ListController, err error) {
	switch {
	case errors.Is(err, apperror.ErrAuthenticationMissing):
		httputil.Redirect(w, r, h.SignInURL)
	case errors.Is(err, apperror.ErrInvalidInput):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		// The view carries the error state so the page can offer a retry.
		httputil.RespondJSON(w, http.StatusBadGateway, ctrl.View())
	}
}

// OpenDocument bootstraps a collaboration session for GET /documents/{id}.
func (h *DocumentHandler) OpenDocument(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	docID := r.PathValue("id")

	session, err := h.Sessions.Open(r.Context(), identity, docID)
	switch {
	case errors.Is(err, apperror.ErrAuthenticationMissing):
		httputil.Redirect(w, r, h.SignInURL)
		return
	case errors.Is(err, apperror.ErrNotFound):
		httputil.Redirect(w, r, listPath)
		return
	case err != nil:
		logger.Sugar.Errorf("Handler: Failed to open document %s: %v", docID, err)
		httputil.RespondError(w, http.StatusBadGateway, "Failed to fetch document")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	var req model.CreateDocRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // Ignore error, default title

	doc, err := h.Service.CreateDocument(r.Context(), identity, req.Title)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create document: %v", err)
		respondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) RenameDocument(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	docID := r.PathValue("id")

	var req model.RenameDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.RenameDocument(r.Context(), identity, docID, req); err != nil {
		logger.Sugar.Errorf("Handler: Failed to rename document %s: %v", docID, err)
		respondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"id": docID, "title": req.Title})
}

func (h *DocumentHandler) InviteCollaborator(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	docID := r.PathValue("id")

	var req model.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.InviteCollaborator(r.Context(), identity, docID, req); err != nil {
		logger.Sugar.Errorf("Handler: Failed to invite collaborator to %s: %v", docID, err)
		respondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"email":      req.Email,
		"permission": string(req.ResolvedPermission()),
	})
}

func (h *DocumentHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	docID := r.PathValue("id")
	userID := r.PathValue("userId")

	if err := h.Service.RemoveCollaborator(r.Context(), identity, docID, userID); err != nil {
		logger.Sugar.Errorf("Handler: Failed to remove collaborator %s from %s: %v", userID, docID, err)
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	users, err := h.Service.SearchUsers(r.Context(), identity, r.URL.Query().Get("q"), limit)
	if err != nil {
		logger.Sugar.Errorf("Error searching users: %v", err)
		respondServiceError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, users)
}

func respondServiceError(w http.ResponseWriter, err error) {
	var backendErr *apperror.BackendError
	switch {
	case errors.Is(err, apperror.ErrAuthenticationMissing):
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized: no valid session")
	case errors.Is(err, apperror.ErrInvalidInput):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCreatorNotRemovable):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperror.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "Document not found")
	case errors.As(err, &backendErr) && backendErr.Status == http.StatusForbidden:
		httputil.RespondError(w, http.StatusForbidden, "Forbidden")
	default:
		httputil.RespondError(w, http.StatusBadGateway, "Backend request failed")
	}
}
