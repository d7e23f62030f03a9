package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"kotiva.org/internal/audit"
	"kotiva.org/internal/auth"
	"kotiva.org/internal/ids"
	"kotiva.org/internal/obs"
)

type createDocumentRequest struct {
	Name               string `json:"name"`
	ResidenceID        string `json:"residence_id"`
	BuildingID         string `json:"building_id"`
	OrganizationID     string `json:"organization_id"`
	IsVisibleToTenants bool   `json:"is_visible_to_tenants"`
}

func (a *API) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok || principal.User == nil {
		writeAPIError(w, r, http.StatusUnauthorized, "NOT_AUTHENTICATED", "authentication required", nil)
		return
	}
	var req createDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "MISSING_FIELDS", err.Error(), nil)
		return
	}

	ctx := r.Context()
	scope := auth.CreateScope{
		ResidenceID:    strings.TrimSpace(req.ResidenceID),
		BuildingID:     strings.TrimSpace(req.BuildingID),
		OrganizationID: strings.TrimSpace(req.OrganizationID),
	}
	if !a.deps.Policy.CanCreate(ctx, principal, scope) {
		obs.CountDenial("policy")
		writeAPIError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "permission denied", nil)
		return
	}

	doc := &auth.Document{
		ID:                 ids.New(),
		Name:               strings.TrimSpace(req.Name),
		ResidenceID:        scope.ResidenceID,
		BuildingID:         scope.BuildingID,
		OrganizationID:     scope.OrganizationID,
		UploadedBy:         principal.User.ID,
		IsVisibleToTenants: req.IsVisibleToTenants,
	}
	if err := a.deps.Store.CreateDocument(ctx, doc); err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_ERROR", "failed to create document", nil)
		return
	}
	_ = audit.LogEvent(ctx, "document.create", map[string]any{"document_id": doc.ID})
	w.Header().Set("Location", fmt.Sprintf("/documents/%s", doc.ID))
	writeJSON(w, http.StatusCreated, doc)
}

func (a *API) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok || principal.User == nil {
		writeAPIError(w, r, http.StatusUnauthorized, "NOT_AUTHENTICATED", "authentication required", nil)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/documents/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeAPIError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}

	ctx := r.Context()
	doc, err := a.deps.Store.GetDocument(ctx, id)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "AUTH_ERROR", "failed to load document", nil)
		return
	}
	if doc == nil {
		writeAPIError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}

	// Residence membership feeds the resident/tenant branches; a lookup
	// failure leaves it empty, which the policy treats as deny.
	var residences []auth.Residence
	if role := principal.User.Role.Base(); role == auth.RoleResident || role == auth.RoleTenant {
		residences, _ = a.deps.Store.GetUserResidences(ctx, principal.User.ID)
	}

	switch r.Method {
	case http.MethodGet:
		if !a.deps.Policy.CanView(ctx, principal, doc, residences) {
			obs.CountDenial("policy")
			writeAPIError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "permission denied", nil)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if !a.deps.Policy.CanDelete(ctx, principal, doc, residences) {
			obs.CountDenial("policy")
			writeAPIError(w, r, http.StatusForbidden, "PERMISSION_DENIED", "permission denied", nil)
			return
		}
		if err := a.deps.Store.DeleteDocument(ctx, doc.ID); err != nil {
			writeAPIError(w, r, http.StatusInternalServerError, "AUTH_ERROR", "failed to delete document", nil)
			return
		}
		_ = audit.LogEvent(ctx, "document.delete", map[string]any{"document_id": doc.ID})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}
