package fakebackend

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const defaultClientPageSize = 10

func (h *Handler) HandleMyProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpClients) {
		return
	}

	p, err := h.store.Profile(actor.ID)
	if err != nil {
		h.writeStoreError(w, err, "client")
		return
	}
	h.writeJSON(w, http.StatusOK, toProfileJSON(p))
}

func (h *Handler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	h.listClients(w, r, "")
}

func (h *Handler) HandleSearchClients(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "q is required")
		return
	}
	h.listClients(w, r, q)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request, query string) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpClients) {
		return
	}
	if !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Administrator only")
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultClientPageSize
	}

	clients := h.store.Clients(query)
	page := clientPageJSON{
		Items: []profileJSON{},
		Total: len(clients),
		Page:  skip/limit + 1,
		Size:  limit,
		Pages: max(1, (len(clients)+limit-1)/limit),
	}
	for _, c := range clients[min(skip, len(clients)):min(skip+limit, len(clients))] {
		page.Items = append(page.Items, toProfileJSON(c))
	}
	h.writeJSON(w, http.StatusOK, page)
}

// selfOrAdmin resolves the {id} path value for endpoints a client may use on
// its own account and an administrator on any account.
func (h *Handler) selfOrAdmin(w http.ResponseWriter, r *http.Request) (domain.Actor, int64, bool) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return domain.Actor{}, 0, false
	}
	if h.fault(w, OpClients) {
		return domain.Actor{}, 0, false
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return domain.Actor{}, 0, false
	}
	if id != actor.ID && !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Cannot access another client")
		return domain.Actor{}, 0, false
	}
	return actor, id, true
}

func (h *Handler) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.selfOrAdmin(w, r)
	if !ok {
		return
	}
	p, err := h.store.Profile(id)
	if err != nil {
		h.writeStoreError(w, err, "client")
		return
	}
	h.writeJSON(w, http.StatusOK, toProfileJSON(p))
}

func (h *Handler) HandleUpdateClient(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.selfOrAdmin(w, r)
	if !ok {
		return
	}

	var req domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IsEmpty() {
		h.writeError(w, http.StatusUnprocessableEntity, "no fields to update")
		return
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		h.writeError(w, http.StatusUnprocessableEntity, "invalid email")
		return
	}

	p, err := h.store.UpdateProfile(id, req)
	if err != nil {
		h.writeStoreError(w, err, "client")
		return
	}

	h.logger.Info("client updated", "client_id", p.ID)
	h.writeJSON(w, http.StatusOK, toProfileJSON(p))
}

func (h *Handler) HandleDeleteClient(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.selfOrAdmin(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteClient(id); err != nil {
		h.writeStoreError(w, err, "client")
		return
	}

	h.logger.Info("client deleted", "client_id", id)
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "client_id": id})
}

func (h *Handler) HandleClientAddresses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpAddresses) {
		return
	}

	clientID, ok := h.pathID(w, r, "clientId")
	if !ok {
		return
	}
	if clientID != actor.ID && !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Cannot list addresses of another client")
		return
	}

	addresses := h.store.Addresses(clientID)
	out := make([]addressJSON, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, toAddressJSON(a))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleStoreAddress(w http.ResponseWriter, _ *http.Request) {
	if h.fault(w, OpAddresses) {
		return
	}
	h.writeJSON(w, http.StatusOK, toAddressJSON(domain.DefaultStoreAddress))
}

func (h *Handler) HandleCreateAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpAddresses) {
		return
	}

	var req addressJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Street) == "" || strings.TrimSpace(req.City) == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "street and city are required")
		return
	}
	if req.ClientID == 0 {
		req.ClientID = actor.ID
	}
	if req.ClientID != actor.ID && !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Cannot add addresses for another client")
		return
	}

	a, err := h.store.AddAddress(domain.Address{
		ClientID: req.ClientID,
		Street:   strings.TrimSpace(req.Street),
		City:     strings.TrimSpace(req.City),
		State:    strings.TrimSpace(req.State),
		ZipCode:  strings.TrimSpace(req.ZipCode),
		Type:     req.Type,
	})
	if err != nil {
		h.writeStoreError(w, err, "client")
		return
	}

	h.logger.Info("address created", "address_id", a.ID, "client_id", a.ClientID)
	h.writeJSON(w, http.StatusCreated, toAddressJSON(a))
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, _ *http.Request) {
	if h.fault(w, OpCategories) {
		return
	}
	categories := h.store.Categories()
	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	h.writeJSON(w, http.StatusOK, out)
}
