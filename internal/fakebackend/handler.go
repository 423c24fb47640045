package fakebackend

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Handler serves the storefront REST contract from an in-memory Store. It
// records call counts and can inject failures per operation.
type Handler struct {
	store  *Store
	tokens *Tokens
	faults *faults
	logger *slog.Logger
}

func NewHandler(store *Store, tokens *Tokens, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		tokens: tokens,
		faults: newFaults(),
		logger: logger,
	}
}

func (h *Handler) Store() *Store {
	return h.store
}

// Inject queues a failure for the next calls of op.
func (h *Handler) Inject(op Op, fault Fault) {
	h.faults.inject(op, fault)
}

// Calls reports how many requests for op were received, including failed ones.
func (h *Handler) Calls(op Op) int {
	return h.faults.count(op)
}

// ResetFaults drops pending faults and call counts.
func (h *Handler) ResetFaults() {
	h.faults.reset()
}

// IssueToken returns a bearer token for clientID.
func (h *Handler) IssueToken(clientID int64) (string, error) {
	return h.tokens.Issue(clientID)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, OpLogin) {
		return
	}

	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, err := h.store.Login(creds)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.writeAuth(w, http.StatusOK, actor)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, OpRegister) {
		return
	}

	var reg domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(reg.Email) == "" || reg.Password == "" || strings.TrimSpace(reg.Name) == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "name, email and password are required")
		return
	}

	actor, err := h.store.Register(reg)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			h.writeError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		h.logger.Error("failed to register client", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("client registered", "client_id", actor.ID)
	h.writeAuth(w, http.StatusCreated, actor)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"valid": true, "client": toClientJSON(actor)})
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, OpListProducts) {
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if skip < 0 {
		skip = 0
	}

	products := h.store.ListProducts(skip, limit)
	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, toProductJSON(p))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, OpGetProduct) {
		return
	}

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.store.Product(domain.ProductID(id))
	if err != nil {
		h.writeStoreError(w, err, "product")
		return
	}
	h.writeJSON(w, http.StatusOK, toProductJSON(p))
}

type setStockJSON struct {
	Stock *int `json:"stock"`
}

func (h *Handler) HandleSetStock(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpSetStock) {
		return
	}
	if !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Administrator only")
		return
	}

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req setStockJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stock == nil {
		h.writeError(w, http.StatusBadRequest, "stock is required")
		return
	}

	p, err := h.store.SetStock(domain.ProductID(id), *req.Stock)
	if err != nil {
		h.writeStoreError(w, err, "product")
		return
	}

	h.logger.Info("stock set", "product_id", p.ID, "stock", p.Stock)
	h.writeJSON(w, http.StatusOK, toProductJSON(p))
}

func (h *Handler) HandleAdjustStock(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}
	if h.fault(w, OpAdjustStock) {
		return
	}

	var req stockBatchJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		h.writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	results := h.store.AdjustStock(req.Items)
	h.logger.Info("stock adjusted", "items", len(req.Items))
	h.writeJSON(w, http.StatusOK, stockBatchResultJSON{Results: results})
}

func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpCreateOrder) {
		return
	}

	var req createOrderJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID != actor.ID && !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Cannot create orders for another client")
		return
	}
	if len(req.OrderDetails) == 0 {
		h.writeError(w, http.StatusBadRequest, "order_details must not be empty")
		return
	}
	if req.DeliveryMethod == domain.DeliveryHomeDelivery && strings.TrimSpace(req.Address) == "" {
		h.writeError(w, http.StatusBadRequest, "address is required for home delivery")
		return
	}

	o := domain.Order{
		ClientID:       req.ClientID,
		Total:          req.Total,
		DeliveryMethod: req.DeliveryMethod,
		Address:        req.Address,
	}
	for _, d := range req.OrderDetails {
		if d.Quantity <= 0 {
			h.writeError(w, http.StatusBadRequest, "quantity must be positive")
			return
		}
		if _, err := h.store.Product(d.ProductID); err != nil {
			h.writeError(w, http.StatusNotFound, "Product "+strconv.FormatInt(int64(d.ProductID), 10)+" not found")
			return
		}
		o.Lines = append(o.Lines, domain.OrderLine{ProductID: d.ProductID, Quantity: d.Quantity, UnitPrice: d.Price})
	}

	created := h.store.CreateOrder(o)
	h.logger.Info("order created", "order_id", created.ID, "client_id", created.ClientID, "total", created.Total.StringFixed(2))
	h.writeJSON(w, http.StatusCreated, toOrderJSON(created))
}

func (h *Handler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpListOrders) {
		return
	}
	if !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Administrator only")
		return
	}
	h.writeOrders(w, h.store.Orders(0, true))
}

// HandleOrderSubresource serves GET /orders/client/{clientId} and
// GET /orders/{id}/details, which ServeMux cannot register side by side.
func (h *Handler) HandleOrderSubresource(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "client":
		h.clientOrders(w, r, second)
	case second == "details":
		h.orderDetails(w, r, first)
	default:
		h.writeError(w, http.StatusNotFound, "Not Found")
	}
}

func (h *Handler) clientOrders(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpListOrders) {
		return
	}

	clientID, ok := h.parseID(w, rawID, "client id")
	if !ok {
		return
	}
	if clientID != actor.ID && !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Cannot list orders of another client")
		return
	}
	h.writeOrders(w, h.store.Orders(clientID, false))
}

func (h *Handler) orderDetails(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpOrderDetails) {
		return
	}

	id, ok := h.parseID(w, rawID, "order id")
	if !ok {
		return
	}
	o, ok := h.ownedOrder(w, actor, id)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderDetails(o.Lines))
}

func (h *Handler) HandleCancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpCancelOrder) {
		return
	}

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	restored, err := h.store.CancelOrder(id, actor)
	if err != nil {
		h.writeStoreError(w, err, "order")
		return
	}

	h.logger.Info("order canceled", "order_id", id, "stock_restored", restored)
	h.writeJSON(w, http.StatusOK, cancelJSON{Success: true, OrderID: id, StockRestored: restored})
}

func (h *Handler) HandleDeliverOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpDeliverOrder) {
		return
	}
	if !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Administrator only")
		return
	}

	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.store.DeliverOrder(id)
	if err != nil {
		h.writeStoreError(w, err, "order")
		return
	}

	h.logger.Info("order delivered", "order_id", id)
	h.writeJSON(w, http.StatusOK, toOrderJSON(o))
}

func (h *Handler) HandleBill(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpBill) {
		return
	}

	id, ok := h.pathID(w, r, "orderId")
	if !ok {
		return
	}
	o, ok := h.ownedOrder(w, actor, id)
	if !ok {
		return
	}

	bill, err := h.store.Bill(o.ID)
	if err != nil {
		h.writeStoreError(w, err, "bill")
		return
	}
	h.writeJSON(w, http.StatusOK, bill)
}

func (h *Handler) writeOrders(w http.ResponseWriter, orders []domain.Order) {
	out := make([]orderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderJSON(o))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// ownedOrder loads an order the actor is allowed to see.
func (h *Handler) ownedOrder(w http.ResponseWriter, actor domain.Actor, id int64) (domain.Order, bool) {
	o, err := h.store.Order(id)
	if err != nil {
		h.writeStoreError(w, err, "order")
		return domain.Order{}, false
	}
	if o.ClientID != actor.ID && !actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Not the owner of this order")
		return domain.Order{}, false
	}
	return o, true
}

// authenticate resolves the bearer token. It writes 401 and reports false
// when the token is missing, invalid or expired.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		h.writeError(w, http.StatusUnauthorized, "Not authenticated")
		return domain.Actor{}, false
	}

	clientID, err := h.tokens.Parse(token)
	if err != nil {
		h.logger.Debug("rejected token", "error", err)
		h.writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return domain.Actor{}, false
	}

	actor, ok := h.store.Actor(clientID)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Unknown client")
		return domain.Actor{}, false
	}
	return actor, true
}

// fault applies a queued failure for op. It reports true when a response
// was written.
func (h *Handler) fault(w http.ResponseWriter, op Op) bool {
	f, ok := h.faults.next(op)
	if !ok {
		return false
	}
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	if f.Status == 0 {
		return false
	}

	detail := f.Detail
	if detail == "" {
		detail = http.StatusText(f.Status)
	}
	h.logger.Debug("injected fault", "op", op, "status", f.Status)

	if f.Status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
		h.writeJSON(w, f.Status, map[string]any{"detail": detail, "retry_after": 1})
		return true
	}
	h.writeError(w, f.Status, detail)
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	return h.parseID(w, r.PathValue(name), name)
}

func (h *Handler) parseID(w http.ResponseWriter, raw, name string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, strings.ToUpper(what[:1])+what[1:]+" not found")
	case errors.Is(err, ErrNotOwner):
		h.writeError(w, http.StatusForbidden, "Not the owner of this "+what)
	case errors.Is(err, ErrNotCancelable), errors.Is(err, ErrNotDeliverable), errors.Is(err, ErrInsufficientStock):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyReviewed), errors.Is(err, ErrEmailTaken):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrProtectedAccount):
		h.writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("store operation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeAuth(w http.ResponseWriter, status int, actor domain.Actor) {
	token, err := h.tokens.Issue(actor.ID)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, status, authJSON{AccessToken: token, TokenType: "bearer", Client: toClientJSON(actor)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"detail": message})
}
