package fakebackend

import (
	"net/http"

	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// APIPrefix is where the REST contract is mounted; /health stays at the root.
const APIPrefix = "/api/v1"

// Register mounts every endpoint of the contract on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(fn))
	}
	api := func(method, path string, fn http.HandlerFunc) {
		route(method+" "+APIPrefix+path, fn)
	}

	route("GET /health", h.HandleHealth)

	api(http.MethodPost, "/auth/login", h.HandleLogin)
	api(http.MethodPost, "/auth/register", h.HandleRegister)
	api(http.MethodGet, "/auth/verify", h.HandleVerify)

	api(http.MethodGet, "/clients/me", h.HandleMyProfile)
	api(http.MethodGet, "/clients", h.HandleListClients)
	api(http.MethodGet, "/clients/search", h.HandleSearchClients)
	api(http.MethodGet, "/clients/{id}", h.HandleGetClient)
	api(http.MethodPut, "/clients/{id}", h.HandleUpdateClient)
	api(http.MethodDelete, "/clients/{id}", h.HandleDeleteClient)

	api(http.MethodGet, "/addresses/client/{clientId}", h.HandleClientAddresses)
	api(http.MethodGet, "/addresses/store", h.HandleStoreAddress)
	api(http.MethodPost, "/addresses", h.HandleCreateAddress)

	api(http.MethodGet, "/categories", h.HandleListCategories)

	api(http.MethodGet, "/products", h.HandleListProducts)
	api(http.MethodGet, "/products/{id}", h.HandleGetProduct)
	api(http.MethodPut, "/products/{id}", h.HandleSetStock)
	api(http.MethodPost, "/products/stock/batch", h.HandleAdjustStock)

	api(http.MethodPost, "/orders", h.HandleCreateOrder)
	api(http.MethodGet, "/orders", h.HandleListOrders)
	api(http.MethodGet, "/orders/{first}/{second}", h.HandleOrderSubresource)
	api(http.MethodPut, "/orders/{id}/cancel", h.HandleCancelOrder)
	api(http.MethodPut, "/orders/{id}/deliver", h.HandleDeliverOrder)

	api(http.MethodGet, "/bills/order/{orderId}", h.HandleBill)

	api(http.MethodPost, "/reviews", h.HandleCreateReview)
	api(http.MethodGet, "/reviews/me", h.HandleMyReviews)
	api(http.MethodGet, "/reviews/product/{id}", h.HandleProductReviews)
	api(http.MethodGet, "/reviews/product/{id}/rating", h.HandleProductRating)
	api(http.MethodGet, "/reviews/order/{orderId}", h.HandleOrderReviews)
	api(http.MethodPut, "/reviews/{id}", h.HandleUpdateReview)
	api(http.MethodDelete, "/reviews/{id}", h.HandleDeleteReview)
}

// Mux returns a ServeMux with every endpoint registered.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}
