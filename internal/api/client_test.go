package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/fakebackend"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubServer(t *testing.T, status int, body string, header map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"bad request", http.StatusBadRequest, api.ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, api.ErrValidation},
		{"unauthorized", http.StatusUnauthorized, api.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, api.ErrForbidden},
		{"not found", http.StatusNotFound, api.ErrNotFound},
		{"conflict", http.StatusConflict, api.ErrConflict},
		{"rate limited", http.StatusTooManyRequests, api.ErrRateLimited},
		{"server error", http.StatusInternalServerError, api.ErrServer},
		{"bad gateway", http.StatusBadGateway, api.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := stubServer(t, tt.status, `{"detail":"boom"}`, nil)
			client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

			_, err := client.GetProduct(context.Background(), 7)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var se *api.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StatusError, got %T", err)
			}
			if se.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, se.StatusCode)
			}
			if api.Detail(err) != "boom" {
				t.Errorf("expected detail boom, got %q", api.Detail(err))
			}
		})
	}
}

func TestClient_ErrorDetails(t *testing.T) {
	t.Run("validation issue list is flattened", func(t *testing.T) {
		srv := stubServer(t, http.StatusUnprocessableEntity,
			`{"detail":[{"loc":["body","total"],"msg":"field required"},{"loc":["body","address"],"msg":"too long"}]}`, nil)
		client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

		_, err := client.GetProduct(context.Background(), 1)
		if got := api.Detail(err); got != "body.total: field required; body.address: too long" {
			t.Errorf("unexpected detail %q", got)
		}
	})

	t.Run("retry_after from body", func(t *testing.T) {
		srv := stubServer(t, http.StatusTooManyRequests, `{"detail":"slow down","retry_after":7}`, nil)
		client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

		_, err := client.GetProduct(context.Background(), 1)
		wait, ok := api.RetryAfter(err)
		if !ok || wait != 7*time.Second {
			t.Errorf("expected 7s, got %v (%v)", wait, ok)
		}
	})

	t.Run("retry_after from header", func(t *testing.T) {
		srv := stubServer(t, http.StatusTooManyRequests, `{}`, map[string]string{"Retry-After": "3"})
		client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

		_, err := client.GetProduct(context.Background(), 1)
		if wait, _ := api.RetryAfter(err); wait != 3*time.Second {
			t.Errorf("expected 3s, got %v", wait)
		}
	})

	t.Run("retry_after defaults to a minute", func(t *testing.T) {
		srv := stubServer(t, http.StatusTooManyRequests, `not json`, nil)
		client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

		_, err := client.GetProduct(context.Background(), 1)
		if wait, _ := api.RetryAfter(err); wait != time.Minute {
			t.Errorf("expected 1m, got %v", wait)
		}
	})

	t.Run("non rate limit errors have no retry_after", func(t *testing.T) {
		srv := stubServer(t, http.StatusNotFound, `{"detail":"nope"}`, nil)
		client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

		_, err := client.GetProduct(context.Background(), 1)
		if _, ok := api.RetryAfter(err); ok {
			t.Error("expected no retry_after")
		}
	})
}

func TestClient_MalformedResponses(t *testing.T) {
	t.Run("created order without id", func(t *testing.T) {
		srv := stubServer(t, http.StatusCreated, `{"total":20.0,"delivery_method":2,"status":1}`, nil)
		client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

		_, err := client.CreateOrder(context.Background(), api.OrderRequest{ActorID: 1, DeliveryMethod: domain.DeliveryOnHand})
		if !errors.Is(err, api.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("product without stock", func(t *testing.T) {
		srv := stubServer(t, http.StatusOK, `{"id_key":7,"name":"Widget","price":10}`, nil)
		client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

		_, err := client.GetProduct(context.Background(), 7)
		if !errors.Is(err, api.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("unknown delivery method", func(t *testing.T) {
		srv := stubServer(t, http.StatusCreated, `{"id_key":1,"delivery_method":9,"status":1}`, nil)
		client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

		_, err := client.CreateOrder(context.Background(), api.OrderRequest{ActorID: 1, DeliveryMethod: domain.DeliveryOnHand})
		if !errors.Is(err, api.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("stock batch result count mismatch", func(t *testing.T) {
		srv := stubServer(t, http.StatusOK, `{"results":[]}`, nil)
		client := api.NewClient(srv.URL, srv.Client(), nil, discardLogger())

		_, err := client.AdjustStock(context.Background(), []domain.StockDelta{{ProductID: 7, Delta: -1}})
		if !errors.Is(err, api.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})
}

func TestClient_Transport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := api.NewClient(url, http.DefaultClient, nil, discardLogger())
	_, err := client.GetProduct(context.Background(), 7)
	if !errors.Is(err, api.ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestClient_Request(t *testing.T) {
	t.Run("sends bearer token and rounded money", func(t *testing.T) {
		var gotAuth string
		var gotBody []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id_key":555,"client_id_key":7,"total":20.0,"delivery_method":2,"status":1}`))
		}))
		defer srv.Close()

		client := api.NewClient(srv.URL, srv.Client(), api.StaticToken("tok"), discardLogger())
		order, err := client.CreateOrder(context.Background(), api.OrderRequest{
			ActorID:        7,
			Total:          decimal.RequireFromString("20.004"),
			DeliveryMethod: domain.DeliveryOnHand,
			Address:        "In-store pickup: main counter",
			Lines:          []domain.OrderLine{{ProductID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("10.001")}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.ID != 555 {
			t.Errorf("expected order 555, got %d", order.ID)
		}
		if gotAuth != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", gotAuth)
		}
		want := `{"client_id_key":7,"total":20.00,"delivery_method":2,"status":1,"address":"In-store pickup: main counter","order_details":[{"product_id":7,"quantity":2,"price":10.00}]}`
		if string(gotBody) != want {
			t.Errorf("unexpected body:\n got %s\nwant %s", gotBody, want)
		}
	})

	t.Run("anonymous requests carry no authorization", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		}))
		defer srv.Close()

		client := api.NewClient(srv.URL+"/api/v1", srv.Client(), nil, discardLogger())
		h, err := client.Health(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Status != "healthy" {
			t.Errorf("expected healthy, got %q", h.Status)
		}
		if gotAuth != "" {
			t.Errorf("expected no authorization header, got %q", gotAuth)
		}
	})
}

func TestNewHTTPClient_ClampsTimeout(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{time.Second, api.MinTimeout},
		{10 * time.Second, 10 * time.Second},
		{time.Minute, api.MaxTimeout},
	}
	for _, tt := range tests {
		if got := api.NewHTTPClient(tt.in).Timeout; got != tt.want {
			t.Errorf("NewHTTPClient(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

// tokenHolder is a mutable TokenSource for driving the fake backend.
type tokenHolder struct {
	token string
}

func (h *tokenHolder) Token(context.Context) string {
	return h.token
}

func newFakeBackend(t *testing.T) (*fakebackend.Handler, *api.Client, *tokenHolder) {
	t.Helper()
	store := fakebackend.NewStore()
	store.SeedProducts(fakebackend.DefaultCatalog()...)
	h := fakebackend.NewHandler(store, fakebackend.NewTokens([]byte("secret"), time.Hour), discardLogger())
	srv := httptest.NewServer(h.Mux())
	t.Cleanup(srv.Close)

	tokens := &tokenHolder{}
	return h, api.NewClient(srv.URL+fakebackend.APIPrefix, srv.Client(), tokens, discardLogger()), tokens
}

func TestClient_AgainstFakeBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("checkout round trip", func(t *testing.T) {
		_, client, tokens := newFakeBackend(t)

		actor, err := client.Register(ctx, domain.Registration{Name: "Ana", LastName: "Lima", Email: "ana@example.com", Password: "pw"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		tokens.token = actor.AuthToken

		product, err := client.GetProduct(ctx, 7)
		if err != nil {
			t.Fatalf("get product: %v", err)
		}
		if product.Stock != 25 || !product.Price.Equal(decimal.RequireFromString("10")) {
			t.Errorf("unexpected product: %+v", product)
		}

		order, err := client.CreateOrder(ctx, api.OrderRequest{
			ActorID:        actor.ID,
			Total:          decimal.RequireFromString("20"),
			DeliveryMethod: domain.DeliveryOnHand,
			Address:        domain.DeliveryOnHand.PickupAddress(),
			Lines:          []domain.OrderLine{{ProductID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("10")}},
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
		if order.Status != domain.OrderStatusPending || len(order.Lines) != 1 {
			t.Errorf("unexpected order: %+v", order)
		}

		results, err := client.AdjustStock(ctx, []domain.StockDelta{{ProductID: 7, Delta: -2}})
		if err != nil {
			t.Fatalf("adjust stock: %v", err)
		}
		if results[0].Stock != 23 {
			t.Errorf("expected stock 23, got %d", results[0].Stock)
		}

		orders, err := client.OrdersByClient(ctx, actor.ID)
		if err != nil || len(orders) != 1 {
			t.Fatalf("orders by client: %v, %d orders", err, len(orders))
		}

		lines, err := client.OrderDetails(ctx, order.ID)
		if err != nil || len(lines) != 1 || lines[0].Quantity != 2 {
			t.Fatalf("order details: %v, %+v", err, lines)
		}

		bill, err := client.BillForOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("bill: %v", err)
		}
		if bill.OrderID != order.ID || !bill.Total.Equal(decimal.RequireFromString("20")) {
			t.Errorf("unexpected bill: %+v", bill)
		}

		canceled, err := client.CancelOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if canceled.StockRestored != 1 {
			t.Errorf("expected 1 line restored, got %d", canceled.StockRestored)
		}

		_, err = client.CancelOrder(ctx, order.ID)
		if !errors.Is(err, api.ErrValidation) {
			t.Errorf("second cancel: expected ErrValidation, got %v", err)
		}
	})

	t.Run("partial stock failure", func(t *testing.T) {
		_, client, tokens := newFakeBackend(t)
		actor, err := client.Login(ctx, domain.Credentials{Email: fakebackend.AdminEmail, Password: fakebackend.AdminPassword})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		tokens.token = actor.AuthToken

		results, err := client.AdjustStock(ctx, []domain.StockDelta{{ProductID: 7, Delta: -1}, {ProductID: 8, Delta: -2}})
		var partial *api.PartialFailureError
		if !errors.As(err, &partial) {
			t.Fatalf("expected PartialFailureError, got %v", err)
		}
		if !errors.Is(err, api.ErrPartialFailure) {
			t.Error("expected error to unwrap to ErrPartialFailure")
		}
		if len(partial.Failed) != 1 || partial.Failed[0].ProductID != 8 {
			t.Errorf("unexpected failures: %+v", partial.Failed)
		}
		if len(results) != 2 || !results[0].Success {
			t.Errorf("unexpected results: %+v", results)
		}
	})

	t.Run("reviews", func(t *testing.T) {
		_, client, tokens := newFakeBackend(t)

		empty, err := client.ProductReviews(ctx, 7)
		if err != nil {
			t.Fatalf("product reviews: %v", err)
		}
		if len(empty.Reviews) != 0 || empty.Summary.ReviewCount != 0 {
			t.Errorf("expected empty listing, got %+v", empty)
		}

		actor, err := client.Register(ctx, domain.Registration{Name: "Ana", Email: "ana@example.com", Password: "pw"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		tokens.token = actor.AuthToken
		order, err := client.CreateOrder(ctx, api.OrderRequest{
			ActorID:        actor.ID,
			Total:          decimal.RequireFromString("3.50"),
			DeliveryMethod: domain.DeliveryDriveThru,
			Address:        domain.DeliveryDriveThru.PickupAddress(),
			Lines:          []domain.OrderLine{{ProductID: 8, Quantity: 1, UnitPrice: decimal.RequireFromString("3.50")}},
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}

		review, err := client.CreateReview(ctx, api.ReviewInput{ProductID: 8, OrderID: order.ID, Rating: 5, Comment: "great"})
		if err != nil {
			t.Fatalf("create review: %v", err)
		}
		if _, err := client.CreateReview(ctx, api.ReviewInput{ProductID: 8, OrderID: order.ID, Rating: 3}); !errors.Is(err, api.ErrConflict) {
			t.Errorf("duplicate review: expected ErrConflict, got %v", err)
		}

		updated, err := client.UpdateReview(ctx, review.ID, api.ReviewUpdate{Rating: 4, Comment: "good"})
		if err != nil || updated.Rating != 4 {
			t.Fatalf("update review: %v, %+v", err, updated)
		}

		summary, err := client.ProductRating(ctx, 8)
		if err != nil {
			t.Fatalf("rating: %v", err)
		}
		if summary.ReviewCount != 1 || summary.RatingDistribution[4] != 1 {
			t.Errorf("unexpected summary: %+v", summary)
		}

		mine, err := client.MyReviews(ctx)
		if err != nil || len(mine) != 1 {
			t.Fatalf("my reviews: %v, %d", err, len(mine))
		}

		if err := client.DeleteReview(ctx, review.ID); err != nil {
			t.Fatalf("delete review: %v", err)
		}
		forOrder, err := client.OrderReviews(ctx, order.ID)
		if err != nil || len(forOrder) != 0 {
			t.Errorf("order reviews after delete: %v, %d", err, len(forOrder))
		}
	})

	t.Run("injected faults surface as typed errors", func(t *testing.T) {
		h, client, _ := newFakeBackend(t)
		h.Inject(fakebackend.OpGetProduct, fakebackend.Fault{Status: http.StatusTooManyRequests})

		_, err := client.GetProduct(ctx, 7)
		if !errors.Is(err, api.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
		if wait, _ := api.RetryAfter(err); wait != time.Second {
			t.Errorf("expected 1s, got %v", wait)
		}
	})

	t.Run("expired session is unauthorized", func(t *testing.T) {
		_, client, tokens := newFakeBackend(t)
		tokens.token = "garbage"

		valid, err := client.VerifyToken(ctx)
		if !errors.Is(err, api.ErrUnauthorized) || valid {
			t.Errorf("expected ErrUnauthorized, got %v (%v)", err, valid)
		}
	})
}
