package fakebackend

import (
	"encoding/json"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func (h *Handler) HandleCreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpReviews) {
		return
	}
	if actor.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "Administrator cannot submit reviews")
		return
	}

	var req reviewInputJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		h.writeError(w, http.StatusUnprocessableEntity, "rating must be between 1 and 5")
		return
	}

	review, err := h.store.CreateReview(domain.Review{
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
		ClientID:  actor.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.writeStoreError(w, err, "review")
		return
	}

	h.logger.Info("review created", "review_id", review.ID, "product_id", review.ProductID)
	h.writeJSON(w, http.StatusCreated, toReviewJSON(review))
}

// HandleProductReviews answers 404 for a product nobody reviewed, like the
// real backend.
func (h *Handler) HandleProductReviews(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, OpReviews) {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	reviews := h.productReviews(domain.ProductID(id))
	if len(reviews) == 0 {
		h.writeError(w, http.StatusNotFound, "No reviews for this product")
		return
	}
	h.writeJSON(w, http.StatusOK, productReviewsJSON{Reviews: toReviewsJSON(reviews), Summary: Summarize(reviews)})
}

func (h *Handler) HandleProductRating(w http.ResponseWriter, r *http.Request) {
	if h.fault(w, OpReviews) {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.store.Product(domain.ProductID(id)); err != nil {
		h.writeStoreError(w, err, "product")
		return
	}
	h.writeJSON(w, http.StatusOK, Summarize(h.productReviews(domain.ProductID(id))))
}

func (h *Handler) HandleMyReviews(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpReviews) {
		return
	}
	reviews := h.store.Reviews(func(rv domain.Review) bool { return rv.ClientID == actor.ID })
	h.writeJSON(w, http.StatusOK, toReviewsJSON(reviews))
}

func (h *Handler) HandleOrderReviews(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpReviews) {
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
	reviews := h.store.Reviews(func(rv domain.Review) bool { return rv.OrderID == o.ID })
	h.writeJSON(w, http.StatusOK, toReviewsJSON(reviews))
}

func (h *Handler) HandleUpdateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpReviews) {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req reviewInputJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		h.writeError(w, http.StatusUnprocessableEntity, "rating must be between 1 and 5")
		return
	}

	review, err := h.store.UpdateReview(id, actor.ID, req.Rating, req.Comment)
	if err != nil {
		h.writeStoreError(w, err, "review")
		return
	}
	h.writeJSON(w, http.StatusOK, toReviewJSON(review))
}

func (h *Handler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if h.fault(w, OpReviews) {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteReview(id, actor.ID); err != nil {
		h.writeStoreError(w, err, "review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productReviews(id domain.ProductID) []domain.Review {
	return h.store.Reviews(func(rv domain.Review) bool { return rv.ProductID == id })
}
