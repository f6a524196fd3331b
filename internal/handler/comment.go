package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/hallertau/storefront/internal/domain/comment"
)

type createCommentRequest struct {
	ProductID string `json:"productId"`
	Content   string `json:"content"`
	Rating    int    `json:"rating"`
}

// CreateComment posts a review on a product for the authenticated principal.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.comments.CreateComment(r.Context(), userID, comment.CreateCommentRequest{
		ProductID: req.ProductID,
		Content:   req.Content,
		Rating:    req.Rating,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeComment(e, *created)
	})
}

type updateCommentRequest struct {
	Content *string `json:"content"`
	Rating  *int    `json:"rating"`
}

// UpdateComment partially updates the principal's own comment.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.comments.UpdateComment(r.Context(), userID, r.PathValue("id"), comment.UpdateCommentRequest{
		Content: req.Content,
		Rating:  req.Rating,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeComment(e, *updated)
	})
}

// DeleteComment removes the principal's own comment.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.comments.DeleteComment(r.Context(), userID, r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListProductComments returns all reviews for a product, newest first.
func (h *Handler) ListProductComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListByProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range comments {
				encodeComment(e, c)
			}
		})
	})
}
