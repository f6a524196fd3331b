package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/hallertau/storefront/internal/domain/product"
)

// pageFromQuery reads page/size query parameters. Out-of-range values are
// clamped, absent ones defaulted.
func pageFromQuery(r *http.Request) product.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	return product.Page{Number: page, Size: size}.Clamp()
}

// ListProducts returns one page of active products. An optional search query
// filters by name or description.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	search := r.URL.Query().Get("search")

	products, total, err := h.products.List(r.Context(), page, search)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodePage(e, "products", total, page.Number, page.Size, func(e *jx.Encoder) {
			for _, p := range products {
				encodeProduct(e, p)
			}
		})
	})
}

// GetProduct returns a single active product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeProduct(e, *p)
	})
}

// ListCategories returns the distinct categories of active products.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range categories {
				e.Str(c)
			}
		})
	})
}
