package product

import (
	"net/http"

	"bellafatia-be/internal/utils"
)

type Handler struct {
	Repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{Repo: repo}
}

type productResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url,omitempty"`
}

// MenuHandler lists the available products, optionally filtered by category.
func (h *Handler) MenuHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.Repo.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		utils.WriteJSONError(w, "failed to load menu", http.StatusInternalServerError)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			Category:    p.Category,
			ImageURL:    p.ImageURL,
		})
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}
