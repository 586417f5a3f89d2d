package customer

import (
	"encoding/json"
	"errors"
	"net/http"

	"bellafatia-be/internal/auth"
	"bellafatia-be/internal/utils"
)

type Handler struct {
	Svc      Service
	Sessions *auth.Manager
}

func NewHandler(svc Service, sessions *auth.Manager) *Handler {
	return &Handler{Svc: svc, Sessions: sessions}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token      string `json:"token"`
	CustomerID uint   `json:"customer_id"`
	Email      string `json:"email"`
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	token, sess, err := h.Svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			utils.WriteJSONError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ErrInvalidEmail):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			utils.WriteJSONError(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}

	h.Sessions.SetCookie(w, token)
	utils.WriteJSON(w, http.StatusCreated, sessionResponse{
		Token:      token,
		CustomerID: sess.CustomerID,
		Email:      sess.Email,
	})
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	token, sess, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteJSONError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	h.Sessions.SetCookie(w, token)
	utils.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:      token,
		CustomerID: sess.CustomerID,
		Email:      sess.Email,
	})
}

// LogoutHandler ends the session explicitly; there is no ambient state to
// clean up anywhere else.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w)
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type profileResponse struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	Complement   string `json:"complement"`
}

func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	c, err := h.Svc.Profile(r.Context(), sess)
	if err != nil {
		utils.WriteJSONError(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, profileResponse{
		Email:        c.Email,
		Name:         c.Name,
		Phone:        c.Phone,
		Address:      c.Address,
		Number:       c.Number,
		Neighborhood: c.Neighborhood,
		Complement:   c.Complement,
	})
}

func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var p Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if err := h.Svc.UpdateProfile(r.Context(), sess, p); err != nil {
		switch {
		case errors.Is(err, ErrInvalidPhone):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrCustomerNotFound):
			utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
		default:
			utils.WriteJSONError(w, "failed to update profile", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
