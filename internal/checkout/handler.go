package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bellafatia-be/internal/auth"
	"bellafatia-be/internal/order"
	"bellafatia-be/internal/payment"
	"bellafatia-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handler struct {
	Svc  Service
	Logs payment.Repository
}

func NewHandler(svc Service, logs payment.Repository) *Handler {
	return &Handler{Svc: svc, Logs: logs}
}

type checkoutRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	Complement   string `json:"complement,omitempty"`
	Notes        string `json:"notes,omitempty"`

	PaymentMethod string `json:"payment_method"`
	ChangeFor     string `json:"change_for,omitempty"`

	Items []struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	} `json:"items"`
}

type pixChargeResponse struct {
	PixCopiaECola  string    `json:"pixCopiaECola"`
	QRCodeBase64   string    `json:"qrCodeBase64,omitempty"`
	TicketURL      string    `json:"ticketUrl,omitempty"`
	ExpirationDate time.Time `json:"expirationDate"`
}

type checkoutResponse struct {
	OrderID     string             `json:"order_id"`
	Status      string             `json:"status"`
	TotalPrice  string             `json:"total_price"`
	Pix         *pixChargeResponse `json:"pix,omitempty"`
	WhatsAppURL string             `json:"whatsapp_url,omitempty"`
}

func (h *Handler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	input := Input{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Number:        req.Number,
		Neighborhood:  req.Neighborhood,
		Complement:    req.Complement,
		Notes:         req.Notes,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
	}
	if req.ChangeFor != "" {
		change, err := decimal.NewFromString(req.ChangeFor)
		if err != nil {
			utils.WriteJSONError(w, "invalid change_for amount", http.StatusBadRequest)
			return
		}
		input.ChangeFor = &change
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		input.CustomerID = &sess.CustomerID
		if input.Email == "" {
			input.Email = sess.Email
		}
	}

	result, err := h.Svc.Checkout(r.Context(), input)
	if err != nil {
		h.writeCheckoutError(w, result, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, toCheckoutResponse(result))
}

func (h *Handler) OrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	status, err := h.Svc.OrderStatus(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			utils.WriteJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "failed to check status", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"orderId": orderID.String(),
		"status":  string(status),
	})
}

func (h *Handler) RetryPaymentHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	charge, err := h.Svc.RetryPayment(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			utils.WriteJSONError(w, "order not found", http.StatusNotFound)
		case errors.Is(err, ErrNotPix), errors.Is(err, ErrOrderClosed):
			utils.WriteJSONError(w, err.Error(), http.StatusConflict)
		default:
			h.writeGatewayError(w, err)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, &pixChargeResponse{
		PixCopiaECola:  charge.CopyPasteCode,
		QRCodeBase64:   charge.QRCodeBase64,
		TicketURL:      charge.TicketURL,
		ExpirationDate: charge.ExpiresAt,
	})
}

// PaymentLogsHandler exposes the append-only audit trail for an order.
func (h *Handler) PaymentLogsHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	logs, err := h.Logs.LogsByOrder(r.Context(), orderID.String())
	if err != nil {
		utils.WriteJSONError(w, "failed to load payment logs", http.StatusInternalServerError)
		return
	}

	type logEntry struct {
		Provider      string          `json:"provider"`
		TransactionID string          `json:"transaction_id,omitempty"`
		Status        string          `json:"status"`
		Payload       json.RawMessage `json:"payload,omitempty"`
		CreatedAt     time.Time       `json:"created_at"`
	}

	entries := make([]logEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, logEntry{
			Provider:      l.Provider,
			TransactionID: l.TransactionID,
			Status:        l.Status,
			Payload:       l.Payload,
			CreatedAt:     l.CreatedAt,
		})
	}

	utils.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, result *Result, err error) {
	switch {
	case errors.Is(err, ErrOrderCreation):
		utils.WriteJSONError(w, "failed to create order", http.StatusInternalServerError)
	case errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrInvalidPhone),
		errors.Is(err, ErrInvalidNumber),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrNoItems),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrUnknownMethod):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		// Order persisted but payment setup failed: tell the client which
		// order to retry against.
		if result != nil {
			utils.WriteJSON(w, http.StatusBadGateway, map[string]string{
				"error":    "payment setup failed",
				"order_id": result.OrderID.String(),
			})
			return
		}
		h.writeGatewayError(w, err)
	}
}

func (h *Handler) writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrNotConfigured):
		utils.WriteJSONError(w, "payment is not configured", http.StatusServiceUnavailable)
	case payment.IsProtocol(err):
		utils.WriteJSONError(w, "payment unavailable", http.StatusBadGateway)
	case payment.IsRejected(err):
		utils.WriteJSONError(w, "payment setup failed", http.StatusBadGateway)
	default:
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func toCheckoutResponse(result *Result) checkoutResponse {
	resp := checkoutResponse{
		OrderID:     result.OrderID.String(),
		Status:      string(result.Status),
		TotalPrice:  result.TotalPrice.StringFixed(2),
		WhatsAppURL: result.WhatsAppURL,
	}
	if result.Pix != nil {
		resp.Pix = &pixChargeResponse{
			PixCopiaECola:  result.Pix.CopyPasteCode,
			QRCodeBase64:   result.Pix.QRCodeBase64,
			TicketURL:      result.Pix.TicketURL,
			ExpirationDate: result.Pix.ExpiresAt,
		}
	}
	return resp
}
