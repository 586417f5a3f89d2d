package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bellafatia-be/internal/logger"

	"go.uber.org/zap"
)

const mercadoPagoBaseURL = "https://api.mercadopago.com"

// Mercado Pago serializes expirations with milliseconds and a numeric
// offset, e.g. 2024-05-01T18:30:00.000-03:00.
const mpTimeLayout = "2006-01-02T15:04:05.000-07:00"

type mercadoPagoGateway struct {
	accessToken  string
	webhookToken string
	httpClient   *http.Client
	baseURL      string
}

func NewMercadoPagoGateway(accessToken, webhookToken string) Gateway {
	if accessToken == "" {
		logger.L().Warn("Mercado Pago access token is empty")
	}

	return &mercadoPagoGateway{
		accessToken:  accessToken,
		webhookToken: webhookToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: mercadoPagoBaseURL,
	}
}

type mpPaymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	ExternalReference  string      `json:"external_reference"`
	DateOfExpiration   string      `json:"date_of_expiration"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

func (g *mercadoPagoGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if g.accessToken == "" {
		return nil, ErrNotConfigured
	}

	log := logger.FromCtx(ctx).With(
		zap.String("order_id", req.OrderID),
		zap.String("amount", req.Amount.String()),
	)

	amount, _ := req.Amount.Round(2).Float64()
	body := map[string]interface{}{
		"transaction_amount": amount,
		"description":        req.Description,
		"payment_method_id":  "pix",
		"external_reference": req.OrderID,
		"date_of_expiration": req.ExpiresAt.Format(mpTimeLayout),
		"payer": map[string]interface{}{
			"email":      req.PayerEmail,
			"first_name": req.PayerName,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/v1/payments", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Idempotency-Key", req.IdempotencyKey)

	log.Info("requesting PIX charge")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		log.Error("gateway request failed", zap.Error(err))
		return nil, fmt.Errorf("mercado pago request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mercado pago response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("gateway rejected charge",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, &GatewayError{Kind: KindRejected, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var res mpPaymentResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return nil, &GatewayError{Kind: KindProtocol, StatusCode: resp.StatusCode, Body: "undecodable response body"}
	}

	data := res.PointOfInteraction.TransactionData
	if data.QRCode == "" {
		log.Error("gateway response missing charge payload", zap.ByteString("response", bodyBytes))
		return nil, &GatewayError{Kind: KindProtocol, StatusCode: resp.StatusCode, Body: "response missing qr_code"}
	}

	expiresAt := req.ExpiresAt
	if res.DateOfExpiration != "" {
		if parsed, perr := parseMPTime(res.DateOfExpiration); perr == nil {
			expiresAt = parsed
		}
	}

	log.Info("PIX charge created",
		zap.String("transaction_id", res.ID.String()),
		zap.String("status", res.Status),
	)

	return &Charge{
		TransactionID: res.ID.String(),
		CopyPasteCode: data.QRCode,
		QRCodeBase64:  data.QRCodeBase64,
		TicketURL:     data.TicketURL,
		ExpiresAt:     expiresAt,
		Status:        res.Status,
	}, nil
}

func (g *mercadoPagoGateway) GetPayment(ctx context.Context, transactionID string) (*Transaction, error) {
	if g.accessToken == "" {
		return nil, ErrNotConfigured
	}

	log := logger.FromCtx(ctx).With(zap.String("transaction_id", transactionID))

	url := fmt.Sprintf("%s/v1/payments/%s", g.baseURL, transactionID)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		log.Error("gateway request failed", zap.Error(err))
		return nil, fmt.Errorf("mercado pago request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mercado pago response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("gateway returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, &GatewayError{Kind: KindRejected, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var res mpPaymentResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return nil, &GatewayError{Kind: KindProtocol, StatusCode: resp.StatusCode, Body: "undecodable response body"}
	}

	return &Transaction{
		ID:                res.ID.String(),
		Status:            res.Status,
		ExternalReference: res.ExternalReference,
		Raw:               json.RawMessage(bodyBytes),
	}, nil
}

func (g *mercadoPagoGateway) VerifyNotification(r *http.Request) error {
	if g.webhookToken == "" {
		return nil // skip in dev
	}

	if r.Header.Get("x-webhook-token") != g.webhookToken {
		return errors.New("invalid webhook token")
	}
	return nil
}

func parseMPTime(s string) (time.Time, error) {
	if t, err := time.Parse(mpTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
