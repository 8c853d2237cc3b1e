package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/easymeds/platform/internal/cart"
	"github.com/easymeds/platform/internal/domain"
	"github.com/easymeds/platform/internal/order"
	"github.com/easymeds/platform/internal/payment"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	carts       *cart.Service
	orders      *order.Service
	gateway     payment.Gateway
	validate    *validator.Validate
	logger      *zap.Logger
	deliveryFee float64
	timeout     time.Duration
}

func NewCheckoutHandler(
	carts *cart.Service,
	orders *order.Service,
	gateway payment.Gateway,
	logger *zap.Logger,
	deliveryFee float64,
	timeout time.Duration,
) *CheckoutHandler {
	return &CheckoutHandler{
		carts:       carts,
		orders:      orders,
		gateway:     gateway,
		validate:    validator.New(),
		logger:      logger,
		deliveryFee: deliveryFee,
		timeout:     timeout,
	}
}

type CheckoutRequestDTO struct {
	Name          string `json:"name" validate:"required,min=2"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,min=7"`
	Address       string `json:"address" validate:"required,min=3"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cod online"`
}

type CheckoutResponseDTO struct {
	OrderID       string  `json:"order_id"`
	TotalAmount   float64 `json:"total_amount"`
	DeliveryFee   float64 `json:"delivery_fee"`
	PaymentStatus string  `json:"payment_status"`
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	method := domain.PaymentMethod(req.PaymentMethod)

	// Snapshot before any await point: cart mutations racing the checkout
	// must not alter the order being created.
	lines, err := h.carts.Snapshot(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read cart")
		return
	}
	if len(lines) == 0 {
		respondError(w, http.StatusBadRequest, "empty_cart", "cannot check out an empty cart")
		return
	}

	var subtotal float64
	for _, line := range lines {
		subtotal += line.LineTotal()
	}
	totalAmount := subtotal + h.deliveryFee

	// Online payment is confirmed before the order exists; a failed charge
	// leaves both the ledger and the cart untouched.
	if err := h.gateway.Charge(ctx, method, totalAmount); err != nil {
		switch {
		case errors.Is(err, payment.ErrChargeDeclined):
			respondError(w, http.StatusPaymentRequired, "charge_declined", "payment was declined")
		case errors.Is(err, payment.ErrGatewayUnavailable):
			respondError(w, http.StatusBadGateway, "payment_unavailable", "payment gateway unavailable, try again")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "payment failed")
		}
		return
	}

	customer := domain.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	orderID, err := h.orders.CreateOrder(ctx, lines, customer, method, totalAmount, h.deliveryFee)
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			respondError(w, http.StatusBadRequest, "empty_cart", "cannot check out an empty cart")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create order")
		return
	}

	// Clearing is a deliberate second step: if it fails the order already
	// exists and the customer keeps their selection for inspection.
	if err := h.carts.Clear(ctx, sessionID); err != nil {
		h.logger.Warn("order created but cart clear failed",
			zap.String("request_id", getRequestID(r.Context())),
			zap.String("order_id", orderID),
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		OrderID:       orderID,
		TotalAmount:   totalAmount,
		DeliveryFee:   h.deliveryFee,
		PaymentStatus: string(paymentStatusLabel(method)),
	})
}

func paymentStatusLabel(method domain.PaymentMethod) domain.PaymentStatus {
	if method == domain.PaymentMethodOnline {
		return domain.PaymentStatusPaid
	}
	return domain.PaymentStatusUnpaid
}
