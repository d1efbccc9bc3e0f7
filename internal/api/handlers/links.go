package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-tracker/internal/api/middleware"
	"github.com/dvloznov/upi-tracker/internal/qrcode"
	"github.com/dvloznov/upi-tracker/internal/upi"
)

// LinksHandler exposes the link codec. It is stateless.
type LinksHandler struct{}

// NewLinksHandler creates a links handler.
func NewLinksHandler() *LinksHandler {
	return &LinksHandler{}
}

type linkRequest struct {
	URI string `json:"uri"`
}

// Parse handles POST /api/links/parse
func (h *LinksHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	intent, err := upi.Parse(req.URI)
	if err != nil {
		var failure *upi.ParseFailure
		if errors.As(err, &failure) {
			middleware.WriteJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": failure.Error(),
				"kind":  string(failure.Kind),
			})
			return
		}
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, intent)
}

type buildRequest struct {
	PayeeAddress string              `json:"payeeAddress"`
	PayeeName    string              `json:"payeeName"`
	Amount       decimal.NullDecimal `json:"amount"`
	Note         string              `json:"note"`
}

// Build handles POST /api/links/build
func (h *LinksHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !upi.ValidateHandle(req.PayeeAddress) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid UPI ID")
		return
	}
	name := strings.TrimSpace(req.PayeeName)
	if name == "" {
		name = upi.UnknownPayee
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"uri": upi.BuildLink(upi.FormatHandle(req.PayeeAddress), name, req.Amount, req.Note),
	})
}

type modifyRequest struct {
	URI    string              `json:"uri"`
	Amount decimal.NullDecimal `json:"amount"`
	// Note is tri-state: absent keeps tn, "" removes it.
	Note *string `json:"note"`
}

// Modify handles POST /api/links/modify
func (h *LinksHandler) Modify(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"uri":        upi.ModifyLink(req.URI, req.Amount, req.Note),
		"isMerchant": upi.IsMerchantLink(req.URI),
	})
}

// Validate handles GET /api/links/validate?handle=
func (h *LinksHandler) Validate(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("handle")
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"valid":     upi.ValidateHandle(handle),
		"formatted": upi.FormatHandle(handle),
	})
}

type qrRequest struct {
	URI  string `json:"uri"`
	Size int    `json:"size"`
}

// QRCode handles POST /api/links/qr and returns a PNG.
func (h *LinksHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	var req qrRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Size <= 0 || req.Size > 2048 {
		req.Size = qrcode.DefaultSize
	}

	png, err := qrcode.Encode(req.URI, req.Size)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Cannot encode QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
