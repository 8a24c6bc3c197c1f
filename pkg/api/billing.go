package api

import (
	"net/http"

	"github.com/dmitrymomot/menukit/pkg/billing"
	"github.com/dmitrymomot/menukit/pkg/razorpay"
)

func (h *handlers) razorpayWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, h.maxBody)
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, billing.WebhookResult{Error: msg})
		return
	}

	res := h.Processor.Handle(r.Context(), body, r.Header.Get(razorpay.SignatureHeader))
	status := res.StatusCode
	if status == 0 {
		status = billing.StatusCode(res.Err)
	}
	writeJSON(w, status, res)
}

func (h *handlers) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req billing.CreateIntentRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.Checkout.CreateIntent(r.Context(), req)
	writeJSON(w, billing.StatusCode(res.Err), res)
}

func (h *handlers) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req billing.VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.Verifier.Verify(r.Context(), req)
	writeJSON(w, billing.StatusCode(res.Err), res)
}
