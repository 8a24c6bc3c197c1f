package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/menukit/pkg/feature"
	"github.com/dmitrymomot/menukit/pkg/logger"
	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/subscription"
)

type onboardRequest struct {
	PartnerID string `json:"partner_id" validate:"required,max=128"`
	Country   string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
}

type upgradeRequest struct {
	PlanID         string `json:"plan_id" validate:"required"`
	IsFreePlanUsed bool   `json:"is_free_plan_used"`
}

type featureResponse struct {
	PartnerID string      `json:"partner_id"`
	Feature   feature.Key `json:"feature"`
	Enabled   bool        `json:"enabled"`
}

type paymentsResponse struct {
	Payments []subscription.PaymentRecord `json:"payments"`
}

type plansResponse struct {
	Plans []plan.Plan `json:"plans"`
}

type qrResponse struct {
	QRID      string `json:"qr_id"`
	PartnerID string `json:"partner_id"`
	MenuURL   string `json:"menu_url,omitempty"`
}

// fail writes the mapped error. Server errors are logged with their cause.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed",
			logger.Component("api"),
			logger.Error(err),
		)
	}
	writeError(w, status, msg)
}

func (h *handlers) onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if !h.decode(w, r, &req) {
		return
	}
	partner, err := h.Service.Onboard(r.Context(), req.PartnerID, req.Country)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, partner)
}

func (h *handlers) upgrade(w http.ResponseWriter, r *http.Request) {
	var req upgradeRequest
	if !h.decode(w, r, &req) {
		return
	}
	sub, err := h.Service.Upgrade(r.Context(), chi.URLParam(r, "partnerID"), req.PlanID, req.IsFreePlanUsed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *handlers) getSubscription(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Get(r.Context(), chi.URLParam(r, "partnerID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) hasFeature(w http.ResponseWriter, r *http.Request) {
	key, err := feature.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		h.fail(w, r, ErrInvalidFeature)
		return
	}
	partnerID := chi.URLParam(r, "partnerID")
	writeJSON(w, http.StatusOK, featureResponse{
		PartnerID: partnerID,
		Feature:   key,
		Enabled:   h.Service.HasFeature(r.Context(), partnerID, key),
	})
}

func (h *handlers) listPayments(w http.ResponseWriter, r *http.Request) {
	partnerID := chi.URLParam(r, "partnerID")
	if _, err := h.Service.Get(r.Context(), partnerID); err != nil {
		h.fail(w, r, err)
		return
	}
	payments, err := h.Payments.ListPayments(r.Context(), partnerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentsResponse{Payments: payments})
}

func (h *handlers) assignQR(w http.ResponseWriter, r *http.Request) {
	partnerID := chi.URLParam(r, "partnerID")
	qrID := chi.URLParam(r, "qrID")
	if err := h.QRCodes.AssignQR(r.Context(), qrID, partnerID); err != nil {
		h.fail(w, r, err)
		return
	}

	res := qrResponse{QRID: qrID, PartnerID: partnerID}
	if h.QR != nil {
		res.MenuURL = h.QR.MenuURL(qrID)
	}
	writeJSON(w, http.StatusOK, res)
}

// listPlans returns public plans; ?all=true includes the rest.
func (h *handlers) listPlans(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	plans := make([]plan.Plan, 0)
	for _, p := range h.Catalog.List() {
		if all || p.Public {
			plans = append(plans, p)
		}
	}
	writeJSON(w, http.StatusOK, plansResponse{Plans: plans})
}
