package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"procura.io/internal/auth"
	"procura.io/internal/award"
	"procura.io/internal/obs"
)

type awardLinesRequest struct {
	Awards []award.LineAward `json:"awards"`
	// CreatePO defaults to true on the award-lines endpoint.
	CreatePO *bool `json:"create_po,omitempty"`
}

type convertRequest struct {
	AwardIDs []string `json:"award_ids"`
}

type awardsResponse struct {
	Awards []award.Award `json:"awards"`
}

type purchaseOrdersResponse struct {
	PurchaseOrders []award.PurchaseOrder `json:"purchase_orders"`
}

func (a *API) awardLines(w http.ResponseWriter, r *http.Request) {
	var req awardLinesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	inline := req.CreatePO == nil || *req.CreatePO
	a.award(w, r, req.Awards, inline, http.StatusCreated)
}

func (a *API) createAwards(w http.ResponseWriter, r *http.Request) {
	var req awardLinesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.CreatePO != nil && *req.CreatePO {
		writeError(w, r, http.StatusBadRequest, "create_po is only supported on award-lines")
		return
	}
	a.award(w, r, req.Awards, false, http.StatusOK)
}

func (a *API) award(w http.ResponseWriter, r *http.Request, pairs []award.LineAward, inline bool, code int) {
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		handleAwardError(w, r, award.ErrTenantRequired)
		return
	}
	res, err := a.awards.AwardLines(r.Context(), t, chi.URLParam(r, "rfqID"), pairs,
		award.AwardOptions{CreatePurchaseOrders: inline})
	if err != nil {
		handleAwardError(w, r, err)
		return
	}
	if !inline {
		writeJSON(w, code, awardsResponse{Awards: res.Awards})
		return
	}
	writeJSON(w, code, res)
}

func (a *API) listAwards(w http.ResponseWriter, r *http.Request) {
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		handleAwardError(w, r, award.ErrTenantRequired)
		return
	}
	awards, err := a.awards.ListAwards(r.Context(), t, chi.URLParam(r, "rfqID"))
	if err != nil {
		handleAwardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, awardsResponse{Awards: nonNil(awards)})
}

func (a *API) getRFQ(w http.ResponseWriter, r *http.Request) {
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		handleAwardError(w, r, award.ErrTenantRequired)
		return
	}
	rfq, err := a.awards.GetRFQ(r.Context(), t, chi.URLParam(r, "rfqID"))
	if err != nil {
		handleAwardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfq)
}

func (a *API) deleteAward(w http.ResponseWriter, r *http.Request) {
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		handleAwardError(w, r, award.ErrTenantRequired)
		return
	}
	remaining, err := a.awards.DeleteAward(r.Context(), t, chi.URLParam(r, "awardID"))
	if err != nil {
		handleAwardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, awardsResponse{Awards: nonNil(remaining)})
}

func (a *API) convertAwards(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		handleAwardError(w, r, award.ErrTenantRequired)
		return
	}
	pos, err := a.awards.ConvertAwards(r.Context(), t, req.AwardIDs)
	if err != nil {
		handleAwardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchaseOrdersResponse{PurchaseOrders: pos})
}

func (a *API) getPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		handleAwardError(w, r, award.ErrTenantRequired)
		return
	}
	po, err := a.awards.GetPurchaseOrder(r.Context(), t, chi.URLParam(r, "poID"))
	if err != nil {
		handleAwardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (a *API) cancelPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		handleAwardError(w, r, award.ErrTenantRequired)
		return
	}
	po, err := a.awards.CancelPurchaseOrder(r.Context(), t, chi.URLParam(r, "poID"))
	if err != nil {
		handleAwardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (a *API) publishRFQ(w http.ResponseWriter, r *http.Request) {
	a.transitionRFQ(w, r, a.awards.PublishRFQ)
}

func (a *API) closeRFQ(w http.ResponseWriter, r *http.Request) {
	a.transitionRFQ(w, r, a.awards.CloseRFQ)
}

func (a *API) cancelRFQ(w http.ResponseWriter, r *http.Request) {
	a.transitionRFQ(w, r, a.awards.CancelRFQ)
}

type rfqTransition func(ctx context.Context, t award.Tenant, rfqID string) (award.RFQ, error)

func (a *API) transitionRFQ(w http.ResponseWriter, r *http.Request, fn rfqTransition) {
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		handleAwardError(w, r, award.ErrTenantRequired)
		return
	}
	rfq, err := fn(r.Context(), t, chi.URLParam(r, "rfqID"))
	if err != nil {
		handleAwardError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfq)
}

func nonNil(awards []award.Award) []award.Award {
	if awards == nil {
		return []award.Award{}
	}
	return awards
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleAwardError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *award.ValidationError
	switch {
	case errors.As(err, &ve):
		writeErrorBody(w, r, http.StatusUnprocessableEntity, errorBody{Error: ve.Error(), Field: ve.Field, IDs: ve.IDs})
	case errors.Is(err, award.ErrDeadlinePassed):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, award.ErrAlreadyAwarded):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, award.ErrRFQNotOpen),
		errors.Is(err, award.ErrInvalidTransition),
		errors.Is(err, award.ErrPurchaseOrderCancelled):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, award.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, award.ErrTenantRequired):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	default:
		obs.FromContext(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

type errorBody struct {
	Error     string   `json:"error"`
	Field     string   `json:"field,omitempty"`
	IDs       []string `json:"ids,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeErrorBody(w, r, code, errorBody{Error: msg})
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, code int, body errorBody) {
	body.RequestID = obs.RequestIDFromContext(r.Context())
	writeJSON(w, code, body)
}
