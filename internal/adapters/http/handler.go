package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/twistlabs/influencer-staking/internal/application"
	"github.com/twistlabs/influencer-staking/internal/contracts"
)

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

func (h *Handler) createPool(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	pool, err := h.service.CreatePool(r.Context(), actorFromContext(r.Context()), application.CreatePoolInput{
		InfluencerID:    req.InfluencerID,
		RevenueShareBps: req.RevenueShareBps,
		MinStake:        req.MinStake,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusCreated, pool)
}

func (h *Handler) getPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.service.GetPool(r.Context(), chi.URLParam(r, "pool_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, pool)
}

func (h *Handler) listPools(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	out, err := h.service.ListPools(r.Context(), limit, offset)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"items":      out.Items,
		"pagination": contracts.Pagination{Limit: limit, Offset: offset, Total: out.Total},
	})
}

func (h *Handler) updateRevenueShare(w http.ResponseWriter, r *http.Request) {
	var req contracts.UpdateRevenueShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	pool, err := h.service.UpdateRevenueShare(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "pool_id"), req.RevenueShareBps)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, pool)
}

func (h *Handler) getApy(w http.ResponseWriter, r *http.Request) {
	pool, err := h.service.GetPool(r.Context(), chi.URLParam(r, "pool_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"pool_id": pool.PoolID,
		"apy_bps": pool.CurrentApyBps,
		"apy":     float64(pool.CurrentApyBps) / 100,
	})
}

func (h *Handler) refreshApy(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.RefreshApy(r.Context(), chi.URLParam(r, "pool_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) stake(w http.ResponseWriter, r *http.Request) {
	var req contracts.StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	actor := actorFromContext(r.Context())
	if req.UserID == "" {
		req.UserID = actor.SubjectID
	}
	out, err := h.service.Stake(r.Context(), actor, application.StakeInput{
		PoolID: chi.URLParam(r, "pool_id"),
		UserID: req.UserID,
		Amount: req.Amount,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) unstake(w http.ResponseWriter, r *http.Request) {
	var req contracts.UnstakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	actor := actorFromContext(r.Context())
	if req.UserID == "" {
		req.UserID = actor.SubjectID
	}
	out, err := h.service.Unstake(r.Context(), actor, application.StakeInput{
		PoolID: chi.URLParam(r, "pool_id"),
		UserID: req.UserID,
		Amount: req.Amount,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) claimRewards(w http.ResponseWriter, r *http.Request) {
	var req contracts.ClaimRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	actor := actorFromContext(r.Context())
	if req.UserID == "" {
		req.UserID = actor.SubjectID
	}
	out, err := h.service.ClaimRewards(r.Context(), actor, chi.URLParam(r, "pool_id"), req.UserID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) getStake(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetStake(r.Context(), chi.URLParam(r, "pool_id"), chi.URLParam(r, "user_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) listPoolStakes(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	out, err := h.service.ListPoolStakes(r.Context(), chi.URLParam(r, "pool_id"), limit, offset)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"items":      out.Items,
		"pagination": contracts.Pagination{Limit: limit, Offset: offset, Total: out.Total},
	})
}

func (h *Handler) listUserStakes(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListUserStakes(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) recordTouchpoint(w http.ResponseWriter, r *http.Request) {
	var req contracts.RecordTouchpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	out, err := h.service.RecordTouchpoint(r.Context(), application.RecordTouchpointInput{
		InfluencerID: req.InfluencerID,
		LinkCode:     req.LinkCode,
		UserID:       req.UserID,
		ProductID:    req.ProductID,
		ClickedAt:    req.ClickedAt,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusCreated, out)
}

func (h *Handler) processConversion(w http.ResponseWriter, r *http.Request) {
	var req contracts.ProcessConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	out, err := h.service.ProcessConversion(r.Context(), application.ProcessConversionInput{
		ConversionID: req.ConversionID,
		UserID:       req.UserID,
		ProductID:    req.ProductID,
		Amount:       req.Amount,
		OccurredAt:   req.OccurredAt,
		Model:        req.Model,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}
	writeSuccess(w, status, out)
}

func (h *Handler) getAttribution(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetAttribution(r.Context(), chi.URLParam(r, "conversion_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) listInfluencerAttributions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	records, total, err := h.service.ListInfluencerAttributions(r.Context(), chi.URLParam(r, "influencer_id"), limit, offset)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"items":      records,
		"pagination": contracts.Pagination{Limit: limit, Offset: offset, Total: total},
	})
}

func (h *Handler) distribute(w http.ResponseWriter, r *http.Request) {
	var req contracts.DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
		return
	}
	out, err := h.service.Distribute(r.Context(), application.DistributeInput{
		PoolID:         req.PoolID,
		EarningAmount:  req.EarningAmount,
		DistributionID: req.DistributionID,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) getDistribution(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetDistribution(r.Context(), chi.URLParam(r, "distribution_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) listDistributions(w http.ResponseWriter, r *http.Request) {
	windowDays, _ := strconv.Atoi(r.URL.Query().Get("window_days"))
	items, err := h.service.ListDistributions(r.Context(), chi.URLParam(r, "pool_id"), windowDays)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"items": items})
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
