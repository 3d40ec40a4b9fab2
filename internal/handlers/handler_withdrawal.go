package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/SscSPs/partner_settlement_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// withdrawalHandler handles HTTP requests related to partner withdrawals.
type withdrawalHandler struct {
	withdrawalService portssvc.WithdrawalSvcFacade
}

func newWithdrawalHandler(ws portssvc.WithdrawalSvcFacade) *withdrawalHandler {
	return &withdrawalHandler{withdrawalService: ws}
}

// RegisterWithdrawalRoutes registers routes related to withdrawals.
func RegisterWithdrawalRoutes(rg *gin.RouterGroup, withdrawalService portssvc.WithdrawalSvcFacade) {
	h := newWithdrawalHandler(withdrawalService)

	withdrawals := rg.Group("/withdrawals")
	{
		withdrawals.POST("", h.submitWithdrawal)
		withdrawals.GET("", h.listWithdrawals)
		withdrawals.GET("/:id", h.getWithdrawal)
		withdrawals.POST("/:id/start-review", h.simpleAction("start review", withdrawalService.StartReview))
		withdrawals.POST("/:id/review", h.reviewWithdrawal)
		withdrawals.POST("/:id/close", h.closeWithdrawal)
		withdrawals.POST("/:id/pay", h.simpleAction("initiate payment", withdrawalService.InitiatePayment))
		withdrawals.POST("/:id/succeed", h.simpleAction("mark payment succeeded", withdrawalService.MarkPaymentSucceeded))
		withdrawals.POST("/:id/fail", h.markFailed)
		withdrawals.POST("/:id/retry", h.simpleAction("retry payment", withdrawalService.RetryWithdrawalPayment))

		batch := withdrawals.Group("/batch")
		batch.POST("/review", h.batchReview)
		batch.POST("/retry", h.batchIDs("retry", withdrawalService.BatchRetry))
		batch.POST("/pay", h.batchIDs("pay", withdrawalService.BatchInitiatePayment))
	}
}

// submitWithdrawal godoc
// @Summary Submit a withdrawal request
// @Description Reserves part of the partner's payable balance for review
// @Tags withdrawals
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   request body dto.SubmitWithdrawalRequest true "Withdrawal"
// @Success 201 {object} dto.WithdrawalResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 422 {object} dto.ErrorResponse "Amount exceeds the available balance"
// @Router /withdrawals [post]
func (h *withdrawalHandler) submitWithdrawal(c *gin.Context) {
	var req dto.SubmitWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	w, err := h.withdrawalService.SubmitWithdrawal(c.Request.Context(), req, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to submit withdrawal")
		return
	}
	c.JSON(http.StatusCreated, dto.ToWithdrawalResponse(w))
}

// listWithdrawals godoc
// @Summary List withdrawal requests
// @Tags withdrawals
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   partnerID query string false "Partner"
// @Param   status query string false "Withdrawal status"
// @Param   limit query int false "Page size"
// @Param   offset query int false "Offset"
// @Success 200 {array} dto.WithdrawalResponse
// @Router /withdrawals [get]
func (h *withdrawalHandler) listWithdrawals(c *gin.Context) {
	var params dto.ListWithdrawalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	ws, err := h.withdrawalService.ListWithdrawals(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list withdrawals")
		return
	}
	c.JSON(http.StatusOK, dto.ToWithdrawalResponses(ws))
}

// getWithdrawal godoc
// @Summary Get a withdrawal request
// @Tags withdrawals
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   id path string true "Withdrawal ID"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 404 {object} dto.ErrorResponse "Withdrawal not found"
// @Router /withdrawals/{id} [get]
func (h *withdrawalHandler) getWithdrawal(c *gin.Context) {
	w, err := h.withdrawalService.GetWithdrawal(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve withdrawal")
		return
	}
	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(w))
}

// simpleAction serves a state change that takes no body.
// @Summary Move a withdrawal to its next state
// @Description start-review, pay, succeed and retry share this shape
// @Tags withdrawals
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   id path string true "Withdrawal ID"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 404 {object} dto.ErrorResponse "Withdrawal not found"
// @Failure 409 {object} dto.ErrorResponse "Illegal transition"
// @Router /withdrawals/{id}/pay [post]
func (h *withdrawalHandler) simpleAction(name string, action func(ctx context.Context, withdrawalID, operator string) (*domain.Withdrawal, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		w, err := action(c.Request.Context(), id, operatorFrom(c))
		if err != nil {
			respondError(c, err, "Failed to "+name)
			return
		}
		middleware.GetLoggerFromContext(c).Info("Withdrawal updated",
			slog.String("withdrawal_id", id),
			slog.String("action", name),
			slog.String("status", string(w.Status)))
		c.JSON(http.StatusOK, dto.ToWithdrawalResponse(w))
	}
}

// reviewWithdrawal godoc
// @Summary Approve or reject a withdrawal
// @Description Rejection needs a reason of at least the configured length
// @Tags withdrawals
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   id path string true "Withdrawal ID"
// @Param   request body dto.ReviewWithdrawalRequest true "Decision"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 400 {object} dto.ErrorResponse "Reason too short"
// @Failure 409 {object} dto.ErrorResponse "Illegal transition"
// @Router /withdrawals/{id}/review [post]
func (h *withdrawalHandler) reviewWithdrawal(c *gin.Context) {
	var req dto.ReviewWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	w, err := h.withdrawalService.ReviewWithdrawal(c.Request.Context(), c.Param("id"), req, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to review withdrawal")
		return
	}
	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(w))
}

// closeWithdrawal godoc
// @Summary Close a withdrawal before a decision
// @Tags withdrawals
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   id path string true "Withdrawal ID"
// @Param   request body dto.CloseWithdrawalRequest true "Reason"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 400 {object} dto.ErrorResponse "Reason too short"
// @Failure 409 {object} dto.ErrorResponse "Illegal transition"
// @Router /withdrawals/{id}/close [post]
func (h *withdrawalHandler) closeWithdrawal(c *gin.Context) {
	var req dto.CloseWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	w, err := h.withdrawalService.CloseWithdrawal(c.Request.Context(), c.Param("id"), req.Reason, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to close withdrawal")
		return
	}
	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(w))
}

// markFailed godoc
// @Summary Record a failed payout
// @Description A payout that already deducted funds is reversed in the ledger
// @Tags withdrawals
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   id path string true "Withdrawal ID"
// @Param   request body dto.MarkFailedRequest true "Failure reason"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 409 {object} dto.ErrorResponse "Illegal transition"
// @Router /withdrawals/{id}/fail [post]
func (h *withdrawalHandler) markFailed(c *gin.Context) {
	var req dto.MarkFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	w, err := h.withdrawalService.MarkPaymentFailed(c.Request.Context(), c.Param("id"), req.Reason, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to mark payment failed")
		return
	}
	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(w))
}

// batchReview godoc
// @Summary Approve or reject many withdrawals
// @Description Each item succeeds or fails on its own; results keep request order
// @Tags withdrawals
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   request body dto.BatchReviewRequest true "Decision and IDs"
// @Success 200 {object} dto.BatchResult
// @Failure 400 {object} dto.ErrorResponse "Invalid batch"
// @Router /withdrawals/batch/review [post]
func (h *withdrawalHandler) batchReview(c *gin.Context) {
	var req dto.BatchReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.withdrawalService.BatchReview(c.Request.Context(), req, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to review withdrawals")
		return
	}
	c.JSON(http.StatusOK, result)
}

// batchIDs serves a batch action over a list of IDs.
// @Summary Retry or pay many withdrawals
// @Tags withdrawals
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   request body dto.BatchIDsRequest true "IDs"
// @Success 200 {object} dto.BatchResult
// @Router /withdrawals/batch/pay [post]
func (h *withdrawalHandler) batchIDs(name string, action func(ctx context.Context, ids []string, operator string) (dto.BatchResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.BatchIDsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		result, err := action(c.Request.Context(), req.WithdrawalIDs, operatorFrom(c))
		if err != nil {
			respondError(c, err, "Failed to "+name+" withdrawals")
			return
		}
		middleware.GetLoggerFromContext(c).Info("Batch withdrawal action finished",
			slog.String("action", name),
			slog.Int("succeeded", result.Succeeded),
			slog.Int("failed", result.Failed))
		c.JSON(http.StatusOK, result)
	}
}
