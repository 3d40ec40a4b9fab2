package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/gin-gonic/gin"
)

// reconciliationHandler handles HTTP requests related to reconciliations.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

func newReconciliationHandler(rs portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{reconciliationService: rs}
}

// RegisterReconciliationRoutes registers routes related to reconciliations.
func RegisterReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconciliationService)

	recs := rg.Group("/reconciliations")
	{
		recs.GET("", h.listReconciliations)
		recs.GET("/export", h.exportReconciliations)
		recs.POST("/runs", h.runReconciliation)
		recs.GET("/:id", h.getReconciliation)
		recs.POST("/:id/resolve", h.resolveDifference)
	}
}

// listReconciliations godoc
// @Summary List reconciliation records
// @Description Newest first. Pass nextToken from the previous page to continue.
// @Tags reconciliations
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   kind query string false "supplier_cost, payment_channel, withdrawal or invoice"
// @Param   status query string false "Status within the kind's vocabulary"
// @Param   from query string false "First day (YYYY-MM-DD)"
// @Param   to query string false "Last day (YYYY-MM-DD)"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Page token"
// @Success 200 {object} dto.ListReconciliationsResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /reconciliations [get]
func (h *reconciliationHandler) listReconciliations(c *gin.Context) {
	var params dto.ListReconciliationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.reconciliationService.ListReconciliations(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list reconciliations")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// exportReconciliations godoc
// @Summary Export reconciliation records
// @Description Every record matching the filter, as a spreadsheet
// @Tags reconciliations
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param   X-Operator-ID header string true "Operator"
// @Param   kind query string false "Kind"
// @Param   status query string false "Status"
// @Param   from query string false "First day (YYYY-MM-DD)"
// @Param   to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /reconciliations/export [get]
func (h *reconciliationHandler) exportReconciliations(c *gin.Context) {
	var params dto.ListReconciliationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	// Buffered so a failure can still be reported as JSON.
	var buf bytes.Buffer
	contentType, ext, err := h.reconciliationService.ExportReconciliations(c.Request.Context(), params, &buf)
	if err != nil {
		respondError(c, err, "Failed to export reconciliations")
		return
	}
	filename := fmt.Sprintf("reconciliations-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// getReconciliation godoc
// @Summary Get a reconciliation record
// @Tags reconciliations
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /reconciliations/{id} [get]
func (h *reconciliationHandler) getReconciliation(c *gin.Context) {
	rec, err := h.reconciliationService.GetReconciliation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve reconciliation")
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(rec))
}

// runReconciliation godoc
// @Summary Run one reconciliation unit
// @Description Re-running an unchanged unit updates the same record to the same result
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   request body dto.RunReconciliationRequest true "Unit to run"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid unit"
// @Failure 409 {object} dto.ErrorResponse "Record already resolved"
// @Failure 503 {object} dto.ErrorResponse "External source unavailable"
// @Router /reconciliations/runs [post]
func (h *reconciliationHandler) runReconciliation(c *gin.Context) {
	var req dto.RunReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rec, err := h.reconciliationService.Run(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to run reconciliation")
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(rec))
}

// resolveDifference godoc
// @Summary Resolve a reconciliation difference
// @Description Records the operator's explanation. A record can be resolved once.
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   id path string true "Reconciliation ID"
// @Param   request body dto.ResolveDifferenceRequest true "Resolution"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 400 {object} dto.ErrorResponse "Missing resolution text"
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Failure 409 {object} dto.ErrorResponse "Not a difference, or already resolved"
// @Router /reconciliations/{id}/resolve [post]
func (h *reconciliationHandler) resolveDifference(c *gin.Context) {
	var req dto.ResolveDifferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rec, err := h.reconciliationService.ResolveDifference(c.Request.Context(), c.Param("id"), req.ResolutionText, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to resolve difference")
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(rec))
}
