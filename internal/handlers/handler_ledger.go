package handlers

import (
	"net/http"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/gin-gonic/gin"
)

type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// RegisterLedgerRoutes registers routes related to the fund ledger.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.GET("/snapshot", h.getSnapshot)
		ledger.GET("/transactions", h.listTransactions)
		ledger.GET("/partners/:partnerID/payable", h.getPartnerPayable)
		ledger.POST("/recharges", h.recharge)
		ledger.POST("/manual-entries", h.recordManualEntry)
		ledger.GET("/supplier-settlements", h.listSupplierSettlements)
		ledger.POST("/supplier-settlements", h.recordSupplierSettlement)
	}
}

// getSnapshot godoc
// @Summary Get the ledger snapshot
// @Description Folds the ledger from zero. With asOf, only entries up to that time count.
// @Tags ledger
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   asOf query string false "RFC3339 time"
// @Success 200 {object} dto.LedgerSnapshotResponse
// @Router /ledger/snapshot [get]
func (h *ledgerHandler) getSnapshot(c *gin.Context) {
	var params dto.LedgerSnapshotParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	var (
		snapshot domain.LedgerSnapshot
		err      error
	)
	if params.AsOf.IsZero() {
		snapshot, err = h.ledgerService.GetLedgerSnapshot(c.Request.Context())
	} else {
		snapshot, err = h.ledgerService.ReplaySnapshot(c.Request.Context(), params.AsOf.UTC())
	}
	if err != nil {
		respondError(c, err, "Failed to compute ledger snapshot")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerSnapshotResponse(snapshot))
}

// listTransactions godoc
// @Summary List ledger transactions
// @Tags ledger
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   account query string false "Ledger account"
// @Param   kind query string false "Entry kind"
// @Param   partnerID query string false "Partner"
// @Param   relatedEntityID query string false "Order, withdrawal or reconciliation ID"
// @Param   limit query int false "Page size"
// @Param   offset query int false "Offset"
// @Success 200 {array} dto.LedgerTransactionResponse
// @Router /ledger/transactions [get]
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	var params dto.ListLedgerTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	txns, err := h.ledgerService.ListLedgerTransactions(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list ledger transactions")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerTransactionResponses(txns))
}

// getPartnerPayable godoc
// @Summary Get a partner's payable balance
// @Tags ledger
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   partnerID path string true "Partner"
// @Success 200 {object} dto.PartnerBalance
// @Router /ledger/partners/{partnerID}/payable [get]
func (h *ledgerHandler) getPartnerPayable(c *gin.Context) {
	balance, err := h.ledgerService.GetPartnerPayable(c.Request.Context(), c.Param("partnerID"))
	if err != nil {
		respondError(c, err, "Failed to compute partner balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}

// recharge godoc
// @Summary Record an advance payment recharge
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   request body dto.RechargeRequest true "Recharge"
// @Success 201 {object} dto.LedgerTransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid amount"
// @Router /ledger/recharges [post]
func (h *ledgerHandler) recharge(c *gin.Context) {
	var req dto.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	txn, err := h.ledgerService.RechargeFunds(c.Request.Context(), req, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to record recharge")
		return
	}
	c.JSON(http.StatusCreated, dto.ToLedgerTransactionResponse(*txn))
}

// recordManualEntry godoc
// @Summary Record a compensation or company withdrawal
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   request body dto.ManualLedgerEntryRequest true "Entry"
// @Success 201 {object} dto.LedgerTransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid entry"
// @Router /ledger/manual-entries [post]
func (h *ledgerHandler) recordManualEntry(c *gin.Context) {
	var req dto.ManualLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	txn, err := h.ledgerService.RecordManualLedgerEntry(c.Request.Context(), req, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to record manual ledger entry")
		return
	}
	c.JSON(http.StatusCreated, dto.ToLedgerTransactionResponse(*txn))
}

// listSupplierSettlements godoc
// @Summary List payments made to suppliers
// @Tags ledger
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   supplierName query string false "Supplier"
// @Success 200 {array} dto.SupplierSettlementResponse
// @Router /ledger/supplier-settlements [get]
func (h *ledgerHandler) listSupplierSettlements(c *gin.Context) {
	settlements, err := h.ledgerService.ListSupplierSettlements(c.Request.Context(), c.Query("supplierName"))
	if err != nil {
		respondError(c, err, "Failed to list supplier settlements")
		return
	}
	c.JSON(http.StatusOK, dto.ToSupplierSettlementResponses(settlements))
}

// recordSupplierSettlement godoc
// @Summary Record a payment to a supplier
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   X-Operator-ID header string true "Operator"
// @Param   request body dto.SupplierSettlementRequest true "Settlement"
// @Success 201 {object} dto.SupplierSettlementResponse
// @Router /ledger/supplier-settlements [post]
func (h *ledgerHandler) recordSupplierSettlement(c *gin.Context) {
	var req dto.SupplierSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	settlement, err := h.ledgerService.RecordSupplierSettlement(c.Request.Context(), req, operatorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to record supplier settlement")
		return
	}
	c.JSON(http.StatusCreated, dto.ToSupplierSettlementResponse(*settlement))
}
