package handlers

import (
	"net/http"
	"strconv"

	"santai/services/commission"
	"santai/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CommissionHandler exposes the commission ledger's operations over HTTP.
type CommissionHandler struct {
	Ledger *commission.Ledger
	Logger *zap.Logger
}

func NewCommissionHandler(ledger *commission.Ledger, logger *zap.Logger) *CommissionHandler {
	return &CommissionHandler{Ledger: ledger, Logger: logger}
}

// GetRecord handles GET /api/commissions/:id.
func (h *CommissionHandler) GetRecord(c *gin.Context) {
	record, err := h.Ledger.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UploadProof handles POST /api/commissions/:id/proof. The proof_ref is an
// opaque pointer produced by the upload collaborator.
func (h *CommissionHandler) UploadProof(c *gin.Context) {
	var input struct {
		ProofRef      string `json:"proof_ref"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	record, err := h.Ledger.UploadProof(c.Request.Context(), c.Param("id"), input.ProofRef, input.PaymentMethod)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Verify handles POST /api/commissions/:id/verify.
func (h *CommissionHandler) Verify(c *gin.Context) {
	var input struct {
		VerifierID string `json:"verifier_id"`
		Approve    bool   `json:"approve"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	record, err := h.Ledger.Verify(c.Request.Context(), c.Param("id"), input.VerifierID, input.Approve, input.Reason)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// CancelObligation handles POST /api/commissions/:id/cancel.
func (h *CommissionHandler) CancelObligation(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	record, err := h.Ledger.CancelObligation(c.Request.Context(), c.Param("id"), input.Reason)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListOutstanding handles GET /api/providers/:id/commissions.
func (h *CommissionHandler) ListOutstanding(c *gin.Context) {
	providerID := c.Param("id")
	records, err := h.Ledger.OutstandingFor(c.Request.Context(), providerID)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	total, err := h.Ledger.UnpaidAmountFor(c.Request.Context(), providerID)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "total_due": total})
}

// ListHistory handles GET /api/providers/:id/commissions/history.
func (h *CommissionHandler) ListHistory(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	records, err := h.Ledger.HistoryFor(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
