package handler

import (
	"encoding/json"
	"net/http"

	"github.com/OmarAdel911/introtosoftwareapp-sub001/model"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/pkg/logger"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/service"
	"github.com/gin-gonic/gin"
)

// CallbackHandler receives resolution callbacks from the ticketing
// subsystem. Admin review of a disputed contract happens out of band; the
// callback is how its outcome lands back on the contract.
type CallbackHandler struct {
	ticketing *service.TicketingService
	tickets   *service.TicketStore
	store     *service.ContractStore
}

func NewCallbackHandler(ticketingSvc *service.TicketingService, tickets *service.TicketStore) *CallbackHandler {
	return &CallbackHandler{
		ticketing: ticketingSvc,
		tickets:   tickets,
		store:     service.GetContractStore(),
	}
}

type CallbackRequest struct {
	Checksum string `json:"checksum" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

type CallbackContent struct {
	TicketID   string `json:"ticket_id"`
	ContractID string `json:"contract_id"`
	Resolution string `json:"resolution"` // completed, cancelled
	Note       string `json:"note"`
}

// HandleResolution applies a ticket resolution to its contract
func (h *CallbackHandler) HandleResolution(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var content CallbackContent
	if err := json.Unmarshal([]byte(req.Content), &content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format"})
		return
	}

	if !h.ticketing.VerifyCallback(req.Checksum, req.Content, content.ContractID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Checksum verification failed"})
		return
	}

	contract := h.store.Get(content.ContractID)
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	var next model.Status
	switch content.Resolution {
	case "completed":
		next = model.StatusCompleted
	case "cancelled":
		next = model.StatusCancelled
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resolution must be completed or cancelled"})
		return
	}

	err := h.store.Transition(contract.ID, model.StatusUnderAdminReview, next, model.ActionResolve, model.RoleAdmin, func(ct *model.Contract) {
		if content.Note != "" {
			ct.ClientFeedback = content.Note
		}
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	if content.TicketID != "" {
		h.tickets.Resolve(content.TicketID)
	}

	logger.Info(c.Request.Context(), "admin resolution applied",
		"contract_id", contract.ID,
		"ticket_id", content.TicketID,
		"resolution", content.Resolution,
	)

	c.JSON(http.StatusOK, gin.H{"message": "Resolution applied"})
}
