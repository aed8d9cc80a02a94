package handler

import (
	"net/http"
	"time"

	"github.com/OmarAdel911/introtosoftwareapp-sub001/middleware"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/model"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/pkg/logger"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TicketHandler struct {
	store     *service.ContractStore
	tickets   *service.TicketStore
	ticketing *service.TicketingService
}

func NewTicketHandler(ticketingSvc *service.TicketingService, tickets *service.TicketStore) *TicketHandler {
	return &TicketHandler{
		store:     service.GetContractStore(),
		tickets:   tickets,
		ticketing: ticketingSvc,
	}
}

type CreateTicketRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=120"`
	Description string `json:"description" binding:"required,min=10,max=2000"`
	ContractID  string `json:"contract_id" binding:"required"`
	Priority    string `json:"priority" binding:"required,oneof=low medium high urgent"`
}

// Create files a support ticket for a contract under admin review. Both
// parties may attach additional information this way; the contract status
// does not change.
func (h *TicketHandler) Create(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	contract := h.store.Get(req.ContractID)
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	role := middleware.GetRole(c)
	if role != model.RoleAdmin && contract.PartyRole(middleware.GetUserID(c)) != role {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	// Ticket creation is only offered while the contract is disputed.
	if _, ok := model.NextStatus(contract.Status, role, model.ActionCreateTicket); !ok && role != model.RoleAdmin {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Tickets can only be created for contracts under admin review",
		})
		return
	}

	ticket := &model.Ticket{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		ContractID:  req.ContractID,
		Priority:    req.Priority,
		Status:      model.TicketOpen,
		CreatedBy:   middleware.GetUsername(c),
		CreatedAt:   time.Now(),
	}

	remoteID, err := h.ticketing.CreateTicket(ticket)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create ticket: " + err.Error()})
		return
	}
	ticket.RemoteID = remoteID

	h.tickets.Save(ticket)
	h.store.LinkTicket(contract.ID, ticket.ID)

	logger.Info(c.Request.Context(), "ticket created",
		"ticket_id", ticket.ID,
		"contract_id", contract.ID,
		"priority", ticket.Priority,
	)

	c.JSON(http.StatusCreated, gin.H{"id": ticket.ID})
}
