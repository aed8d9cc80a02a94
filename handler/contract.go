package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/OmarAdel911/introtosoftwareapp-sub001/config"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/middleware"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/model"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/pkg/logger"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Submission constraints enforced before anything is stored. The backend
// re-validates even though the web client pre-checks the same limits.
const (
	minDescriptionLen     = 10
	maxDescriptionLen     = 1000
	maxSubmissionFileSize = 10 << 20 // 10MB
)

// allowedSubmissionTypes whitelists the MIME types a freelancer may submit.
var allowedSubmissionTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":                   true,
	"application/zip":              true,
	"application/x-rar-compressed": true,
	"application/vnd.rar":          true,
}

// extensionTypes maps submission file extensions to the MIME type assumed
// when the upload carries no usable Content-Type.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".zip":  "application/zip",
	".rar":  "application/x-rar-compressed",
}

type ContractHandler struct {
	config     *config.Config
	store      *service.ContractStore
	tickets    *service.TicketStore
	minio      *service.MinioService
	ticketing  *service.TicketingService
	normalizer *service.SubmissionNormalizer
	httpClient *http.Client
}

func NewContractHandler(cfg *config.Config, minioSvc *service.MinioService, ticketingSvc *service.TicketingService, tickets *service.TicketStore, normalizer *service.SubmissionNormalizer) *ContractHandler {
	return &ContractHandler{
		config:     cfg,
		store:      service.GetContractStore(),
		tickets:    tickets,
		minio:      minioSvc,
		ticketing:  ticketingSvc,
		normalizer: normalizer,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type CreateContractRequest struct {
	FreelancerID string    `json:"freelancer_id" binding:"required"`
	Amount       float64   `json:"amount" binding:"gte=0"`
	StartDate    time.Time `json:"start_date" binding:"required"`
	EndDate      time.Time `json:"end_date" binding:"required"`
	Terms        string    `json:"terms" binding:"required"`
}

type DeclineRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type AcceptSubmissionRequest struct {
	Accepted *bool  `json:"accepted" binding:"required"`
	Feedback string `json:"feedback" binding:"max=1000"`
}

type RejectSubmissionRequest struct {
	Feedback string `json:"feedback" binding:"required,max=1000"`
}

// render builds the API view of a contract: the stored raw submission is
// replaced by its normalized form on every read.
func (h *ContractHandler) render(c *gin.Context, contract *model.Contract) gin.H {
	view := gin.H{
		"id":         contract.ID,
		"status":     contract.Status,
		"amount":     contract.Amount,
		"start_date": contract.StartDate.Format(time.RFC3339),
		"end_date":   contract.EndDate.Format(time.RFC3339),
		"terms":      contract.Terms,
		"client":     contract.Client,
		"freelancer": contract.Freelancer,
		"created_at": contract.CreatedAt.Format(time.RFC3339),
		"updated_at": contract.UpdatedAt.Format(time.RFC3339),
	}
	if sub := h.normalizer.Normalize(contract.SubmissionRaw); sub != nil {
		view["submission_data"] = sub
	}
	if contract.ClientFeedback != "" {
		view["client_feedback"] = contract.ClientFeedback
	}
	if contract.DeclineReason != "" {
		view["decline_reason"] = contract.DeclineReason
	}
	if contract.TicketID != "" {
		view["ticket_id"] = contract.TicketID
	}
	if len(contract.History) > 0 {
		view["history"] = contract.History
	}
	view["available_actions"] = model.AvailableActions(contract.Status, middleware.GetRole(c))
	return view
}

// load fetches the contract and checks the caller may see it: admins see
// everything, clients and freelancers only contracts they are a party to.
func (h *ContractHandler) load(c *gin.Context) *model.Contract {
	contract := h.store.Get(c.Param("id"))
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return nil
	}

	role := middleware.GetRole(c)
	if role == model.RoleAdmin {
		return contract
	}
	if contract.PartyRole(middleware.GetUserID(c)) != role {
		// Hide existence from non-parties.
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return nil
	}
	return contract
}

// List returns the contracts visible to the caller
func (h *ContractHandler) List(c *gin.Context) {
	contracts := h.store.VisibleTo(middleware.GetUserID(c), middleware.GetRole(c))

	result := make([]gin.H, len(contracts))
	for i, contract := range contracts {
		result[i] = gin.H{
			"id":         contract.ID,
			"status":     contract.Status,
			"amount":     contract.Amount,
			"client":     contract.Client,
			"freelancer": contract.Freelancer,
			"start_date": contract.StartDate.Format(time.RFC3339),
			"end_date":   contract.EndDate.Format(time.RFC3339),
			"created_at": contract.CreatedAt.Format(time.RFC3339),
			"updated_at": contract.UpdatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Create opens a new contract in pending status. Only clients create
// contracts; the freelancer is referenced by account id.
func (h *ContractHandler) Create(c *gin.Context) {
	if middleware.GetRole(c) != model.RoleClient {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only clients can create contracts"})
		return
	}

	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.EndDate.Before(req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not be before start_date", "field": "end_date"})
		return
	}

	freelancer := h.config.FindUserByID(req.FreelancerID)
	if freelancer == nil || freelancer.Role != string(model.RoleFreelancer) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown freelancer", "field": "freelancer_id"})
		return
	}

	client := h.config.FindUserByID(middleware.GetUserID(c))
	if client == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown account"})
		return
	}

	now := time.Now()
	contract := &model.Contract{
		ID:         uuid.New().String(),
		Status:     model.StatusPending,
		Amount:     req.Amount,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Terms:      req.Terms,
		Client:     model.Party{ID: client.ID, Name: client.Name, Email: client.Email},
		Freelancer: model.Party{ID: freelancer.ID, Name: freelancer.Name, Email: freelancer.Email},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	h.store.Save(contract)

	logger.Info(c.Request.Context(), "contract created",
		"contract_id", contract.ID,
		"freelancer_id", freelancer.ID,
	)

	c.JSON(http.StatusCreated, h.render(c, contract))
}

// Get returns a single contract with normalized submission data
func (h *ContractHandler) Get(c *gin.Context) {
	contract := h.load(c)
	if contract == nil {
		return
	}
	c.JSON(http.StatusOK, h.render(c, contract))
}

// Actions returns the transitions the caller may invoke on the contract.
// Off-table (status, role) pairs yield an empty list, not an error.
func (h *ContractHandler) Actions(c *gin.Context) {
	contract := h.load(c)
	if contract == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  contract.Status,
		"actions": model.AvailableActions(contract.Status, middleware.GetRole(c)),
	})
}

// transition resolves and applies one state-machine step for the caller.
// Invalid (status, role, action) triples are rejected with 409 and mutate
// nothing.
func (h *ContractHandler) transition(c *gin.Context, contract *model.Contract, action model.Action, mutate func(*model.Contract)) (model.Status, bool) {
	role := middleware.GetRole(c)
	from := contract.Status

	next, ok := model.NextStatus(from, role, action)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{
			"error": fmt.Sprintf("Action %q is not allowed for role %q in status %q", action, role, from),
		})
		return "", false
	}

	if err := h.store.Transition(contract.ID, from, next, action, role, mutate); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return "", false
	}

	// Client acceptance means both sides have now accepted; promote
	// straight to active.
	if next == model.StatusClientAccepted {
		if err := h.store.Transition(contract.ID, next, model.StatusActive, action, role, nil); err == nil {
			next = model.StatusActive
		}
	}

	logger.Info(c.Request.Context(), "contract transition",
		"contract_id", contract.ID,
		"action", string(action),
		"from", string(from),
		"to", string(next),
	)
	return next, true
}

// escalate files the auto-created support ticket for transitions into
// under_admin_review. A ticketing failure never unwinds the transition; the
// ticket can be re-filed through POST /tickets.
func (h *ContractHandler) escalate(c *gin.Context, contract *model.Contract, title, description string) {
	ticket := &model.Ticket{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		ContractID:  contract.ID,
		Priority:    model.PriorityHigh,
		Status:      model.TicketOpen,
		CreatedBy:   middleware.GetUsername(c),
		CreatedAt:   time.Now(),
	}

	remoteID, err := h.ticketing.CreateTicket(ticket)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to create escalation ticket",
			"contract_id", contract.ID,
			"error", err,
		)
	}
	ticket.RemoteID = remoteID

	h.tickets.Save(ticket)
	h.store.LinkTicket(contract.ID, ticket.ID)
}

// Accept handles POST /contracts/:id/accept for both parties.
func (h *ContractHandler) Accept(c *gin.Context) {
	contract := h.load(c)
	if contract == nil {
		return
	}

	if _, ok := h.transition(c, contract, model.ActionAccept, nil); !ok {
		return
	}
	c.JSON(http.StatusOK, h.render(c, contract))
}

// Decline handles POST /contracts/:id/decline. A freelancer declining a
// pending contract cancels it; a client declining escalates to admin
// review with an auto-created ticket.
func (h *ContractHandler) Decline(c *gin.Context) {
	contract := h.load(c)
	if contract == nil {
		return
	}

	var req DeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A decline reason is required", "field": "reason"})
		return
	}

	next, ok := h.transition(c, contract, model.ActionDecline, func(ct *model.Contract) {
		ct.DeclineReason = req.Reason
	})
	if !ok {
		return
	}

	if next == model.StatusUnderAdminReview {
		h.escalate(c, contract,
			"Contract declined by client",
			fmt.Sprintf("Client declined contract %s: %s", contract.ID, req.Reason),
		)
	}
	c.JSON(http.StatusOK, h.render(c, contract))
}

// Submit handles the freelancer's work submission (multipart: file,
// description). Constraint violations are rejected with a field-level
// message before anything is stored.
func (h *ContractHandler) Submit(c *gin.Context) {
	contract := h.load(c)
	if contract == nil {
		return
	}

	description := c.PostForm("description")
	if len(description) < minDescriptionLen || len(description) > maxDescriptionLen {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Description must be between %d and %d characters", minDescriptionLen, maxDescriptionLen),
			"field": "description",
		})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided", "field": "file"})
		return
	}
	defer file.Close()

	if header.Size > maxSubmissionFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 10MB limit", "field": "file"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		contentType = extensionTypes[ext]
	}
	if !allowedSubmissionTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Only PDF, Word, plain-text, ZIP and RAR files are allowed",
			"field": "file",
		})
		return
	}

	// The transition is resolved before the upload so an invalid request
	// never writes to storage.
	if _, ok := model.NextStatus(contract.Status, middleware.GetRole(c), model.ActionSubmit); !ok {
		c.JSON(http.StatusConflict, gin.H{
			"error": fmt.Sprintf("Submissions are not accepted in status %q", contract.Status),
		})
		return
	}

	objectName := service.SubmissionObjectName(contract.ID, header.Filename)
	fileURL, err := h.minio.UploadSubmission(c.Request.Context(), objectName, file, header.Size, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file: " + err.Error()})
		return
	}

	submission := map[string]any{
		"description": description,
		"fileUrl":     fileURL,
	}
	if _, ok := h.transition(c, contract, model.ActionSubmit, func(ct *model.Contract) {
		ct.SubmissionRaw = submission
	}); !ok {
		return
	}

	c.JSON(http.StatusOK, h.render(c, contract))
}

// AcceptSubmission handles the client's approval of submitted work.
func (h *ContractHandler) AcceptSubmission(c *gin.Context) {
	contract := h.load(c)
	if contract == nil {
		return
	}

	var req AcceptSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !*req.Accepted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Use reject-submission to reject submitted work", "field": "accepted"})
		return
	}

	if _, ok := h.transition(c, contract, model.ActionAcceptSubmission, func(ct *model.Contract) {
		ct.ClientFeedback = req.Feedback
	}); !ok {
		return
	}
	c.JSON(http.StatusOK, h.render(c, contract))
}

// RejectSubmission escalates rejected work to admin review with an
// auto-created ticket so the freelancer keeps a dispute channel.
func (h *ContractHandler) RejectSubmission(c *gin.Context) {
	contract := h.load(c)
	if contract == nil {
		return
	}

	var req RejectSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Feedback is required when rejecting a submission", "field": "feedback"})
		return
	}

	if _, ok := h.transition(c, contract, model.ActionRejectSubmission, func(ct *model.Contract) {
		ct.ClientFeedback = req.Feedback
	}); !ok {
		return
	}

	h.escalate(c, contract,
		"Submission rejected",
		fmt.Sprintf("Client rejected the submission on contract %s: %s", contract.ID, req.Feedback),
	)
	c.JSON(http.StatusOK, h.render(c, contract))
}

// SubmissionFile serves the submitted work file. mode=view redirects to the
// resolved URL; mode=download streams it back with an attachment
// disposition. Failures surface as JSON errors.
func (h *ContractHandler) SubmissionFile(c *gin.Context) {
	contract := h.load(c)
	if contract == nil {
		return
	}

	sub := h.normalizer.Normalize(contract.SubmissionRaw)
	if sub == nil || sub.FileURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No submission data"})
		return
	}

	mode := c.DefaultQuery("mode", "view")
	switch mode {
	case "view":
		c.Redirect(http.StatusFound, sub.FileURL)
	case "download":
		h.streamDownload(c, sub.FileURL)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be view or download", "field": "mode"})
	}
}

func (h *ContractHandler) streamDownload(c *gin.Context, fileURL string) {
	resp, err := h.httpClient.Get(fileURL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch file: " + err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("File host returned status %d", resp.StatusCode)})
		return
	}

	filename := "submission"
	if u, err := url.Parse(fileURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			filename = base
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, nil)
}
