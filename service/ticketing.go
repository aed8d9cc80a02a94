package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/OmarAdel911/introtosoftwareapp-sub001/config"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/model"
)

// TicketingService talks to the external ticketing subsystem that owns
// support tickets. When no api_url is configured the service runs in
// local-only mode and tickets exist only in the in-memory mirror.
type TicketingService struct {
	config     *config.TicketingConfig
	httpClient *http.Client
}

// ticketCreateRequest is the payload sent to the ticketing API.
type ticketCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ContractID  string `json:"contract_id"`
	Priority    string `json:"priority"`
	Callback    string `json:"callback,omitempty"`
	Seed        string `json:"seed,omitempty"`
}

// ticketCreateResponse is the ticketing API's creation response.
type ticketCreateResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		TicketID string `json:"ticket_id"`
	} `json:"data"`
}

func NewTicketingService(cfg *config.TicketingConfig) *TicketingService {
	return &TicketingService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Remote reports whether an external ticketing API is configured.
func (s *TicketingService) Remote() bool {
	return s.config.APIURL != ""
}

// CreateTicket registers the ticket with the external subsystem and returns
// the remote ticket id. In local-only mode it returns "".
func (s *TicketingService) CreateTicket(t *model.Ticket) (string, error) {
	if !s.Remote() {
		return "", nil
	}

	reqBody := ticketCreateRequest{
		Title:       t.Title,
		Description: t.Description,
		ContractID:  t.ContractID,
		Priority:    t.Priority,
	}
	if s.config.CallbackURL != "" {
		reqBody.Callback = s.config.CallbackURL
		reqBody.Seed = s.config.Seed
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", s.config.APIURL+"/tickets", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result ticketCreateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.Code != 0 {
		return "", fmt.Errorf("ticketing API error: %s", result.Message)
	}

	return result.Data.TicketID, nil
}

// VerifyCallback verifies a resolution callback checksum.
// Checksum = SHA256(contractID + seed + content)
func (s *TicketingService) VerifyCallback(checksum, content, contractID string) bool {
	data := contractID + s.config.Seed + content
	hash := sha256.Sum256([]byte(data))
	expected := hex.EncodeToString(hash[:])
	return checksum == expected
}

// TicketStore is the in-memory mirror of tickets this service created.
type TicketStore struct {
	tickets map[string]*model.Ticket
	mu      sync.RWMutex
}

func NewTicketStore() *TicketStore {
	return &TicketStore{tickets: make(map[string]*model.Ticket)}
}

func (s *TicketStore) Save(t *model.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = t
}

func (s *TicketStore) Get(id string) *model.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickets[id]
}

// GetByContract returns the most recent ticket linked to a contract.
func (s *TicketStore) GetByContract(contractID string) *model.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *model.Ticket
	for _, t := range s.tickets {
		if t.ContractID != contractID {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	return latest
}

// Resolve marks a ticket resolved. Unknown ids are ignored.
func (s *TicketStore) Resolve(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tickets[id]; ok {
		t.Status = model.TicketResolved
	}
}

func (s *TicketStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets)
}
