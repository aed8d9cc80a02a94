package service

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/OmarAdel911/introtosoftwareapp-sub001/config"
	"github.com/OmarAdel911/introtosoftwareapp-sub001/model"
)

var (
	// ErrNotFound is returned when a contract id is unknown.
	ErrNotFound = errors.New("contract not found")
	// ErrStaleStatus is returned when a transition was computed against a
	// status that is no longer the stored one (e.g. a duplicate click
	// racing a finished request). The store is the authority; the caller
	// reports the rejection and mutates nothing.
	ErrStaleStatus = errors.New("contract status changed, transition rejected")
)

// ContractStore is an in-memory store for contracts
// In production, this should be replaced with a database
type ContractStore struct {
	contracts    map[string]*model.Contract
	mu           sync.RWMutex
	maxContracts int // Maximum contracts to keep, 0 = unlimited
}

var (
	globalStore *ContractStore
	storeOnce   sync.Once
)

// InitContractStore initializes the global contract store with configuration
func InitContractStore(cfg *config.StoreConfig) {
	storeOnce.Do(func() {
		maxContracts := cfg.MaxContracts
		if maxContracts < 0 {
			maxContracts = 0
		}
		globalStore = &ContractStore{
			contracts:    make(map[string]*model.Contract),
			maxContracts: maxContracts,
		}
		slog.Info("contract store initialized", "max_contracts", maxContracts)
	})
}

// GetContractStore returns the global contract store
func GetContractStore() *ContractStore {
	if globalStore == nil {
		// Fallback initialization with default settings
		globalStore = &ContractStore{
			contracts:    make(map[string]*model.Contract),
			maxContracts: 100, // Default: keep 100 contracts
		}
	}
	return globalStore
}

func (s *ContractStore) Save(contract *model.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contract.UpdatedAt = time.Now()
	s.contracts[contract.ID] = contract

	// Cleanup if exceeds max
	s.cleanupIfNeeded()
}

func (s *ContractStore) Get(id string) *model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contracts[id]
}

// VisibleTo returns the contracts the given user may see: admins see
// everything, parties see the contracts they are on. The result is sorted
// newest first so list pages are stable.
func (s *ContractStore) VisibleTo(userID string, role model.Role) []*model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Contract
	for _, c := range s.contracts {
		if role == model.RoleAdmin || c.PartyRole(userID) != "" {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Transition applies one state-machine step atomically. The expected status
// guards against duplicate or stale requests; mutate, when non-nil, runs
// under the lock so payload updates land together with the status change.
func (s *ContractStore) Transition(id string, expect, next model.Status, action model.Action, actor model.Role, mutate func(*model.Contract)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contracts[id]
	if !ok {
		return ErrNotFound
	}
	if c.Status != expect {
		return ErrStaleStatus
	}

	now := time.Now()
	c.History = append(c.History, model.StatusChange{
		From:   c.Status,
		To:     next,
		Action: action,
		Actor:  actor,
		At:     now,
	})
	c.Status = next
	c.UpdatedAt = now
	if mutate != nil {
		mutate(c)
	}
	return nil
}

// Delete removes a contract. Contracts are never deleted through the API;
// this only backs store maintenance and tests.
func (s *ContractStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contracts, id)
}

// LinkTicket records the ticket escalating this contract.
func (s *ContractStore) LinkTicket(id, ticketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.contracts[id]; ok {
		c.TicketID = ticketID
		c.UpdatedAt = time.Now()
	}
}

// cleanupIfNeeded removes oldest contracts if store exceeds maxContracts
// Must be called with lock held
func (s *ContractStore) cleanupIfNeeded() {
	if s.maxContracts <= 0 {
		return // Unlimited
	}

	if len(s.contracts) <= s.maxContracts {
		return
	}

	// Sort contracts by creation time
	contracts := make([]*model.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		contracts = append(contracts, c)
	}
	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].CreatedAt.Before(contracts[j].CreatedAt)
	})

	// Remove oldest contracts
	removeCount := len(contracts) - s.maxContracts
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old contract",
			"contract_id", contracts[i].ID,
			"created_at", contracts[i].CreatedAt,
		)
		delete(s.contracts, contracts[i].ID)
	}
}

// Count returns the number of contracts in the store
func (s *ContractStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contracts)
}
