package nessie

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// StubClient is the deterministic in-process ledger used by tests and local
// runs. It tracks balances when seeded and records every call.
type StubClient struct {
	mu sync.Mutex

	balances  map[string]int64 // absent account = unlimited
	transfers []StubTransfer
	reversals []string
	nextID    int

	// FailTransfers makes Transfer fail with a generic error.
	FailTransfers bool
	// FailReversals makes Reverse fail with a generic error.
	FailReversals bool
}

type StubTransfer struct {
	ID     string
	From   string
	To     string
	Amount int64
}

var errStubFailure = errors.New("nessie unavailable")

func NewStubClient() *StubClient {
	return &StubClient{balances: make(map[string]int64)}
}

// SetBalance seeds a finite balance; unseeded accounts never run dry.
func (s *StubClient) SetBalance(accountID string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[accountID] = balance
}

func (s *StubClient) Balance(ctx context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balances[accountID]; ok {
		return b, nil
	}
	return 999999, nil
}

func (s *StubClient) Transfer(ctx context.Context, payerAccountID, payeeAccountID string, amount int64, description string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailTransfers {
		return "", errStubFailure
	}
	if b, ok := s.balances[payerAccountID]; ok {
		if b < amount {
			return "", fmt.Errorf("%w: insufficient funds", errStubFailure)
		}
		s.balances[payerAccountID] = b - amount
		s.balances[payeeAccountID] += amount
	}
	s.nextID++
	id := fmt.Sprintf("txn_%04d", s.nextID)
	s.transfers = append(s.transfers, StubTransfer{ID: id, From: payerAccountID, To: payeeAccountID, Amount: amount})
	return id, nil
}

func (s *StubClient) Reverse(ctx context.Context, transferID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReversals {
		return "", errStubFailure
	}
	s.reversals = append(s.reversals, transferID)
	return "rev_" + transferID, nil
}

// Transfers returns a copy of all executed transfers.
func (s *StubClient) Transfers() []StubTransfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StubTransfer(nil), s.transfers...)
}

// Reversals returns the ids of all reversed transfers.
func (s *StubClient) Reversals() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reversals...)
}
