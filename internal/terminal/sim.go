package terminal

import (
	"fmt"
	"sync"

	"github.com/ducminhle1904/mt5-trade-engine/pkg/types"
)

// SimTerminal is an in-process Terminal for development and tests. It
// accepts every well-formed order against a configured instrument table
// and hands out sequential tickets. Pending orders never fill; this is a
// terminal stand-in, not a market simulator.
type SimTerminal struct {
	mu          sync.Mutex
	initialized bool
	account     *types.AccountIdentity
	instruments map[string]types.InstrumentMetadata
	nextTicket  int64
	pending     map[int64]LimitOrderRequest
}

// NewSimTerminal creates a sim terminal serving the given instrument
// table. The session starts logged in as a demo account, mirroring an MT5
// terminal with a saved session.
func NewSimTerminal(instruments map[string]types.InstrumentMetadata) *SimTerminal {
	return &SimTerminal{
		account: &types.AccountIdentity{
			Login:    10000001,
			Server:   "SimBroker-Demo",
			Currency: "USD",
			Balance:  10000,
		},
		instruments: instruments,
		nextTicket:  1000000,
		pending:     make(map[int64]LimitOrderRequest),
	}
}

// DefaultSimInstruments returns a small instrument table covering both
// sizing regimes.
func DefaultSimInstruments() map[string]types.InstrumentMetadata {
	return map[string]types.InstrumentMetadata{
		"XAUUSD": {
			Symbol:     "XAUUSD",
			Class:      types.ClassFixedMultiplier,
			TickSize:   0.01,
			TickValue:  1,
			VolumeStep: 0.01,
			VolumeMin:  0.01,
			VolumeMax:  100,
		},
		"EURUSD": {
			Symbol:     "EURUSD",
			Class:      types.ClassPipValue,
			TickSize:   0.00001,
			TickValue:  1,
			VolumeStep: 0.01,
			VolumeMin:  0.01,
			VolumeMax:  200,
		},
		"GBPUSD": {
			Symbol:     "GBPUSD",
			Class:      types.ClassPipValue,
			TickSize:   0.00001,
			TickValue:  1,
			VolumeStep: 0.01,
			VolumeMin:  0.01,
			VolumeMax:  200,
		},
	}
}

func (s *SimTerminal) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	return nil
}

func (s *SimTerminal) Login(login int64, password, server string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("sim: not initialized")
	}

	s.account = &types.AccountIdentity{
		Login:    login,
		Server:   server,
		Currency: "USD",
		Balance:  10000,
	}
	return nil
}

func (s *SimTerminal) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
}

func (s *SimTerminal) AccountIdentity() (*types.AccountIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, fmt.Errorf("sim: not initialized")
	}
	return s.account, nil
}

func (s *SimTerminal) InstrumentMetadata(symbol string) (*types.InstrumentMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, fmt.Errorf("sim: not initialized")
	}

	meta, ok := s.instruments[symbol]
	if !ok {
		return nil, fmt.Errorf("sim: symbol %s not found", symbol)
	}
	return &meta, nil
}

func (s *SimTerminal) SubmitLimitOrder(req LimitOrderRequest) (*OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, fmt.Errorf("sim: not initialized")
	}
	if _, ok := s.instruments[req.Instrument]; !ok {
		return nil, fmt.Errorf("sim: symbol %s not found", req.Instrument)
	}
	if req.Volume <= 0 {
		return nil, fmt.Errorf("sim: invalid volume %v", req.Volume)
	}

	s.nextTicket++
	ticket := s.nextTicket
	s.pending[ticket] = req

	return &OrderResult{
		Ticket:    ticket,
		FillPrice: req.EntryPrice,
		Volume:    req.Volume,
	}, nil
}

func (s *SimTerminal) CancelPendingOrder(ticket int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("sim: not initialized")
	}
	if _, ok := s.pending[ticket]; !ok {
		return fmt.Errorf("sim: order %d not found", ticket)
	}

	delete(s.pending, ticket)
	return nil
}

// PendingOrders returns a snapshot of unfilled orders, for inspection in
// tests and tooling.
func (s *SimTerminal) PendingOrders() map[int64]LimitOrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]LimitOrderRequest, len(s.pending))
	for ticket, req := range s.pending {
		out[ticket] = req
	}
	return out
}
