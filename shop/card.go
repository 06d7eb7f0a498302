/*
card.go - Credit card validation and the external settlement circuit

PURPOSE:
  Card numbers are validated locally with the Luhn checksum before any
  circuit call. The circuit itself (balance lookup, debit, credit) is an
  external collaborator: the engine only depends on the CardCircuit
  interface, and ships MemoryCircuit for development and tests.

CIRCUIT CONTRACT:
  Debit/Credit return a plain "done" boolean: an unregistered card or an
  insufficient card balance is a business failure, not an error. The
  engine never retries on the caller's behalf.
*/
package shop

import (
	"sync"

	"github.com/shopspring/decimal"
)

// ValidCard reports whether number passes the Luhn checksum.
func ValidCard(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false // doubling starts at the second digit from the right
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// =============================================================================
// CARD CIRCUIT - External settlement collaborator
// =============================================================================

// CardCircuit is the external credit-card settlement system.
// Implementations may block on I/O; the engine treats every call as a
// synchronous success/failure.
type CardCircuit interface {
	// Balance returns the card balance, or ok=false for an unknown card.
	Balance(card string) (decimal.Decimal, bool)

	// Debit withdraws amount from the card. Returns false if the card is
	// unknown or its balance is insufficient; nothing changes then.
	Debit(card string, amount decimal.Decimal) bool

	// Credit deposits amount onto the card. Returns false for an unknown card.
	Credit(card string, amount decimal.Decimal) bool
}

// =============================================================================
// MEMORY CIRCUIT - In-memory implementation (dev/tests)
// =============================================================================

// MemoryCircuit is an in-process CardCircuit holding registered cards
// and their balances. Safe for concurrent use.
type MemoryCircuit struct {
	mu       sync.Mutex
	accounts map[string]decimal.Decimal
}

func NewMemoryCircuit() *MemoryCircuit {
	return &MemoryCircuit{accounts: make(map[string]decimal.Decimal)}
}

// Register adds a card with an opening balance, overwriting any previous
// registration of the same number.
func (c *MemoryCircuit) Register(card string, balance decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[card] = balance
}

func (c *MemoryCircuit) Balance(card string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	balance, ok := c.accounts[card]
	return balance, ok
}

func (c *MemoryCircuit) Debit(card string, amount decimal.Decimal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	balance, ok := c.accounts[card]
	if !ok || balance.LessThan(amount) {
		return false
	}
	c.accounts[card] = balance.Sub(amount)
	return true
}

func (c *MemoryCircuit) Credit(card string, amount decimal.Decimal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	balance, ok := c.accounts[card]
	if !ok {
		return false
	}
	c.accounts[card] = balance.Add(amount)
	return true
}
