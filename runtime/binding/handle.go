package binding

import (
	"fmt"
	"sync"
)

// BorrowPolicy decides what happens when a handle is already borrowed in a
// conflicting mode.
type BorrowPolicy uint8

const (
	// BorrowReject fails the access with BorrowConflict.
	BorrowReject BorrowPolicy = iota
	// BorrowWait blocks until the handle is released. Not re-entrant: a
	// method that calls back into Lua and touches its own receiver
	// deadlocks under this policy.
	BorrowWait
)

func (p BorrowPolicy) String() string {
	switch p {
	case BorrowReject:
		return "reject"
	case BorrowWait:
		return "wait"
	default:
		return fmt.Sprintf("BorrowPolicy(%d)", p)
	}
}

// ParseBorrowPolicy parses "reject" or "wait".
func ParseBorrowPolicy(s string) (BorrowPolicy, error) {
	switch s {
	case "", "reject":
		return BorrowReject, nil
	case "wait":
		return BorrowWait, nil
	default:
		return BorrowReject, fmt.Errorf("unknown borrow policy %q (expected reject or wait)", s)
	}
}

// Handle is a shared reference to a native value reachable from Lua. It
// remembers the adapter that produced it, so reloading a type under the same
// global name never invalidates existing handles.
type Handle struct {
	adapter *Adapter
	value   any
	policy  BorrowPolicy
	mu      sync.RWMutex
}

func newHandle(a *Adapter, value any, policy BorrowPolicy) *Handle {
	return &Handle{adapter: a, value: value, policy: policy}
}

// Adapter returns the adapter that produced the handle.
func (h *Handle) Adapter() *Adapter { return h.adapter }

// TypeID returns the identity of the wrapped type.
func (h *Handle) TypeID() string { return h.adapter.typeID }

// Value returns the pointer to the native value without borrowing it.
func (h *Handle) Value() any { return h.value }

// Borrow takes shared or exclusive access to the handle. The returned
// function releases it and must be called exactly once.
func (h *Handle) Borrow(exclusive bool) (release func(), err error) {
	if exclusive {
		if h.policy == BorrowWait {
			h.mu.Lock()
		} else if !h.mu.TryLock() {
			return nil, NewBorrowConflict(h.TypeID(), true)
		}
		return h.mu.Unlock, nil
	}

	if h.policy == BorrowWait {
		h.mu.RLock()
	} else if !h.mu.TryRLock() {
		return nil, NewBorrowConflict(h.TypeID(), false)
	}
	return h.mu.RUnlock, nil
}

// With runs fn with the native value under the requested borrow.
func (h *Handle) With(exclusive bool, fn func(value any) error) error {
	release, err := h.Borrow(exclusive)
	if err != nil {
		return err
	}
	defer release()
	return fn(h.value)
}

// String describes the handle. A handle that is exclusively borrowed is
// shown by address instead of being read.
func (h *Handle) String() string {
	if !h.mu.TryRLock() {
		return fmt.Sprintf("%s: %p", h.TypeID(), h.value)
	}
	defer h.mu.RUnlock()

	if idx := h.adapter.variantOf(h.value); idx >= 0 {
		return h.TypeID() + "." + h.adapter.variants[idx].Name
	}
	if s, ok := h.value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%s: %p", h.TypeID(), h.value)
}

// variant returns the name of the variant the value currently holds. It
// reports false when the value is no variant or is exclusively borrowed.
func (h *Handle) variant() (string, bool) {
	if len(h.adapter.variants) == 0 || !h.mu.TryRLock() {
		return "", false
	}
	defer h.mu.RUnlock()
	if idx := h.adapter.variantOf(h.value); idx >= 0 {
		return h.adapter.variants[idx].Name, true
	}
	return "", false
}

// equal compares two handles: variants by name, everything else by identity.
func (h *Handle) equal(other *Handle) bool {
	if h == other {
		return true
	}
	if h.TypeID() != other.TypeID() {
		return false
	}
	a, okA := h.variant()
	b, okB := other.variant()
	if okA && okB {
		return a == b
	}
	return h.value == other.value
}
