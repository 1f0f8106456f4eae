// Package kvstore abstracts a networked key-value store with TTL support and
// all-or-nothing batched writes.
//
// Business code should depend on the Store interface so the concrete backend
// (Redis in production, an in-memory fake in tests) can be swapped without
// touching domain logic. The contract is deliberately narrow: plain string
// keys with TTL, atomic increments, hashes, key scans, and an atomic
// multi-command batch for paired writes that must never be half-visible.
package kvstore
