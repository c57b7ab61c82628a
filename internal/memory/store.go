// Package memory provides the bounded conversation log an agent sends to
// its model on every step.
package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nugget/agentic/internal/llm"
)

// DefaultMaxTurns bounds a Store created with a non-positive limit.
const DefaultMaxTurns = 60

// EvictionPolicy decides which turn goes when the log is over its bound.
type EvictionPolicy int

const (
	// EvictOldest drops the oldest turn, whatever its role.
	EvictOldest EvictionPolicy = iota
	// PinSystem drops the oldest non-system turn and keeps system turns
	// for as long as anything else can go instead.
	PinSystem
)

func (p EvictionPolicy) String() string {
	switch p {
	case EvictOldest:
		return "oldest"
	case PinSystem:
		return "pin_system"
	default:
		return fmt.Sprintf("EvictionPolicy(%d)", int(p))
	}
}

// ParseEvictionPolicy maps a config value to a policy. Empty selects
// EvictOldest.
func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oldest", "evict_oldest":
		return EvictOldest, nil
	case "pin_system", "pin-system", "system":
		return PinSystem, nil
	default:
		return EvictOldest, fmt.Errorf("unknown eviction policy %q (want oldest or pin_system)", s)
	}
}

// Store is an ordered, bounded log of conversation turns. Turns are
// copied in and copied out, so nothing a caller holds can change what
// the store has recorded. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	turns    []llm.Message
	maxTurns int
	policy   EvictionPolicy
	appended int
	evicted  int
}

// NewStore creates an empty store holding at most maxTurns turns.
func NewStore(maxTurns int, policy EvictionPolicy) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{
		turns:    make([]llm.Message, 0, maxTurns+1),
		maxTurns: maxTurns,
		policy:   policy,
	}
}

// Append records a turn, then evicts until the store is back within
// its bound.
func (s *Store) Append(turn llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn.Clone())
	s.appended++

	for len(s.turns) > s.maxTurns {
		s.evictOne()
	}
}

// evictOne removes a single turn according to the policy. Caller holds mu.
func (s *Store) evictOne() {
	idx := 0
	if s.policy == PinSystem {
		idx = -1
		for i, t := range s.turns {
			if t.Role != llm.RoleSystem {
				idx = i
				break
			}
		}
		// Nothing but system turns left; the oldest one goes.
		if idx < 0 {
			idx = 0
		}
	}
	copy(s.turns[idx:], s.turns[idx+1:])
	s.turns[len(s.turns)-1] = llm.Message{}
	s.turns = s.turns[:len(s.turns)-1]
	s.evicted++
}

// Snapshot returns a copy of the retained turns, oldest first.
func (s *Store) Snapshot() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]llm.Message, len(s.turns))
	for i, t := range s.turns {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of retained turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// MaxTurns returns the bound.
func (s *Store) MaxTurns() int { return s.maxTurns }

// Policy returns the eviction policy.
func (s *Store) Policy() EvictionPolicy { return s.policy }

// EstimateTokens returns a rough token count for the retained turns.
func (s *Store) EstimateTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, t := range s.turns {
		total += len(t.Content) / 4 // ~4 chars per token
		for _, tc := range t.ToolCalls {
			total += (len(tc.Function.Name) + len(tc.Function.Arguments)) / 4
		}
	}
	return total
}

// Stats returns memory statistics.
func (s *Store) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make(map[string]int)
	for _, t := range s.turns {
		roles[t.Role]++
	}
	return map[string]any{
		"turns":     len(s.turns),
		"max_turns": s.maxTurns,
		"appended":  s.appended,
		"evicted":   s.evicted,
		"policy":    s.policy.String(),
		"roles":     roles,
	}
}
