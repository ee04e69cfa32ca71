// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statemachine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrInvalidTransition is returned when a transition is not in the table.
var ErrInvalidTransition = errors.New("invalid transition")

// TransitionHook runs after a transition has been accepted.
type TransitionHook[T comparable] func(from, to T)

// Rules is a transition table shared by many records of the same kind. It
// holds no current state itself; callers keep the state on their records and
// ask the table before writing a new one.
type Rules[T comparable] struct {
	mu           sync.RWMutex
	transitions  map[T][]T
	onTransition []TransitionHook[T]
}

// NewRules creates an empty transition table.
func NewRules[T comparable]() *Rules[T] {
	return &Rules[T]{transitions: make(map[T][]T)}
}

// Allow registers from -> to for every target.
func (r *Rules[T]) Allow(from T, to ...T) *Rules[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range to {
		if !slices.Contains(r.transitions[from], t) {
			r.transitions[from] = append(r.transitions[from], t)
		}
	}
	return r
}

// OnTransition registers a hook called after every accepted transition.
func (r *Rules[T]) OnTransition(h TransitionHook[T]) *Rules[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTransition = append(r.onTransition, h)
	return r
}

// CanTransition reports whether from -> to is allowed. Staying in the same
// state is always allowed.
func (r *Rules[T]) CanTransition(from, to T) bool {
	if from == to {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.transitions[from], to)
}

// Transition validates from -> to and fires the hooks.
func (r *Rules[T]) Transition(from, to T) error {
	if !r.CanTransition(from, to) {
		return fmt.Errorf("%w: %v → %v", ErrInvalidTransition, from, to)
	}
	if from == to {
		return nil
	}
	r.mu.RLock()
	hooks := slices.Clone(r.onTransition)
	r.mu.RUnlock()
	for _, h := range hooks {
		h(from, to)
	}
	return nil
}

// NextStates lists the states reachable from `from` in registration order.
func (r *Rules[T]) NextStates(from T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.transitions[from])
}

// IsTerminal reports whether no transition leaves the state.
func (r *Rules[T]) IsTerminal(state T) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.transitions[state]) == 0
}
