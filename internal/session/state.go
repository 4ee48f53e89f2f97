// Package session holds the per-attempt navigation state of a test taker
// and the stores that keep it between requests.
package session

import (
	"math/rand/v2"
	"slices"
	"strconv"
)

// State is the progress of one client through one test.
//
// Order is fixed at initialization. Index only moves by one step at a time.
// Locked holds indices that can no longer be returned to.
type State struct {
	Order   []uint          `json:"order"`
	Index   int             `json:"index"`
	Answers map[string]uint `json:"answers"`
	Locked  []int           `json:"locked"`
}

// NewState draws a random order of at most n ids out of bank.
// A non-positive n keeps the whole bank.
func NewState(bank []uint, n int) *State {
	order := slices.Clone(bank)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	if n > 0 && n < len(order) {
		order = order[:n]
	}

	return &State{
		Order:   order,
		Index:   0,
		Answers: map[string]uint{},
		Locked:  []int{},
	}
}

// Len is the number of questions in the attempt
func (s *State) Len() int {
	return len(s.Order)
}

// Valid reports whether the state can be navigated
func (s *State) Valid() bool {
	return s != nil && len(s.Order) > 0 && s.Index >= 0 && s.Index < len(s.Order)
}

// Current returns the question id at the current index
func (s *State) Current() (uint, bool) {
	if !s.Valid() {
		return 0, false
	}
	return s.Order[s.Index], true
}

// IsLast reports whether the current question is the final one
func (s *State) IsLast() bool {
	return s.Index == len(s.Order)-1
}

// IsLocked reports whether index i was locked by a timed question
func (s *State) IsLocked(i int) bool {
	_, found := slices.BinarySearch(s.Locked, i)
	return found
}

// CanRetreat reports whether Retreat would move
func (s *State) CanRetreat() bool {
	return s.Index > 0 && !s.IsLocked(s.Index-1)
}

// Selected returns the stored answer for a question
func (s *State) Selected(questionID uint) (uint, bool) {
	id, ok := s.Answers[answerKey(questionID)]
	return id, ok
}

// RecordAnswer stores the selection for the current question, if any, and
// locks the current index when the question forbids coming back to it.
// Locking happens even without a selection.
func (s *State) RecordAnswer(selected *uint, locksBack bool) {
	current, ok := s.Current()
	if !ok {
		return
	}

	if selected != nil {
		if s.Answers == nil {
			s.Answers = map[string]uint{}
		}
		s.Answers[answerKey(current)] = *selected
	}

	if locksBack {
		s.lock(s.Index)
	}
}

// Advance moves to the next question. It returns false on the last one,
// which means the attempt should be finalized.
func (s *State) Advance() bool {
	if s.Index < len(s.Order)-1 {
		s.Index++
		return true
	}
	return false
}

// Retreat moves back one question unless the previous one is locked.
// A blocked retreat is not an error, the caller simply re-renders.
func (s *State) Retreat() bool {
	if !s.CanRetreat() {
		return false
	}
	s.Index--
	return true
}

func (s *State) lock(i int) {
	pos, found := slices.BinarySearch(s.Locked, i)
	if !found {
		s.Locked = slices.Insert(s.Locked, pos, i)
	}
}

func answerKey(questionID uint) string {
	return strconv.FormatUint(uint64(questionID), 10)
}
