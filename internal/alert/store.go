package alert

import (
	"coin-tracker-bot/internal/types"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Store keeps active alerts in memory together with the set of chats that
// cleared all of their alerts. Alerts are lost when the process exits.
//
// A chat is inactive only while it has no alerts; Add always reactivates it.
type Store struct {
	mu       sync.RWMutex
	alerts   []types.Alert
	inactive map[int64]struct{}
	nextID   uint64
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		inactive: make(map[int64]struct{}),
		now:      time.Now,
	}
}

// Add registers a new alert for chatID and returns it
func (s *Store) Add(chatID int64, symbol string, target float64, direction types.Direction) types.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a := types.Alert{
		ID:        s.nextID,
		ChatID:    chatID,
		Symbol:    strings.ToUpper(symbol),
		Target:    target,
		Direction: direction,
		CreatedAt: s.now(),
	}
	s.alerts = append(s.alerts, a)
	delete(s.inactive, chatID)

	log.WithFields(log.Fields{
		"chat_id":   chatID,
		"symbol":    a.Symbol,
		"direction": a.Direction,
		"target":    a.Target,
	}).Info("Alert added")
	return a
}

// Remove deletes the stored alert with the same ID. It returns false when
// nothing matched.
func (s *Store) Remove(a types.Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID != a.ID {
			continue
		}
		s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
		log.WithFields(log.Fields{
			"chat_id":   a.ChatID,
			"symbol":    a.Symbol,
			"direction": a.Direction,
			"target":    a.Target,
		}).Info("Alert removed")
		return true
	}
	return false
}

// ListFor returns a copy of the alerts belonging to chatID in insertion order
func (s *Store) ListFor(chatID int64) []types.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Alert
	for _, a := range s.alerts {
		if a.ChatID == chatID {
			out = append(out, a)
		}
	}
	return out
}

// ClearFor drops every alert of chatID and returns how many were removed
func (s *Store) ClearFor(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if a.ChatID != chatID {
			kept = append(kept, a)
		}
	}
	removed := len(s.alerts) - len(kept)
	// zero the tail so removed alerts don't linger in the backing array
	for i := len(kept); i < len(s.alerts); i++ {
		s.alerts[i] = types.Alert{}
	}
	s.alerts = kept

	if removed > 0 {
		s.inactive[chatID] = struct{}{}
		log.WithField("chat_id", chatID).Infof("Removed %d alerts, remaining: %d", removed, len(s.alerts))
	}
	return removed
}

// Active returns a snapshot of the alerts whose chat is not inactive
func (s *Store) Active() []types.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if _, skip := s.inactive[a.ChatID]; skip {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (s *Store) IsInactive(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inactive[chatID]
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}
