package types

import (
	"strings"
	"time"
)

// Direction tells which side of the target an alert fires on
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection maps a command name ("up", "down") to a Direction
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Up:
		return Up, true
	case Down:
		return Down, true
	}
	return "", false
}

type Alert struct {
	ID        uint64    `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Symbol    string    `json:"symbol"`
	Target    float64   `json:"target"`
	Direction Direction `json:"direction"`
	CreatedAt time.Time `json:"created_at"`
}

// Triggered reports whether price satisfies the alert condition
func (a Alert) Triggered(price float64) bool {
	switch a.Direction {
	case Up:
		return price >= a.Target
	case Down:
		return price <= a.Target
	}
	return false
}
