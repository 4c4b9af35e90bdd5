package models

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an asset.
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
	StatusDisposed    Status = "disposed"
)

var allStatuses = []Status{StatusActive, StatusInactive, StatusMaintenance, StatusDisposed}

// Statuses returns every known status in display order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// StatusStrings returns Statuses as plain strings.
func StatusStrings() []string {
	out := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		out[i] = string(s)
	}
	return out
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts a status in any letter case.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid status %q", v)
	}
	return s, nil
}
