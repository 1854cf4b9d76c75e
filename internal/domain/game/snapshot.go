package game

import (
	"sort"
	"strings"
	"time"
)

type Status string

const (
	StatusActive         Status = "active"
	StatusWonIPO         Status = "won_ipo"
	StatusWonAcquisition Status = "won_acquisition"
	StatusLostBankrupt   Status = "lost_bankrupt"
	StatusLostTrust      Status = "lost_trust"
	StatusLostOutage     Status = "lost_outage"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusWonIPO, StatusWonAcquisition, StatusLostBankrupt, StatusLostTrust, StatusLostOutage:
		return true
	}
	return false
}

// Terminal statuses are absorbing: once reached, a game never leaves them.
func (s Status) Terminal() bool {
	return s.Valid() && s != StatusActive
}

func (s Status) Lost() bool {
	return s == StatusLostBankrupt || s == StatusLostTrust || s == StatusLostOutage
}

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyNormal    Difficulty = "normal"
	DifficultyHard      Difficulty = "hard"
	DifficultyNightmare Difficulty = "nightmare"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyNightmare:
		return true
	}
	return false
}

// Snapshot is a point-in-time read-only view of one game's mutable state.
// It is passed by value; nothing in this module mutates a caller's snapshot.
type Snapshot struct {
	GameID       string     `json:"gameId"`
	Turn         int        `json:"turn"`
	Population   int64      `json:"population"`
	Balance      int64      `json:"balance"`
	Trust        float64    `json:"trust"`
	Capabilities []string   `json:"capabilities"`
	Status       Status     `json:"status"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
	Capacity     int64      `json:"capacity,omitempty"`
	ProfitStreak int        `json:"profitStreak,omitempty"`
	LossStreak   int        `json:"lossStreak,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasCapability reports whether tag is present. Capability tags are
// case-sensitive everywhere, so "EC2" and "ec2" are distinct.
func (s Snapshot) HasCapability(tag string) bool {
	tag = strings.TrimSpace(tag)
	for _, c := range s.Capabilities {
		if strings.TrimSpace(c) == tag {
			return true
		}
	}
	return false
}

// CapabilitySet returns the capabilities deduplicated and sorted.
func (s Snapshot) CapabilitySet() []string {
	return NormalizeTags(s.Capabilities)
}

// Clone returns a copy whose capability slice does not alias s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Capabilities = append([]string(nil), s.Capabilities...)
	return out
}

// NormalizeTags trims, drops empties, deduplicates and sorts tags.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
