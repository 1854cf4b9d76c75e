package integrity

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
)

// Domain prefix for the snapshot digest; the version suffix allows a later
// change of canonical form without colliding with old checkpoints.
const hashDomain = "cloudsim/snapshot/v1"

// canonicalSnapshot is the hashed field subset. Field order is fixed by the
// struct and capabilities are deduplicated and sorted before hashing, so
// collection order never changes the digest. UpdatedAt is excluded because
// it changes on every save.
type canonicalSnapshot struct {
	GameID       string   `json:"game_id"`
	Turn         int      `json:"turn"`
	Population   int64    `json:"population"`
	Balance      int64    `json:"balance"`
	Trust        string   `json:"trust"`
	Capabilities []string `json:"capabilities"`
	Status       string   `json:"status"`
	Difficulty   string   `json:"difficulty"`
	Capacity     int64    `json:"capacity"`
	ProfitStreak int      `json:"profit_streak"`
	LossStreak   int      `json:"loss_streak"`
}

// Hasher computes tamper-evidence digests with keyed BLAKE2b-256. An empty key
// gives a plain digest.
type Hasher struct {
	key []byte
}

func NewHasher(key []byte) (*Hasher, error) {
	if len(key) > blake2b.Size {
		return nil, apperrors.InvalidArgument("integrity.NewHasher", fmt.Sprintf("key longer than %d bytes", blake2b.Size))
	}
	return &Hasher{key: append([]byte(nil), key...)}, nil
}

func canonicalize(s game.Snapshot) ([]byte, error) {
	caps := s.CapabilitySet()
	if caps == nil {
		caps = []string{}
	}
	return json.Marshal(canonicalSnapshot{
		GameID:       s.GameID,
		Turn:         s.Turn,
		Population:   s.Population,
		Balance:      s.Balance,
		Trust:        strconv.FormatFloat(s.Trust, 'f', 4, 64),
		Capabilities: caps,
		Status:       string(s.Status),
		Difficulty:   string(s.Difficulty),
		Capacity:     s.Capacity,
		ProfitStreak: s.ProfitStreak,
		LossStreak:   s.LossStreak,
	})
}

// ComputeHash returns the hex digest of the canonical form of s.
func (h *Hasher) ComputeHash(s game.Snapshot) (string, error) {
	data, err := canonicalize(s)
	if err != nil {
		return "", fmt.Errorf("canonicalize snapshot: %w", err)
	}
	d, err := blake2b.New256(h.key)
	if err != nil {
		return "", fmt.Errorf("init digest: %w", err)
	}
	d.Write([]byte(hashDomain))
	d.Write([]byte{0x00})
	d.Write(data)
	return hex.EncodeToString(d.Sum(nil)), nil
}

// VerifyHash reports whether expected matches the digest of s.
func (h *Hasher) VerifyHash(s game.Snapshot, expected string) (bool, error) {
	got, err := h.ComputeHash(s)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1, nil
}
