package securerand

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"

	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
)

const saltBytes = 16

func digest64(seed string) uint64 {
	sum := sha256.Sum256([]byte(seed))
	return binary.BigEndian.Uint64(sum[:8])
}

// SeededFloat maps seed onto [0, 1). Pure.
func SeededFloat(seed string) float64 {
	return float64(digest64(seed)>>11) / (1 << 53)
}

// SeededInt maps seed onto the inclusive range [min, max]. Pure.
func SeededInt(seed string, min, max int) (int, error) {
	if max < min {
		return 0, apperrors.InvalidArgument("securerand.SeededInt", fmt.Sprintf("max %d < min %d", max, min))
	}
	span := uint64(int64(max)-int64(min)) + 1
	if span == 0 {
		return int(int64(min) + int64(digest64(seed))), nil
	}
	return int(int64(min) + int64(digest64(seed)%span)), nil
}

// WeightedIndex picks an index with probability proportional to its weight,
// deterministically for a given seed. Floating-point tail rounding falls back
// to the last index.
func WeightedIndex(seed string, weights []float64) (int, error) {
	if len(weights) == 0 {
		return 0, apperrors.InvalidArgument("securerand.WeightedIndex", "weights must not be empty")
	}
	var total float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, apperrors.InvalidArgument("securerand.WeightedIndex", fmt.Sprintf("weight[%d]=%v is not a finite non-negative number", i, w))
		}
		total += w
	}
	if total <= 0 {
		return 0, apperrors.InvalidArgument("securerand.WeightedIndex", "weights must sum to a positive value")
	}
	r := SeededFloat(seed)
	var cum float64
	for i, w := range weights {
		cum += w / total
		if r < cum {
			return i, nil
		}
	}
	return len(weights) - 1, nil
}

// Seed derives the per-(game, turn) roll seed. A fresh strong salt and a
// nanosecond timestamp make it unpredictable ahead of time; recording the
// returned value makes every roll derived from it replayable.
func (s *Source) Seed(gameID string, turn int, population, balance int64) (string, error) {
	salt := make([]byte, saltBytes)
	if err := s.read(salt); err != nil {
		return "", err
	}
	h := sha256.New()
	for _, part := range []string{
		gameID,
		strconv.Itoa(turn),
		strconv.FormatInt(population, 10),
		strconv.FormatInt(balance, 10),
		hex.EncodeToString(salt),
		strconv.FormatInt(time.Now().UnixNano(), 10),
	} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Seed derives a roll seed from the default source. See Source.Seed.
func Seed(gameID string, turn int, population, balance int64) (string, error) {
	return defaultSource.Seed(gameID, turn, population, balance)
}
