package securerand

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
)

const (
	minTokenLen = 1
	maxTokenLen = 1024
)

// UUIDv4 returns a random RFC 4122 version 4 identifier.
func (s *Source) UUIDv4() (string, error) {
	id, err := uuid.NewRandomFromReader(s.r)
	if err != nil {
		return "", apperrors.New(apperrors.CodeExhaustedEntropy, "securerand.UUIDv4", apperrors.ErrExhaustedEntropy, err.Error())
	}
	return id.String(), nil
}

// OpaqueToken returns n strong random bytes, base64url encoded without
// padding.
func (s *Source) OpaqueToken(n int) (string, error) {
	if n < minTokenLen || n > maxTokenLen {
		return "", apperrors.InvalidArgument("securerand.OpaqueToken", fmt.Sprintf("length %d outside [%d,%d]", n, minTokenLen, maxTokenLen))
	}
	buf := make([]byte, n)
	if err := s.read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// UUIDv4 returns a version 4 identifier from the default source.
func UUIDv4() (string, error) { return defaultSource.UUIDv4() }

// OpaqueToken returns an n-byte base64url token from the default source.
func OpaqueToken(n int) (string, error) { return defaultSource.OpaqueToken(n) }
