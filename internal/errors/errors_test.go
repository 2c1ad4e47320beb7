package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestKindOf verifies kind extraction through wrapped chains
func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("position not found: %s", "AAPL")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))

	wrapped := fmt.Errorf("handler: %w", InsufficientQuantity("only %d held", 3))
	assert.Equal(t, KindInsufficientQuantity, KindOf(wrapped))

	unavailable := Unavailable("store failure", errors.New("connection refused"))
	assert.Equal(t, KindUnavailable, KindOf(unavailable))
	assert.Contains(t, unavailable.Error(), "connection refused")
}

// TestIs verifies kind-based matching for errors.Is
func TestIs(t *testing.T) {
	err := NotFound("no such symbol")
	assert.True(t, errors.Is(err, New(KindNotFound, "")))
	assert.False(t, errors.Is(err, New(KindInvalidArgument, "")))
}

// TestIsUserError verifies the reply-versus-log split
func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(InvalidArgument("bad input")))
	assert.True(t, IsUserError(NotFound("missing")))
	assert.True(t, IsUserError(InsufficientQuantity("too much")))
	assert.True(t, IsUserError(SessionExpired("stale")))

	assert.False(t, IsUserError(RateLimited("throttled")))
	assert.False(t, IsUserError(Unavailable("down", nil)))
	assert.False(t, IsUserError(errors.New("plain")))
}
