package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesOnCode(t *testing.T) {
	err := DegenerateInput("x has zero variance (n=%d)", 3)

	assert.True(t, Is(err, ErrDegenerateInput))
	assert.False(t, Is(err, ErrInsufficientData))
	assert.Equal(t, "x has zero variance (n=3)", err.Error())
}

func TestWrap_PreservesCode(t *testing.T) {
	base := InsufficientData("need 2 points")
	wrapped := Wrap(base, "fit capacity curve")

	assert.Equal(t, CodeInsufficientData, GetCode(wrapped))
	assert.True(t, Is(wrapped, ErrInsufficientData))
	assert.Equal(t, "fit capacity curve: need 2 points", wrapped.Error())
}

func TestWrap_ForeignErrorBecomesInternal(t *testing.T) {
	wrapped := Wrapf(fmt.Errorf("disk gone"), "load %s", "tests.xlsx")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestGetCode_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", InvalidArgument("checkpoint %d", 750))

	assert.Equal(t, CodeInvalidArgument, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}
