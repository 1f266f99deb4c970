package apperrors

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorChaining(t *testing.T) {
	errBase := New("base error")
	assert.Equal(t, "base error", errBase.Error())
	assert.ErrorIs(t, errBase, errBase)

	errDerived := errBase.New("derived")
	assert.Equal(t, "derived", errDerived.Error())
	assert.ErrorIs(t, errDerived, errBase)

	errMsg := errDerived.Msg("more context")
	assert.Equal(t, "more context", errMsg.Error())
	assert.ErrorIs(t, errMsg, errDerived)
	assert.ErrorIs(t, errMsg, errBase)

	plain := errors.New("plain error")
	errAttached := errDerived.Err(plain)
	assert.Equal(t, "derived", errAttached.Error())
	assert.ErrorIs(t, errAttached, plain)
	assert.ErrorIs(t, errAttached, errBase)

	errMsgErr := errDerived.MsgErr("wrapping", plain)
	assert.Equal(t, "wrapping", errMsgErr.Error())
	assert.ErrorIs(t, errMsgErr, plain)
	assert.ErrorIs(t, errMsgErr, errDerived)
}

func TestStatusCode(t *testing.T) {
	errBase := New("not found").SetStatusCode(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, errBase.StatusCode())

	// Derived errors inherit the code until overridden.
	errDerived := errBase.New("project not found")
	assert.Equal(t, http.StatusNotFound, errDerived.StatusCode())

	errOverride := errDerived.SetStatusCode(http.StatusGone)
	assert.Equal(t, http.StatusGone, errOverride.StatusCode())
	assert.Equal(t, http.StatusNotFound, errDerived.StatusCode())
	assert.ErrorIs(t, errOverride, errBase)
}

func TestSentinelNotMutated(t *testing.T) {
	sentinel := New("sentinel")
	_ = sentinel.SetStatusCode(http.StatusBadRequest)
	assert.Equal(t, 0, sentinel.StatusCode())
}
