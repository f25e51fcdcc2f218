package apperr_test

import (
	"errors"
	"testing"

	"github.com/nova-stream/eventpipe/internal/apperr"
	"github.com/stretchr/testify/require"
)

func TestNew_IsNotRetriableByDefault(t *testing.T) {
	err := apperr.New("CODE", "boom", nil)

	require.False(t, apperr.IsRetriable(err))
	require.Equal(t, apperr.Code("CODE"), apperr.CodeOf(err))
}

func TestNewRetriable_IsRetriable(t *testing.T) {
	err := apperr.NewRetriable("CODE", "boom", nil)

	require.True(t, apperr.IsRetriable(err))
}

func TestIsRetriable_FalseForPlainError(t *testing.T) {
	require.False(t, apperr.IsRetriable(errors.New("not an app error")))
}

func TestIsRetriable_FalseForNil(t *testing.T) {
	require.False(t, apperr.IsRetriable(nil))
}

func TestIsRetriable_UnwrapsWrappedError(t *testing.T) {
	inner := apperr.NewRetriable("CODE", "boom", nil)
	wrapped := errors.Join(inner)

	require.True(t, apperr.IsRetriable(wrapped))
}

func TestWrap_PreservesCodeAndRetriable(t *testing.T) {
	inner := apperr.NewRetriable("CODE", "original", errors.New("cause"))

	wrapped := apperr.Wrap(inner, "context added")

	require.Equal(t, apperr.Code("CODE"), wrapped.Code)
	require.True(t, wrapped.Retriable)
	require.ErrorIs(t, wrapped, inner)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	require.Nil(t, apperr.Wrap(nil, "context"))
}

func TestWrap_NonAppErrorGetsUnknownCode(t *testing.T) {
	wrapped := apperr.Wrap(errors.New("plain"), "context")

	require.Equal(t, apperr.CodeUnknown, wrapped.Code)
	require.False(t, wrapped.Retriable)
}

func TestCodeOf_UnknownForNonAppError(t *testing.T) {
	require.Equal(t, apperr.CodeUnknown, apperr.CodeOf(errors.New("plain")))
}

func TestIs_MatchesCode(t *testing.T) {
	err := apperr.New("SPECIFIC", "boom", nil)

	require.True(t, apperr.Is(err, "SPECIFIC"))
	require.False(t, apperr.Is(err, "OTHER"))
}

func TestError_IncludesCauseWhenPresent(t *testing.T) {
	err := apperr.New("CODE", "boom", errors.New("root cause"))

	require.Contains(t, err.Error(), "root cause")
	require.Contains(t, err.Error(), "boom")
}

func TestError_OmitsCauseWhenAbsent(t *testing.T) {
	err := apperr.New("CODE", "boom", nil)

	require.Equal(t, "CODE: boom", err.Error())
}
