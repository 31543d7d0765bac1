package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cb := New[string]("test", Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)
	}

	calls := 0
	_, err := cb.Execute(func() (string, error) {
		calls++
		return "ok", nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 0, calls)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestBreaker_PassesResults(t *testing.T) {
	cb := New[int]("test", DefaultSettings())

	v, err := cb.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestBreaker_IsSuccessfulIgnoresClientErrors(t *testing.T) {
	clientErr := errors.New("bad input")
	cb := New[int]("test", Settings{
		ConsecutiveFailures: 1,
		OpenTimeout:         time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, clientErr)
		},
	})

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, clientErr })
		assert.ErrorIs(t, err, clientErr)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
