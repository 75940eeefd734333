package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRejectsNonPositiveInterval(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Every("refresh", 0, func() {}))
	assert.Equal(t, 0, s.Len())
}

func TestEveryRunsTask(t *testing.T) {
	s := New(nil)
	ran := make(chan struct{}, 4)
	require.NoError(t, s.Every("refresh", 50*time.Millisecond, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))
	assert.Equal(t, 1, s.Len())

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}
