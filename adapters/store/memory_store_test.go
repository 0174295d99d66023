package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agora-market/admission/ports"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "k", "v", 0))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", got)

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, ports.ErrRecordNotFound)
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "k", "v", time.Nanosecond))
	time.Sleep(time.Millisecond)

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, ports.ErrRecordNotFound)
	require.Zero(t, s.Len())
}

func TestMemoryStoreDeleteReportsRemoval(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "k", "v", 0))

	removed, err := s.Delete(ctx, "k")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = s.Delete(ctx, "k")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestMemoryStoreDeleteIgnoresLapsedEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "k", "v", time.Nanosecond))
	time.Sleep(time.Millisecond)

	// Redis DEL counts expired keys as absent; a dead record must not
	// report as a removal.
	removed, err := s.Delete(ctx, "k")
	require.NoError(t, err)
	require.False(t, removed)
	require.Zero(t, s.Len())
}

func TestMemoryStoreDeleteIsConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "k", "v", 0))

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			removed, _ := s.Delete(ctx, "k")
			wins <- removed
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for removed := range wins {
		if removed {
			winners++
		}
	}
	require.Equal(t, 1, winners)
}
