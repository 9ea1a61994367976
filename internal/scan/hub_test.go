package scan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	"github.com/SiGentIsHere/Weblink-Shield/internal/scan"
)

func TestHub_ReplaceClosesPrevious(t *testing.T) {
	t.Parallel()

	hub := scan.NewHub(2, nil)

	first, detachFirst := hub.Attach("job")
	second, _ := hub.Attach("job")

	_, open := <-first
	assert.False(t, open, "first subscriber should be closed on replacement")
	assert.Equal(t, 1, hub.Count())

	// A stale detach must not remove the replacement.
	detachFirst()
	assert.Equal(t, 1, hub.Count())

	require.True(t, hub.Publish("job", domain.Snapshot{Status: domain.JobQueued}))
	got := <-second
	assert.Equal(t, domain.JobQueued, got.Status)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := scan.NewHub(1, nil)
	assert.False(t, hub.Publish("none", domain.Snapshot{}), "no subscriber")

	ch, detach := hub.Attach("job")
	assert.True(t, hub.Publish("job", domain.Snapshot{Status: domain.JobQueued}))
	assert.False(t, hub.Publish("job", domain.Snapshot{Status: domain.JobCoreRunning}), "buffer full")

	detach()
	detach()

	got, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, domain.JobQueued, got.Status)
	_, ok = <-ch
	assert.False(t, ok)
	assert.Zero(t, hub.Count())
}

func TestHub_Close(t *testing.T) {
	t.Parallel()

	hub := scan.NewHub(0, nil)
	ch, detach := hub.Attach("job")

	hub.Close("job")
	hub.Close("job")
	detach()

	_, ok := <-ch
	assert.False(t, ok)
}
