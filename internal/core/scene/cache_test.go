package scene

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree() *LiveNode {
	return &LiveNode{ID: 1, Blueprint: 0xA, Children: []LiveNode{
		{ID: 3, Blueprint: 0xA, Children: []LiveNode{{ID: 5, Blueprint: 0xB}}},
		{ID: 2, Blueprint: 0xA},
	}}
}

func ids(s *Snapshot) []EntityID {
	var out []EntityID
	for n := range s.Walk() {
		out = append(out, n.ID())
	}
	return out
}

func TestEmptyCache(t *testing.T) {
	c := NewCache(nil)
	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.True(t, snap.Empty())
	assert.Zero(t, snap.Generation())
	assert.Empty(t, ids(snap))

	_, err := c.Rebuild(context.Background())
	assert.ErrorIs(t, err, ErrNoEnumerator)
}

func TestRebuildInstallsSnapshot(t *testing.T) {
	live := tree()
	c := NewCache(EnumeratorFunc(func(context.Context) (*LiveNode, error) { return live, nil }))

	snap, err := c.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, c.Snapshot())
	assert.Equal(t, uint64(1), snap.Generation())
	assert.Equal(t, 4, snap.Nodes())
	assert.Equal(t, []EntityID{1, 2, 3, 5}, ids(snap))

	child, ok := snap.Root().Child(3)
	require.True(t, ok)
	assert.Equal(t, 1, child.Len())
	_, ok = snap.Root().Child(4)
	assert.False(t, ok)
}

func TestSnapshotIsolation(t *testing.T) {
	live := tree()
	c := NewCache(EnumeratorFunc(func(context.Context) (*LiveNode, error) { return live, nil }))
	first, err := c.Rebuild(context.Background())
	require.NoError(t, err)
	before := ids(first)
	fp := first.Fingerprint()

	// the live hierarchy changes and is rebuilt; the old snapshot must not notice
	live.Children = append(live.Children, LiveNode{ID: 9})
	live.Children[0].Children[0].Blueprint = 0xC
	second, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, ids(first))
	assert.Equal(t, fp, first.Fingerprint())
	n, _ := first.Root().Child(3)
	m, _ := n.Child(5)
	assert.Equal(t, BlueprintHash(0xB), m.Blueprint())

	assert.Equal(t, []EntityID{1, 2, 3, 9, 5}, ids(second))
	assert.Equal(t, uint64(2), second.Generation())
	assert.NotEqual(t, fp, second.Fingerprint())
}

func TestFingerprintStableForUnchangedHierarchy(t *testing.T) {
	c := NewCache(EnumeratorFunc(func(context.Context) (*LiveNode, error) { return tree(), nil }))
	a, err := c.Rebuild(context.Background())
	require.NoError(t, err)
	b, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestDuplicateSiblingIDsLaterWins(t *testing.T) {
	c := NewCache(nil)
	snap := c.Install(&LiveNode{ID: 1, Children: []LiveNode{
		{ID: 2, Blueprint: 0xA, Children: []LiveNode{{ID: 7}, {ID: 8}}},
		{ID: 2, Blueprint: 0xB},
	}})

	assert.Equal(t, 2, snap.Nodes())
	child, ok := snap.Root().Child(2)
	require.True(t, ok)
	assert.Equal(t, BlueprintHash(0xB), child.Blueprint())
}

func TestInstallNilUnloads(t *testing.T) {
	c := NewCache(nil)
	c.Install(tree())
	snap := c.Install(nil)
	assert.True(t, snap.Empty())
	assert.Equal(t, uint64(2), snap.Generation())
}

func TestRebuildError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCache(EnumeratorFunc(func(context.Context) (*LiveNode, error) { return nil, boom }))
	c.Install(tree())

	_, err := c.Rebuild(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), c.Snapshot().Generation())
}

func TestConcurrentRebuildsCoalesce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	c := NewCache(EnumeratorFunc(func(context.Context) (*LiveNode, error) {
		calls.Add(1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return tree(), nil
	}))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*Snapshot, callers)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = c.Rebuild(context.Background())
	}()
	<-started
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.Rebuild(context.Background())
		}()
	}
	// give the followers time to join the in-flight rebuild
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestCancelledCallerDoesNotFailJoinedRebuild(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	c := NewCache(EnumeratorFunc(func(ctx context.Context) (*LiveNode, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return tree(), nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Rebuild(ctx)
		firstErr <- err
	}()
	<-started

	type result struct {
		snap *Snapshot
		err  error
	}
	second := make(chan result, 1)
	go func() {
		snap, err := c.Rebuild(context.Background())
		second <- result{snap, err}
	}()
	// let the second caller join the in-flight rebuild
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, []EntityID{1, 2, 3, 5}, ids(r.snap))
	case <-time.After(time.Second):
		t.Fatal("joined rebuild did not finish")
	}

	_, err := c.Rebuild(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadersDuringRebuilds(t *testing.T) {
	c := NewCache(EnumeratorFunc(func(context.Context) (*LiveNode, error) { return tree(), nil }))
	_, err := c.Rebuild(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				snap := c.Snapshot()
				assert.Equal(t, []EntityID{1, 2, 3, 5}, ids(snap))
			}
		}()
	}
	for range 20 {
		_, err := c.Rebuild(context.Background())
		require.NoError(t, err)
	}
	cancel()
	wg.Wait()
	assert.Equal(t, uint64(21), c.Snapshot().Generation())
}

func TestEdgesCarryParents(t *testing.T) {
	c := NewCache(nil)
	snap := c.Install(tree())

	parents := map[EntityID]EntityID{}
	for e := range snap.Edges() {
		if e.Parent == nil {
			assert.Equal(t, EntityID(1), e.Node.ID())
			continue
		}
		parents[e.Node.ID()] = e.Parent.ID()
	}
	assert.Equal(t, map[EntityID]EntityID{2: 1, 3: 1, 5: 3}, parents)
}
