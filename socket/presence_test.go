package socket

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddRemoveSnapshot(t *testing.T) {
	reg := NewRegistry()

	reg.Add("doc-1", "conn-1", "user-1", "alice")
	reg.Add("doc-1", "conn-2", "user-2", "bob")
	reg.Add("doc-1", "conn-3", "user-3", "carol")

	roster := reg.Snapshot("doc-1")
	require.Len(t, roster, 3)
	// Insertion order, stable for deterministic display.
	assert.Equal(t, []string{"alice", "bob", "carol"},
		[]string{roster[0].Username, roster[1].Username, roster[2].Username})

	docID, entry, ok := reg.Remove("conn-2")
	require.True(t, ok)
	assert.Equal(t, "doc-1", docID)
	assert.Equal(t, "bob", entry.Username)

	roster = reg.Snapshot("doc-1")
	require.Len(t, roster, 2)
	assert.Equal(t, "alice", roster[0].Username)
	assert.Equal(t, "carol", roster[1].Username)
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Add("doc-1", "conn-1", "user-1", "alice")

	_, _, ok := reg.Remove("conn-1")
	assert.True(t, ok)

	// Duplicate disconnect signal.
	_, _, ok = reg.Remove("conn-1")
	assert.False(t, ok)
	_, _, ok = reg.Remove("never-existed")
	assert.False(t, ok)
}

func TestRegistryLocatesRoomByConnectionAlone(t *testing.T) {
	reg := NewRegistry()
	reg.Add("doc-1", "conn-1", "user-1", "alice")
	reg.Add("doc-2", "conn-2", "user-2", "bob")

	docID, entry, ok := reg.Remove("conn-2")
	require.True(t, ok)
	assert.Equal(t, "doc-2", docID)
	assert.Equal(t, "user-2", entry.UserID)
	// doc-1 untouched.
	assert.Len(t, reg.Snapshot("doc-1"), 1)
}

func TestRegistryJoinLeaveCounts(t *testing.T) {
	reg := NewRegistry()

	const joins = 20
	const leaves = 7
	for i := 0; i < joins; i++ {
		reg.Add("doc-1", fmt.Sprintf("conn-%d", i), fmt.Sprintf("user-%d", i), "u")
	}
	for i := 0; i < leaves; i++ {
		_, _, ok := reg.Remove(fmt.Sprintf("conn-%d", i))
		require.True(t, ok)
	}

	roster := reg.Snapshot("doc-1")
	assert.Len(t, roster, joins-leaves)

	seen := map[string]bool{}
	for _, e := range roster {
		assert.False(t, seen[e.ConnID], "duplicate connection id in roster")
		seen[e.ConnID] = true
	}
}

func TestRegistryEvict(t *testing.T) {
	reg := NewRegistry()
	reg.Add("doc-1", "conn-1", "user-1", "alice")
	reg.Add("doc-1", "conn-2", "user-2", "bob")
	reg.Add("doc-2", "conn-3", "user-3", "carol")

	conns := reg.Evict("doc-1")
	assert.ElementsMatch(t, []string{"conn-1", "conn-2"}, conns)
	assert.Empty(t, reg.Snapshot("doc-1"))
	assert.Len(t, reg.Snapshot("doc-2"), 1)

	// Evicted connections are gone from the index too.
	_, _, ok := reg.Remove("conn-1")
	assert.False(t, ok)
}

func TestRegistrySameRoomChurn(t *testing.T) {
	reg := NewRegistry()

	// Short-lived connections churn one room while persistent members
	// keep joining it, so empty-room cleanup races concurrent Adds.
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				connID := fmt.Sprintf("churn-%d-%d", g, i)
				reg.Add("doc-1", connID, "user", "name")
				_, _, ok := reg.Remove(connID)
				assert.True(t, ok, "just-added connection must be removable")
			}
		}(g)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			reg.Add("doc-1", fmt.Sprintf("stay-%d", i), "user", "name")
			reg.Snapshot("doc-1")
		}
	}()
	wg.Wait()

	// Every persistent member survived the churn and stays reachable
	// through the connection index.
	assert.Len(t, reg.Snapshot("doc-1"), 50)
	for i := 0; i < 50; i++ {
		_, _, ok := reg.Remove(fmt.Sprintf("stay-%d", i))
		assert.True(t, ok, "persistent member lost by room cleanup race")
	}
	assert.Empty(t, reg.Snapshot("doc-1"))
}

func TestRegistryConcurrentRooms(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for d := 0; d < 8; d++ {
		docID := fmt.Sprintf("doc-%d", d)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				connID := fmt.Sprintf("%s-conn-%d", docID, i)
				reg.Add(docID, connID, "user", "name")
			}
			for i := 0; i < 25; i++ {
				reg.Remove(fmt.Sprintf("%s-conn-%d", docID, i))
			}
		}()
	}
	wg.Wait()

	for d := 0; d < 8; d++ {
		assert.Len(t, reg.Snapshot(fmt.Sprintf("doc-%d", d)), 25)
	}
}
