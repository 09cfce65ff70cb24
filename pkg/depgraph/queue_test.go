package depgraph_test

import (
	"testing"

	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/stretchr/testify/assert"
)

func TestQueueEmptyInitially(t *testing.T) {
	q := depgraph.NewQueue()
	assert.True(t, q.Empty())
}

func TestQueueAppendMakesNonEmpty(t *testing.T) {
	q := depgraph.NewQueue()
	q.Append(depgraph.SourcePkg, depgraph.Edge{To: 0})
	assert.False(t, q.Empty())
}

func TestQueueClearAndLoadDrainsNextIntoQueue(t *testing.T) {
	q := depgraph.NewQueue()
	q.Append(depgraph.SourcePkg, depgraph.Edge{To: 0})

	next := depgraph.NewNextBuffer()
	next.Append(depgraph.SourceGit, depgraph.Edge{To: 1})

	q.ClearAndLoad(next)
	assert.False(t, q.Empty())

	// Draining again with an empty next buffer empties the queue.
	q.ClearAndLoad(depgraph.NewNextBuffer())
	assert.True(t, q.Empty())
}
