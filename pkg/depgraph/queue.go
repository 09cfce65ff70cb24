package depgraph

// queueRow is one unit of work in a batch: the edge that discovered this
// dependency, plus the slot its worker's result lands in.
type queueRow struct {
	Edge   Edge
	Result RowResult
}

// Queue (C4) holds the current batch's work, partitioned by source kind so
// each source's workers can be spawned without touching another source's
// rows.
type Queue struct {
	rows map[SourceKind][]queueRow
}

// NewQueue returns an empty queue with one row slice per known source.
func NewQueue() *Queue {
	q := &Queue{rows: make(map[SourceKind][]queueRow, len(SourceKinds))}
	for _, kind := range SourceKinds {
		q.rows[kind] = nil
	}
	return q
}

// Append adds one row of work for the given source.
func (q *Queue) Append(kind SourceKind, edge Edge) {
	q.rows[kind] = append(q.rows[kind], queueRow{Edge: edge})
}

// Empty reports whether every source's row list is empty — the BFS loop's
// termination condition.
func (q *Queue) Empty() bool {
	for _, kind := range SourceKinds {
		if len(q.rows[kind]) > 0 {
			return false
		}
	}
	return true
}

// RowCount returns the total number of rows queued across every source, for
// observability (batch size reporting).
func (q *Queue) RowCount() int {
	n := 0
	for _, kind := range SourceKinds {
		n += len(q.rows[kind])
	}
	return n
}

// ClearAndLoad empties the queue and refills it from next, then empties
// next. This is the only place rows move from "discovered this batch" to
// "to be fetched next batch".
func (q *Queue) ClearAndLoad(next *NextBuffer) {
	for _, kind := range SourceKinds {
		q.rows[kind] = q.rows[kind][:0]
		for _, edge := range next.edges[kind] {
			q.rows[kind] = append(q.rows[kind], queueRow{Edge: edge})
		}
		next.edges[kind] = next.edges[kind][:0]
	}
}

// NextBuffer (C4) accumulates edges discovered mid-batch, to become the next
// batch's Queue once the current one finishes reconciling.
type NextBuffer struct {
	edges map[SourceKind][]Edge
}

// NewNextBuffer returns an empty buffer.
func NewNextBuffer() *NextBuffer {
	n := &NextBuffer{edges: make(map[SourceKind][]Edge, len(SourceKinds))}
	for _, kind := range SourceKinds {
		n.edges[kind] = nil
	}
	return n
}

// Append records a newly discovered edge for the next batch.
func (n *NextBuffer) Append(kind SourceKind, edge Edge) {
	n.edges[kind] = append(n.edges[kind], edge)
}
