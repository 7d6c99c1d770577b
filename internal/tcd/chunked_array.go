package tcd

// defaultChunkSize is the fixed chunk length K = min(maxEntries, 1024) of
// spec.md §4.1, grounded on original_source's Precinct.h `kChunkSize`.
const defaultChunkSize = 1024

// Initializer sets up a freshly materialized slot. It is the caller-
// supplied callback of spec.md §4.1 ("constructed lazily via a caller-
// supplied initializer which sets the block's rectangle from the precinct
// geometry").
type Initializer[T any] func(item *T, index uint64)

// ChunkedArray is a sparse, append-only, index-addressable store of *T,
// bucketed into fixed-size chunks so that a precinct with tens of
// thousands of code blocks doesn't pay for blocks a region decode never
// visits. Grounded on original_source/src/lib/jp2/t1/Precinct.h's
// ChunkedArray<T,P>.
type ChunkedArray[T any] struct {
	chunkSize      uint64
	init           Initializer[T]
	chunks         map[uint64][]*T
	currChunk      []*T
	currChunkIndex uint64
	haveCurrent    bool
}

// NewChunkedArray creates a ChunkedArray sized for maxEntries total slots,
// with chunk length min(maxEntries, 1024).
func NewChunkedArray[T any](maxEntries uint64, init Initializer[T]) *ChunkedArray[T] {
	size := maxEntries
	if size == 0 || size > defaultChunkSize {
		size = defaultChunkSize
	}
	return &ChunkedArray[T]{
		chunkSize: size,
		init:      init,
		chunks:    make(map[uint64][]*T),
	}
}

// Get materializes (if necessary) and returns the item at index. The chunk
// containing index is materialized on first access and cached as the "hot
// chunk" so sequential scans are O(1) amortized.
func (c *ChunkedArray[T]) Get(index uint64) *T {
	chunkIndex := index / c.chunkSize
	itemIndex := index % c.chunkSize

	if !c.haveCurrent || chunkIndex != c.currChunkIndex {
		chunk, ok := c.chunks[chunkIndex]
		if !ok {
			chunk = make([]*T, c.chunkSize)
			c.chunks[chunkIndex] = chunk
		}
		c.currChunk = chunk
		c.currChunkIndex = chunkIndex
		c.haveCurrent = true
	}

	item := c.currChunk[itemIndex]
	if item == nil {
		item = new(T)
		if c.init != nil {
			c.init(item, index)
		}
		c.currChunk[itemIndex] = item
	}
	return item
}

// MaterializedCount returns the number of slots that have actually been
// touched, across all chunks. Test/diagnostic use only.
func (c *ChunkedArray[T]) MaterializedCount() int {
	n := 0
	for _, chunk := range c.chunks {
		for _, item := range chunk {
			if item != nil {
				n++
			}
		}
	}
	return n
}

// ChunkCount returns the number of chunks materialized so far.
func (c *ChunkedArray[T]) ChunkCount() int {
	return len(c.chunks)
}
