package gridgo

// block is a contiguous fixed-size run of rows cached as a unit.
// Blocks are owned exclusively by the Engine: created lazily (invalid,
// empty) on first reference, populated on load completion, destroyed on
// eviction.
type block struct {
	startRow   int
	count      int
	rows       []Row
	valid      bool
	lastAccess int64 // unix millis; only ever increases
}

// blockIndexFor maps a row to its owning block.
func blockIndexFor(row, blockSize int) int {
	return row / blockSize
}

// totalBlocksFor returns the number of blocks covering rowCount rows.
func totalBlocksFor(rowCount, blockSize int) int {
	if rowCount <= 0 {
		return 0
	}
	return (rowCount + blockSize - 1) / blockSize
}

// blockExtent returns the row extent [start, start+count) of blockIndex,
// clamped to rowCount. count is 0 for blocks beyond the end of data.
func blockExtent(blockIndex, blockSize, rowCount int) (startRow, count int) {
	startRow = blockIndex * blockSize
	if startRow >= rowCount {
		return startRow, 0
	}
	count = blockSize
	if startRow+count > rowCount {
		count = rowCount - startRow
	}
	return startRow, count
}
