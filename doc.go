// Package gridgo provides a windowed block cache for displaying tabular
// data sets far larger than memory.
//
// A consumer (typically a table widget) reports the visible row range and
// an instantaneous scroll speed; the Engine partitions the logical row
// space into fixed-size blocks, fetches the blocks covering the visible
// range asynchronously from a Source, speculatively preloads blocks around
// the visible center according to a tunable policy, and evicts blocks that
// fall out of the working set.
//
// # Quick Start
//
//	src, _ := csv.Open("huge.csv")
//	eng := gridgo.NewEngine(src)
//	defer eng.Close()
//
//	eng.OnRangeChanged(func(top, bottom int) {
//	    // repaint rows top..bottom
//	})
//
//	eng.SetVisibleRange(0, 49)
//	v, ok := eng.Get(3, 1) // ok=false means the block is still loading
//
// Cell lookups never block: Get returns immediately with ok=false for rows
// whose block has not arrived yet, and triggers a high-priority load for
// that block as a side effect. Completed loads are announced through the
// registered range-changed listeners.
//
// # Sources
//
// Any type implementing Source can back an Engine. The csv subpackage
// provides a lazily indexed, memory-mapped source for delimited text
// files; MemorySource generates synthetic data for demos and tests.
package gridgo
