// Package csv implements a gridgo.Source over delimited text files that
// never scans the whole file up front.
//
// Row byte-offsets are discovered incrementally, by scanning forward
// from the last known offset in bounded memory-mapped windows, only as
// far as the highest row requested so far. Parsed rows are kept in a
// bounded LRU so repeated block loads over the same region do not
// re-parse.
//
// Files ending in ".gz" are transparently inflated to a temporary file
// at open time and then treated like plain files.
package csv
