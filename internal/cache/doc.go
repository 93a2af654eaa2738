// Package cache provides a small LRU used to keep parsed rows around
// between block loads. Capacity is an entry count, not bytes: entries
// are uniform-sized parsed rows, so counting them is both cheaper and
// more predictable than tracking byte sizes.
package cache
