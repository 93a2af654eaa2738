package gridgo

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
)

const alphanum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MemorySource is an in-memory synthetic Source used for demos and tests.
// Cell contents are pseudo-random but deterministic for a given seed, so a
// cell has the same value no matter how often its block is reloaded.
type MemorySource struct {
	rows    int
	cols    int
	seed    int64
	headers []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMemorySource creates a synthetic source with the given shape.
func NewMemorySource(rows, cols int, seed int64) *MemorySource {
	headers := make([]string, cols)
	for i := range headers {
		headers[i] = fmt.Sprintf("Column %d", i+1)
	}
	return &MemorySource{
		rows:    rows,
		cols:    cols,
		seed:    seed,
		headers: headers,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// RowCount implements Source.
func (s *MemorySource) RowCount() int { return s.rows }

// ColumnCount implements Source.
func (s *MemorySource) ColumnCount() int { return s.cols }

// Header implements Source.
func (s *MemorySource) Header() []string { return s.headers }

// LoadRows implements Source.
func (s *MemorySource) LoadRows(startRow, count int) []Row {
	if startRow < 0 || startRow >= s.rows || count <= 0 {
		return nil
	}
	end := min(startRow+count, s.rows)

	out := make([]Row, 0, end-startRow)
	for row := startRow; row < end; row++ {
		out = append(out, s.generateRow(row))
	}
	return out
}

func (s *MemorySource) generateRow(row int) Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Reseed per row so repeated loads of the same block agree.
	s.rng.Seed(s.seed + int64(row))

	r := make(Row, s.cols)
	for col := range r {
		switch {
		case col == 0:
			r[col] = Int(int64(row) + 1)
		case col == 1:
			r[col] = Int(int64(1000 + s.rng.Intn(9000)))
		case col == 2:
			r[col] = Float(s.rng.Float64() * 100)
		case col == 3:
			r[col] = String(s.randomString(10 + row%20))
		default:
			switch row % 3 {
			case 0:
				r[col] = String(s.randomString(5))
			case 1:
				r[col] = Int(int64(1 + s.rng.Intn(100)))
			default:
				r[col] = String("Data-" + strconv.Itoa(row) + "-" + strconv.Itoa(col))
			}
		}
	}
	return r
}

func (s *MemorySource) randomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanum[s.rng.Intn(len(alphanum))]
	}
	return string(b)
}
