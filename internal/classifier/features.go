package classifier

// Features is a read-only feature vector. Models accept either a dense
// form (PAC inputs) or a sparse form (vectorized chat text).
type Features interface {
	Dim() int
	At(i int) float64
	// Each calls fn for every non-zero entry in ascending index order.
	Each(fn func(i int, v float64))
}

type Dense []float64

func (d Dense) Dim() int { return len(d) }

func (d Dense) At(i int) float64 { return d[i] }

func (d Dense) Each(fn func(i int, v float64)) {
	for i, v := range d {
		if v != 0 {
			fn(i, v)
		}
	}
}

// Sparse holds parallel index/value slices with indices sorted ascending.
type Sparse struct {
	N       int
	Indices []int
	Values  []float64
}

func (s Sparse) Dim() int { return s.N }

func (s Sparse) At(i int) float64 {
	lo, hi := 0, len(s.Indices)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s.Indices[mid] == i:
			return s.Values[mid]
		case s.Indices[mid] < i:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

func (s Sparse) Each(fn func(i int, v float64)) {
	for k, i := range s.Indices {
		if s.Values[k] != 0 {
			fn(i, s.Values[k])
		}
	}
}

func toDense(x Features) []float64 {
	if d, ok := x.(Dense); ok {
		return d
	}
	out := make([]float64, x.Dim())
	x.Each(func(i int, v float64) { out[i] = v })
	return out
}
