package spec

import (
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// alphanumeric is the alphabet scalar values are drawn from.
const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Distribution selects how vector components are drawn.
type Distribution int

const (
	// DistributionUniform draws components uniformly from [-1, 1).
	DistributionUniform Distribution = iota
	// DistributionNormal draws components from N(0, 1).
	DistributionNormal
)

// ParseDistribution maps a config name to a Distribution. Empty means uniform.
func ParseDistribution(name string) (Distribution, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "uniform":
		return DistributionUniform, true
	case "normal", "gaussian":
		return DistributionNormal, true
	default:
		return DistributionUniform, false
	}
}

func (d Distribution) String() string {
	switch d {
	case DistributionUniform:
		return "uniform"
	case DistributionNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// VectorSpec describes the shape and content of generated rows.
type VectorSpec struct {
	Dim          int
	ScalarLen    int
	Seed         uint64
	Distribution Distribution
	Normalize    bool
}

// RowBytes is the raw payload size of one row.
func (s VectorSpec) RowBytes() int {
	return 4*s.Dim + s.ScalarLen
}

// RowSource produces the content of a single row from (seed, row index).
//
// The generator is re-seeded for every row, so a row never depends on the
// rows generated before it. A RowSource is not safe for concurrent use,
// create one per goroutine.
type RowSource struct {
	spec    VectorSpec
	pcg     *rand.PCG
	rng     *rand.Rand
	scratch []float64
}

// NewRowSource creates a row source for the given spec.
func NewRowSource(s VectorSpec) *RowSource {
	pcg := rand.NewPCG(s.Seed, 0)
	rs := &RowSource{
		spec: s,
		pcg:  pcg,
		rng:  rand.New(pcg),
	}
	if s.Normalize {
		rs.scratch = make([]float64, s.Dim)
	}
	return rs
}

// Spec returns the spec the source was built with.
func (r *RowSource) Spec() VectorSpec {
	return r.spec
}

// FillRow writes row index into vec (len Dim) and scalar (len ScalarLen).
func (r *RowSource) FillRow(index int64, vec []float32, scalar []byte) {
	r.pcg.Seed(r.spec.Seed, mixIndex(uint64(index)))

	vec = vec[:r.spec.Dim]
	if r.spec.Normalize {
		r.fillNormalized(vec)
	} else {
		for i := range vec {
			vec[i] = float32(r.next())
		}
	}

	scalar = scalar[:r.spec.ScalarLen]
	for i := range scalar {
		scalar[i] = alphanumeric[r.rng.IntN(len(alphanumeric))]
	}
}

// Row returns freshly allocated vector and scalar buffers for row index.
func (r *RowSource) Row(index int64) ([]float32, []byte) {
	vec := make([]float32, r.spec.Dim)
	scalar := make([]byte, r.spec.ScalarLen)
	r.FillRow(index, vec, scalar)
	return vec, scalar
}

func (r *RowSource) next() float64 {
	if r.spec.Distribution == DistributionNormal {
		return r.rng.NormFloat64()
	}
	return r.rng.Float64()*2 - 1
}

func (r *RowSource) fillNormalized(vec []float32) {
	buf := r.scratch
	for i := range buf {
		buf[i] = r.next()
	}
	if len(buf) == 0 {
		return
	}
	norm := floats.Norm(buf, 2)
	if norm < 1e-12 {
		// degenerate draw, fall back to a unit basis vector
		buf[0] = 1
		norm = 1
	}
	floats.Scale(1/norm, buf)
	for i, v := range buf {
		vec[i] = float32(v)
	}
}

// mixIndex spreads consecutive row indexes over the PCG stream space
// (splitmix64 finalizer).
func mixIndex(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
