package spec

import (
	"math"
	"strings"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestRowSourceDeterministic(t *testing.T) {
	vs := VectorSpec{Dim: 1024, ScalarLen: 32, Seed: 42}

	a := NewRowSource(vs)
	b := NewRowSource(vs)

	for _, idx := range []int64{0, 1, 7, 12345, 1 << 40} {
		va, sa := a.Row(idx)
		vb, sb := b.Row(idx)
		require.Equal(t, va, vb, "row %d", idx)
		require.Equal(t, sa, sb, "row %d", idx)
	}

	// Order of generation must not matter.
	v7, s7 := a.Row(7)
	_, _ = a.Row(8)
	_, _ = a.Row(0)
	v7again, s7again := a.Row(7)
	require.Equal(t, v7, v7again)
	require.Equal(t, s7, s7again)
}

func TestRowSourceSeedAndIndexMatter(t *testing.T) {
	a := NewRowSource(VectorSpec{Dim: 16, ScalarLen: 8, Seed: 1})
	b := NewRowSource(VectorSpec{Dim: 16, ScalarLen: 8, Seed: 2})

	v0, _ := a.Row(0)
	v1, _ := a.Row(1)
	require.NotEqual(t, v0, v1)

	w0, _ := b.Row(0)
	require.NotEqual(t, v0, w0)
}

func TestRowSourceShape(t *testing.T) {
	src := NewRowSource(VectorSpec{Dim: 64, ScalarLen: 40, Seed: 9})
	for idx := range int64(100) {
		vec, scalar := src.Row(idx)
		require.Len(t, vec, 64)
		require.Len(t, scalar, 40)
		for _, v := range vec {
			require.GreaterOrEqual(t, v, float32(-1))
			require.LessOrEqual(t, v, float32(1))
		}
		for _, c := range scalar {
			require.True(t, strings.IndexByte(alphanumeric, c) >= 0, "unexpected byte %q", c)
		}
	}
}

func TestRowSourceNormalize(t *testing.T) {
	for _, dist := range []Distribution{DistributionUniform, DistributionNormal} {
		src := NewRowSource(VectorSpec{Dim: 128, ScalarLen: 4, Seed: 3, Distribution: dist, Normalize: true})
		for idx := range int64(20) {
			vec, _ := src.Row(idx)
			buf := make([]float64, len(vec))
			for i, v := range vec {
				buf[i] = float64(v)
			}
			require.InDelta(t, 1.0, floats.Norm(buf, 2), 1e-5, "%s row %d", dist, idx)
		}
	}
}

func TestRowSourceNormalDistribution(t *testing.T) {
	src := NewRowSource(VectorSpec{Dim: 1000, ScalarLen: 1, Seed: 5, Distribution: DistributionNormal})
	var sum, sq float64
	n := 0
	for idx := range int64(20) {
		vec, _ := src.Row(idx)
		for _, v := range vec {
			sum += float64(v)
			sq += float64(v) * float64(v)
			n++
		}
	}
	mean := sum / float64(n)
	std := math.Sqrt(sq/float64(n) - mean*mean)
	require.InDelta(t, 0, mean, 0.05)
	require.InDelta(t, 1, std, 0.05)
}

func TestParseDistribution(t *testing.T) {
	cases := []struct {
		in   string
		want Distribution
		ok   bool
	}{
		{"", DistributionUniform, true},
		{"Uniform", DistributionUniform, true},
		{" normal ", DistributionNormal, true},
		{"gaussian", DistributionNormal, true},
		{"zipf", DistributionUniform, false},
	}
	for _, c := range cases {
		got, ok := ParseDistribution(c.in)
		require.Equal(t, c.ok, ok, c.in)
		require.Equal(t, c.want, got, c.in)
	}
}

func TestAssembleMatchesRowSource(t *testing.T) {
	vs := VectorSpec{Dim: 1024, ScalarLen: 32, Seed: 42}
	asm := NewAssembler(vs)

	b, err := asm.Assemble(100, 10)
	require.NoError(t, err)
	require.Equal(t, int64(100), b.Start)
	require.Equal(t, int64(110), b.End())
	require.Len(t, b.Vectors, 10*1024)
	require.Len(t, b.Scalars, 10*32)

	src := NewRowSource(vs)
	for i := range b.Count {
		vec, scalar := src.Row(b.Start + int64(i))
		require.Equal(t, vec, b.Vector(i))
		require.Equal(t, scalar, b.Scalar(i))
	}
}

func TestAssembleBoundaryIndependent(t *testing.T) {
	asm := NewAssembler(VectorSpec{Dim: 8, ScalarLen: 6, Seed: 77})

	whole, err := asm.Assemble(0, 30)
	require.NoError(t, err)

	var (
		vectors []float32
		scalars []byte
	)
	for _, r := range [][2]int{{0, 7}, {7, 16}, {23, 7}} {
		part, err := asm.Assemble(int64(r[0]), r[1])
		require.NoError(t, err)
		vectors = append(vectors, part.Vectors...)
		scalars = append(scalars, part.Scalars...)
	}
	require.Equal(t, whole.Vectors, vectors)
	require.Equal(t, whole.Scalars, scalars)
}

func TestAssembleEmpty(t *testing.T) {
	asm := NewAssembler(VectorSpec{Dim: 4, ScalarLen: 4})
	for _, n := range []int{0, -3} {
		b, err := asm.Assemble(0, n)
		require.Nil(t, b)
		require.Error(t, err)
		require.Equal(t, ErrEmptyBatch, errors.Cause(err))
	}
}
