package v3

import (
	"math"
	"testing"
)

func TestNewMatrix(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	if A.NVecs() != 3 {
		Te.Errorf("expected 3 vectors, got %d", A.NVecs())
	}
	View := A.VecView(1)
	View.Set(0, 0, 100)
	if A.At(1, 0) != 100 {
		Te.Errorf("changes in the view should be visible in the matrix")
	}
	if _, err := NewMatrix([]float64{1, 2}); err == nil {
		Te.Errorf("a slice with a length not divisible by 3 should fail")
	}
}

func TestSubVecAndClone(Te *testing.T) {
	A, _ := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	B := A.Clone()
	row, _ := NewMatrix([]float64{1, 1, 1})
	B.SubVec(B, row)
	if B.At(1, 2) != 5 || A.At(1, 2) != 6 {
		Te.Errorf("SubVec or Clone failed: %v %v", A, B)
	}
}

func TestCrossDotNorm(Te *testing.T) {
	x, _ := NewMatrix([]float64{1, 0, 0})
	y, _ := NewMatrix([]float64{0, 1, 0})
	z := Zeros(1)
	z.Cross(x, y)
	if z.At(0, 2) != 1 {
		Te.Errorf("x cross y should be z, got %v", z.Row(nil, 0))
	}
	if x.Dot(y) != 0 {
		Te.Errorf("x and y should be orthogonal")
	}
	v, _ := NewMatrix([]float64{3, 4, 0})
	if math.Abs(v.Norm()-5) > 1e-12 {
		Te.Errorf("wrong norm %f", v.Norm())
	}
}

func TestDihedralAndVolume(Te *testing.T) {
	a, _ := NewMatrix([]float64{1, 1, 0})
	b, _ := NewMatrix([]float64{0, 0, 0})
	c, _ := NewMatrix([]float64{0, 0, 1})
	cis, _ := NewMatrix([]float64{1, 1, 1})
	trans, _ := NewMatrix([]float64{-1, -1, 1})
	if d := Dihedral(a, b, c, cis); math.Abs(d) > 1e-6 {
		Te.Errorf("cis dihedral should be 0, got %f", d)
	}
	if d := Dihedral(a, b, c, trans); math.Abs(math.Abs(d)-math.Pi) > 1e-6 {
		Te.Errorf("trans dihedral should be pi, got %f", d)
	}
	center := Zeros(1)
	x, _ := NewMatrix([]float64{1, 0, 0})
	y, _ := NewMatrix([]float64{0, 1, 0})
	z, _ := NewMatrix([]float64{0, 0, 1})
	if SignedVolume(center, x, y, z) <= 0 {
		Te.Errorf("right-handed triple should have a positive volume")
	}
	if SignedVolume(center, x, z, y) >= 0 {
		Te.Errorf("left-handed triple should have a negative volume")
	}
}
