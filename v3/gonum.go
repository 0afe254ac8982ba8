/*
 * gonum.go, part of gocmiles.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//gonum.go contains what is needed for handling the gonum/mat types and facilities.

package v3

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

//Matrix is a set of vectors in 3D space, backed by a gonum Dense.
//Within the package it is understood that a "vector" is a row vector, i.e. the
//cartesian coordinates of a point in 3D space.
type Matrix struct {
	*mat.Dense
}

//Dense2Matrix wraps a gonum Dense with 3 columns. Panics if A doesn't have 3 columns.
func Dense2Matrix(A *mat.Dense) *Matrix {
	_, c := A.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{A}
}

//NewMatrix generates and returns a Matrix with 3 columns from data.
//data is used, not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("Input slice lenght %d not divisible by %d or empty", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(rows, cols, data)}, nil
}

//Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

//NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//VecView returns a view of the given vector of the matrix.
//Changes in the view are reflected in F and vice-versa
func (F *Matrix) VecView(i int) *Matrix {
	if i >= F.NVecs() || i < 0 {
		panic(ErrIndexOutOfRange)
	}
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

//Row copies the ith vector of F into dst, which is allocated if nil,
//and returns it.
func (F *Matrix) Row(dst []float64, i int) []float64 {
	if dst == nil {
		dst = make([]float64, 3)
	}
	return mat.Row(dst, i, F.Dense)
}

//Clone returns a copy of F that shares no memory with it.
func (F *Matrix) Clone() *Matrix {
	ret := Zeros(F.NVecs())
	ret.Copy(F.Dense)
	return ret
}

//SubVec subtracts the vector vec from each vector of the matrix A, putting
//the result on the receiver. Panics if matrices are mismatched.
func (F *Matrix) SubVec(A, vec *Matrix) {
	ar, _ := A.Dims()
	fr, _ := F.Dims()
	if vr, _ := vec.Dims(); vr != 1 || ar != fr {
		panic(ErrShape)
	}
	v := vec.Row(nil, 0)
	for i := 0; i < ar; i++ {
		for j := 0; j < 3; j++ {
			F.Set(i, j, A.At(i, j)-v[j])
		}
	}
}

//Cross puts the cross product of the first vecs of a and b in the first vec of F. Panics if error.
func (F *Matrix) Cross(a, b *Matrix) {
	if a.NVecs() < 1 || b.NVecs() < 1 || F.NVecs() < 1 {
		panic(ErrNoCrossProduct)
	}
	x := a.At(0, 1)*b.At(0, 2) - a.At(0, 2)*b.At(0, 1)
	y := a.At(0, 2)*b.At(0, 0) - a.At(0, 0)*b.At(0, 2)
	z := a.At(0, 0)*b.At(0, 1) - a.At(0, 1)*b.At(0, 0)
	F.Set(0, 0, x)
	F.Set(0, 1, y)
	F.Set(0, 2, z)
}

//Dot returns the dot product between the first vectors of F and B.
func (F *Matrix) Dot(B *Matrix) float64 {
	var ret float64
	for j := 0; j < 3; j++ {
		ret += F.At(0, j) * B.At(0, j)
	}
	return ret
}

//Norm returns the Frobenius norm of F. For a single vector it is its length.
func (F *Matrix) Norm() float64 {
	return mat.Norm(F.Dense, 2)
}

//IsZero returns true if every element of F is closer to zero than epsilon.
func (F *Matrix) IsZero(epsilon float64) bool {
	r, c := F.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(F.At(i, j)) > epsilon {
				return false
			}
		}
	}
	return true
}

//Error is the error type for the package. It carries the chain of
//functions it has been passed through.
type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix    = PanicMsg("goCMiles/v3: A VecMatrix should have 3 columns")
	ErrNoCrossProduct  = PanicMsg("goCMiles/v3: Invalid matrix for cross product")
	ErrShape           = PanicMsg("goCMiles/v3: Dimension mismatch")
	ErrIndexOutOfRange = PanicMsg("goCMiles/v3: index out of range")
)
