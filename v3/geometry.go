/*
 * geometry.go, part of gocmiles.
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
package v3

import "math"

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero.

//sub returns b-a for the first vectors of a and b as a new 1x3 Matrix.
func sub(a, b *Matrix) *Matrix {
	r := Zeros(1)
	for j := 0; j < 3; j++ {
		r.Set(0, j, b.At(0, j)-a.At(0, j))
	}
	return r
}

//SignedVolume returns the triple product (a-c)·((b-c)×(d-c)) where c is the center.
//Its sign tells whether a, b and d run counter-clockwise (positive) or clockwise
//(negative) when seen from a toward the center.
func SignedVolume(center, a, b, d *Matrix) float64 {
	va := sub(center, a)
	vb := sub(center, b)
	vd := sub(center, d)
	cross := Zeros(1)
	cross.Cross(vb, vd)
	return va.Dot(cross)
}

//Dihedral returns the signed dihedral angle, in radians, defined by the first vectors of
//a, b, c and d.
func Dihedral(a, b, c, d *Matrix) float64 {
	b1 := sub(a, b)
	b2 := sub(b, c)
	b3 := sub(c, d)
	n1 := Zeros(1)
	n1.Cross(b1, b2)
	n2 := Zeros(1)
	n2.Cross(b2, b3)
	m := Zeros(1)
	m.Cross(n1, b2)
	b2norm := b2.Norm()
	if b2norm <= appzero {
		return 0
	}
	x := n1.Dot(n2)
	y := m.Dot(n2) / b2norm
	return math.Atan2(y, x)
}

//Distance returns the distance between the first vectors of a and b.
func Distance(a, b *Matrix) float64 {
	return sub(a, b).Norm()
}
