/*
 * sanitize.go, part of gocmiles.
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
package chem

import (
	"fmt"

	"github.com/rmera/gocmiles/chemgraph"
)

//Sanitize checks that T is a chemically sensible graph, and perceives ring bonds.
//It checks that bonds join two different atoms of T, that no pair of atoms is bonded
//twice, that bond orders are 1, 2 or 3, that all elements are known and that no atom has
//a valence above the maximum for its element. Charged atoms are checked as their
//isoelectronic element, so N+ can have 4 bonds and O- only 1.
//Errors wrap ErrSanitize.
func Sanitize(T *Topology) error {
	T.FillIndexes()
	for i, a := range T.Atoms {
		z, ok := AtomicNumber(a.Symbol)
		if !ok {
			return fmt.Errorf("Sanitize: %w: atom %d: %w %q", ErrSanitize, i, ErrUnknownElement, a.Symbol)
		}
		a.Z = z
		if a.Mass == 0 {
			a.Mass = AtomicMass(a.Symbol)
		}
	}
	seen := make(map[[2]int]bool, len(T.Bonds))
	for _, b := range T.Bonds {
		i, j := b.At1.Index, b.At2.Index
		if i < 0 || j < 0 || i >= T.Len() || j >= T.Len() || T.Atoms[i] != b.At1 || T.Atoms[j] != b.At2 {
			return fmt.Errorf("Sanitize: %w: bond %d joins atoms not in the molecule", ErrSanitize, b.Index)
		}
		if i == j {
			return fmt.Errorf("Sanitize: %w: bond %d joins atom %d to itself", ErrSanitize, b.Index, i)
		}
		key := [2]int{min(i, j), max(i, j)}
		if seen[key] {
			return fmt.Errorf("Sanitize: %w: atoms %d and %d are bonded more than once", ErrSanitize, i, j)
		}
		seen[key] = true
		if b.Order < 1 || b.Order > 3 {
			return fmt.Errorf("Sanitize: %w: bond %d: %w %d", ErrSanitize, b.Index, ErrBondOrder, b.Order)
		}
	}
	for i, a := range T.Atoms {
		maxv, ok := maxValence(a.Z - a.Charge)
		if !ok {
			continue
		}
		if v := a.Valence(); v > maxv {
			return fmt.Errorf("Sanitize: %w: explicit valence %d for atom %d (%s, charge %d) is greater than permitted (%d)", ErrSanitize, v, i, a.Symbol, a.Charge, maxv)
		}
	}
	inring := chemgraph.New(T).RingBonds()
	for i, b := range T.Bonds {
		b.InRing = inring[i]
	}
	return nil
}
