/*
 * bonds.go, part of gocmiles.
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
	"math"
	"sort"
)

//constants from DOI:10.1186/1758-2946-3-33
const (
	tooclose = 0.63
	bondtol  = 0.45
)

//RemoveBond deletes b from T and from the bond lists of both of its atoms.
//Bond indexes are updated.
func RemoveBond(T *Topology, b *Bond) error {
	found := false
	nb := make([]*Bond, 0, len(T.Bonds))
	for _, v := range T.Bonds {
		if v == b {
			found = true
			continue
		}
		nb = append(nb, v)
	}
	if !found {
		return fmt.Errorf("RemoveBond: bond %d (%d-%d) not in the topology", b.Index, b.At1.Index, b.At2.Index)
	}
	T.Bonds = nb
	b.At1.Bonds = takefromslice(b.At1.Bonds, b)
	b.At2.Bonds = takefromslice(b.At2.Bonds, b)
	T.FillIndexes()
	return nil
}

//return a new *Bond slice without b
func takefromslice(bonds []*Bond, b *Bond) []*Bond {
	newb := make([]*Bond, 0, len(bonds))
	for _, v := range bonds {
		if v != b {
			newb = append(newb, v)
		}
	}
	return newb
}

//AssignBonds assigns single bonds to mol based on a simple distance
//criterium, similar to that described in DOI:10.1186/1758-2946-3-33,
//using the coordinates of the conformer conf. Existing bonds are kept.
//Atoms with more bonds than their element allows lose their longest ones.
func AssignBonds(mol *Molecule, conf int) error {
	//It's really not thought for proteins or macromolecules.
	coord := mol.Conformer(conf)
	if coord == nil {
		return fmt.Errorf("AssignBonds: %w", ErrNoConformer)
	}
	mol.FillIndexes()
	tot := mol.Len()
	for i := 0; i < tot; i++ {
		at1 := mol.Atom(i)
		cov1 := symbolCovrad[at1.Symbol]
		if cov1 == 0 {
			return newCError(ErrUnknownElement, "AssignBonds", "couldn't find the covalent radius for %s %d", at1.Symbol, i)
		}
		for j := i + 1; j < tot; j++ {
			at2 := mol.Atom(j)
			cov2 := symbolCovrad[at2.Symbol]
			if cov2 == 0 {
				return newCError(ErrUnknownElement, "AssignBonds", "couldn't find the covalent radius for %s %d", at2.Symbol, j)
			}
			if mol.Bond(i, j) != nil {
				continue
			}
			d := coordDistance(coord, i, j)
			if d < cov1+cov2+bondtol && d > tooclose {
				b, _ := mol.AddBond(i, j, 1)
				b.Dist = d
			}
		}
	}
	//Now we check that no atom has too many bonds.
	for i := 0; i < tot; i++ {
		at := mol.Atom(i)
		maxb, ok := symbolMaxValence[at.Symbol]
		if !ok || maxb > 4 {
			continue
		}
		sort.SliceStable(at.Bonds, func(i, j int) bool { return at.Bonds[i].Dist < at.Bonds[j].Dist })
		for len(at.Bonds) > maxb {
			if err := RemoveBond(mol.Topology, at.Bonds[len(at.Bonds)-1]); err != nil { //we remove the longest bond
				return errDecorate(err, "AssignBonds")
			}
		}
	}
	return nil
}

func coordDistance(c interface{ At(int, int) float64 }, i, j int) float64 {
	var s float64
	for k := 0; k < 3; k++ {
		d := c.At(i, k) - c.At(j, k)
		s += d * d
	}
	return math.Sqrt(s)
}
