/*
 * clash.go, part of gocmiles.
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
package clash

import (
	"errors"
	"fmt"
	"math"

	chem "github.com/rmera/gocmiles"
	v3 "github.com/rmera/gocmiles/v3"
)

//ErrRadius is returned when an atom has no known covalent radius.
var ErrRadius = errors.New("no covalent radius for atom")

//DefaultFactor is the fraction of the sum of the covalent radii under which two atoms clash.
const DefaultFactor = 0.5

//LowestDist returns the shortest distance between an atom of test and one of clash,
//and the indexes of the two atoms.
func LowestDist(test, clash *v3.Matrix) (dist float64, indexes [2]int) {
	dist = math.Inf(1)
	dvec := v3.Zeros(1)
	for i := 0; i < test.NVecs(); i++ {
		for j := 0; j < clash.NVecs(); j++ {
			dvec.SubVec(test.VecView(i), clash.VecView(j))
			if dt := dvec.Norm(); dt < dist {
				dist = dt
				indexes = [2]int{i, j}
			}
		}
	}
	return
}

//excluded returns the pairs of atoms, with the lowest index first, that are bonded or
//bonded to a common atom. Those are never considered clashes.
func excluded(T *chem.Topology) map[[2]int]bool {
	ret := make(map[[2]int]bool)
	add := func(i, j int) {
		if i > j {
			i, j = j, i
		}
		ret[[2]int{i, j}] = true
	}
	for _, at := range T.Atoms {
		nb := at.Neighbors()
		for k, a := range nb {
			add(at.Index, a.Index)
			for _, b := range nb[k+1:] {
				add(a.Index, b.Index)
			}
		}
	}
	return ret
}

func radii(T *chem.Topology) ([]float64, error) {
	r := make([]float64, T.Len())
	for i, at := range T.Atoms {
		var ok bool
		if r[i], ok = chem.CovalentRadius(at.Symbol); !ok {
			return nil, fmt.Errorf("%w: %s %d", ErrRadius, at.Symbol, i)
		}
	}
	return r, nil
}

//Clashes returns the pairs of atoms in the conformer conf of mol that are closer than factor
//times the sum of their covalent radii. Pairs of atoms bonded to each other, or to a common atom,
//are not checked.
func Clashes(mol *chem.Molecule, conf int, factor float64) ([][2]int, error) {
	c := mol.Conformer(conf)
	if c == nil {
		return nil, fmt.Errorf("Clashes: %w", chem.ErrNoConformer)
	}
	r, err := radii(mol.Topology)
	if err != nil {
		return nil, fmt.Errorf("Clashes: %w", err)
	}
	return clashes(c, r, excluded(mol.Topology), factor), nil
}

func clashes(c *v3.Matrix, r []float64, exc map[[2]int]bool, factor float64) [][2]int {
	var ret [][2]int
	d := v3.Zeros(1)
	for i := 0; i < c.NVecs(); i++ {
		for j := i + 1; j < c.NVecs(); j++ {
			if exc[[2]int{i, j}] {
				continue
			}
			d.SubVec(c.VecView(i), c.VecView(j))
			if d.Norm() < factor*(r[i]+r[j]) {
				ret = append(ret, [2]int{i, j})
			}
		}
	}
	return ret
}

//Filter removes, in place, the conformers of mol with at least one clash, as defined in Clashes.
//Energies are kept in sync. It returns the number of conformers removed.
func Filter(mol *chem.Molecule, factor float64) (int, error) {
	if factor <= 0 || mol.NConformers() == 0 {
		return 0, nil
	}
	r, err := radii(mol.Topology)
	if err != nil {
		return 0, fmt.Errorf("Filter: %w", err)
	}
	exc := excluded(mol.Topology)
	withE := len(mol.Energies) == mol.NConformers()
	coords := mol.Coords[:0]
	var energies []float64
	for i, c := range mol.Coords {
		if len(clashes(c, r, exc, factor)) > 0 {
			continue
		}
		coords = append(coords, c)
		if withE {
			energies = append(energies, mol.Energies[i])
		}
	}
	removed := mol.NConformers() - len(coords)
	mol.Coords = coords
	if withE {
		mol.Energies = energies
	}
	return removed, nil
}
