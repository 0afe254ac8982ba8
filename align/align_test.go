/*
 * align_test.go, part of gocmiles.
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
package align

import (
	"math"
	"testing"

	chem "github.com/rmera/gocmiles"
	v3 "github.com/rmera/gocmiles/v3"
)

//rotated returns c rotated by angle around z and then translated.
func rotated(c *v3.Matrix, angle float64, shift [3]float64) *v3.Matrix {
	r := c.Clone()
	cos, sin := math.Cos(angle), math.Sin(angle)
	for i := 0; i < r.NVecs(); i++ {
		x, y, z := c.At(i, 0), c.At(i, 1), c.At(i, 2)
		r.Set(i, 0, cos*x-sin*y+shift[0])
		r.Set(i, 1, sin*x+cos*y+shift[1])
		r.Set(i, 2, z+shift[2])
	}
	return r
}

func TestSuper(Te *testing.T) {
	mol, err := chem.ReadFile("../test/ethanol.xyz")
	if err != nil {
		Te.Fatal(err)
	}
	ref := mol.Coords[0]
	test := rotated(ref, 1.1, [3]float64{3, -2, 0.5})
	r, err := RMSD(test, ref, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if r < 1 {
		Te.Errorf("the rotated coordinates should be far from the reference, RMSD %f", r)
	}
	s, err := SuperRMSD(test, ref, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if s > 1e-6 {
		Te.Errorf("RMSD after superposition should be zero, got %f", s)
	}
	//only the heavy atoms used for the superposition, but everything moved.
	heavy := HeavyAtoms(mol.Topology)
	if len(heavy) != 3 {
		Te.Errorf("expected 3 heavy atoms in ethanol, got %v", heavy)
	}
	sup, err := Super(test, ref, heavy)
	if err != nil {
		Te.Fatal(err)
	}
	if r, _ := RMSD(sup, ref, nil); r > 1e-6 {
		Te.Errorf("hydrogens not moved with the heavy atoms, RMSD %f", r)
	}
	if _, err := Super(v3.Zeros(2), ref, nil); err == nil {
		Te.Errorf("coordinates with different numbers of atoms accepted")
	}
}

func TestMirror(Te *testing.T) {
	mol, err := chem.ReadFile("../test/bcf.sdf")
	if err != nil {
		Te.Fatal(err)
	}
	ref := mol.Coords[0]
	mirror := ref.Clone()
	for i := 0; i < mirror.NVecs(); i++ {
		mirror.Set(i, 0, -mirror.At(i, 0))
	}
	if r, _ := SuperRMSD(mirror, ref, nil); r < 0.1 {
		Te.Errorf("enantiomers superimposed with RMSD %f", r)
	}
	if r, _ := SuperRMSD(mol.Coords[1], ref, nil); r > 1e-3 {
		Te.Errorf("the second record is a rotation of the first, got RMSD %f", r)
	}
}

func TestPrune(Te *testing.T) {
	mol, err := chem.ReadFile("../test/bcf.sdf")
	if err != nil {
		Te.Fatal(err)
	}
	cp := mol.Copy()
	if n, err := Prune(cp, 0, nil); err != nil || n != 0 || cp.NConformers() != 2 {
		Te.Errorf("a zero threshold should keep everything (%d removed, %v)", n, err)
	}
	o := DefaultOptions()
	o.Cpus = 2
	n, err := Prune(mol, 0.1, o)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 1 || mol.NConformers() != 1 || len(mol.Energies) != 1 || mol.Energies[0] != 1.5 {
		Te.Errorf("the rotated duplicate should have been removed: %d removed, energies %v", n, mol.Energies)
	}
}
