/*
 * chem_test.go, part of gocmiles.
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
	"errors"
	"math"
	"testing"

	v3 "github.com/rmera/gocmiles/v3"
)

//buildMol builds a molecule from symbols, bonds given as {i, j, order} and flat coordinates.
func buildMol(Te *testing.T, symbols []string, bonds [][3]int, coords []float64) *Molecule {
	Te.Helper()
	top := NewTopology(0, 1, nil)
	for _, s := range symbols {
		at, err := NewAtom(s)
		if err != nil {
			Te.Fatal(err)
		}
		top.AddAtom(at)
	}
	for _, b := range bonds {
		if _, err := top.AddBond(b[0], b[1], b[2]); err != nil {
			Te.Fatal(err)
		}
	}
	mol, _ := NewMolecule(top)
	if coords != nil {
		c, err := v3.NewMatrix(coords)
		if err != nil {
			Te.Fatal(err)
		}
		if err := mol.AddConformer(c); err != nil {
			Te.Fatal(err)
		}
	}
	return mol
}

var s3 = 1 / math.Sqrt(3)

//bromochlorofluoromethane, with the neighbors of C in the order H, F, Cl, Br.
func bcfMol(Te *testing.T, mirror bool) *Molecule {
	x := 1.0
	if mirror {
		x = -1
	}
	coords := []float64{
		0, 0, 0,
		x * 1.09 * s3, 1.09 * s3, 1.09 * s3,
		x * 1.35 * s3, -1.35 * s3, -1.35 * s3,
		-x * 1.77 * s3, 1.77 * s3, -1.77 * s3,
		-x * 1.94 * s3, -1.94 * s3, 1.94 * s3,
	}
	return buildMol(Te, []string{"C", "H", "F", "Cl", "Br"}, [][3]int{{0, 1, 1}, {0, 2, 1}, {0, 3, 1}, {0, 4, 1}}, coords)
}

//2-butene carbons plus the vinylic hydrogens.
func buteneMol(Te *testing.T, cis bool) *Molecule {
	c4 := []float64{2.09, -1.3, 0}
	h3 := []float64{1.88, 0.94, 0}
	if cis {
		c4 = []float64{2.09, 1.3, 0}
		h3 = []float64{1.88, -0.94, 0}
	}
	coords := []float64{-0.75, 1.3, 0, 0, 0, 0, 1.34, 0, 0}
	coords = append(coords, c4...)
	coords = append(coords, -0.54, -0.94, 0)
	coords = append(coords, h3...)
	return buildMol(Te, []string{"C", "C", "C", "C", "H", "H"}, [][3]int{{0, 1, 1}, {1, 2, 2}, {2, 3, 1}, {1, 4, 1}, {2, 5, 1}}, coords)
}

func TestTopologyAndCopy(Te *testing.T) {
	mol := bcfMol(Te, false)
	if mol.Len() != 5 || mol.NBonds() != 4 || mol.NConformers() != 1 {
		Te.Fatalf("wrong molecule: %d atoms %d bonds %d conformers", mol.Len(), mol.NBonds(), mol.NConformers())
	}
	if b := mol.Bond(3, 0); b == nil || b.Order != 1 {
		Te.Errorf("bond between atoms 0 and 3 not found")
	}
	if mol.Bond(1, 2) != nil {
		Te.Errorf("atoms 1 and 2 should not be bonded")
	}
	mol.SetProp("name", "bcf")
	cp := mol.Copy()
	cp.Atoms[0].MapIdx = 7
	cp.Coords[0].Set(0, 0, 10)
	cp.SetProp("name", "other")
	if mol.Atoms[0].MapIdx != 0 || mol.Coords[0].At(0, 0) != 0 {
		Te.Errorf("the copy shares memory with the original")
	}
	if v, _ := mol.Prop("name"); v != "bcf" {
		Te.Errorf("the copy shares properties with the original")
	}
	if cp.Atoms[0].Bonds[0].At1 != cp.Atoms[0] {
		Te.Errorf("bonds in the copy point to the atoms of the original")
	}
	if err := mol.AddConformer(v3.Zeros(3)); err == nil {
		Te.Errorf("a conformer with the wrong number of atoms was accepted")
	}
	if err := cp.Corrupted(); err != nil {
		Te.Error(err)
	}
}

func TestAtomMaps(Te *testing.T) {
	mol := bcfMol(Te, false)
	if IsMapped(mol.Topology) {
		Te.Errorf("unmapped molecule reported as mapped")
	}
	MapByIndex(mol.Topology)
	if !IsMapped(mol.Topology) {
		Te.Errorf("mapped molecule reported as unmapped")
	}
	if mol.Atoms[4].MapIdx != 5 {
		Te.Errorf("wrong map index %d", mol.Atoms[4].MapIdx)
	}
	mol.Atoms[2].MapIdx = 0
	if IsMapped(mol.Topology) {
		Te.Errorf("partially mapped molecule reported as mapped")
	}
	RemoveMap(mol.Topology)
	for _, a := range mol.Atoms {
		if a.MapIdx != 0 {
			Te.Errorf("map index %d left on atom %d", a.MapIdx, a.Index)
		}
	}
	if mol.NBonds() != 4 || mol.Atoms[3].Symbol != "Cl" {
		Te.Errorf("RemoveMap changed more than the map indexes")
	}
	if !IsMapped(NewTopology(0, 1, nil)) {
		Te.Errorf("a molecule without atoms should count as mapped")
	}
}

func TestSanitize(Te *testing.T) {
	ok := buildMol(Te, []string{"C", "C", "C"}, [][3]int{{0, 1, 1}, {1, 2, 1}, {2, 0, 1}}, nil)
	if err := Sanitize(ok.Topology); err != nil {
		Te.Fatal(err)
	}
	for _, b := range ok.Bonds {
		if !b.InRing {
			Te.Errorf("bond %d of cyclopropane not in a ring", b.Index)
		}
	}
	//N+ with four bonds is fine, neutral N is not.
	amm := buildMol(Te, []string{"N", "H", "H", "H", "H"}, [][3]int{{0, 1, 1}, {0, 2, 1}, {0, 3, 1}, {0, 4, 1}}, nil)
	if err := Sanitize(amm.Topology); !errors.Is(err, ErrSanitize) {
		Te.Errorf("neutral tetravalent N should fail, got %v", err)
	}
	amm.Atoms[0].Charge = 1
	if err := Sanitize(amm.Topology); err != nil {
		Te.Errorf("ammonium should pass: %v", err)
	}
	bad := [][][3]int{
		{{0, 1, 4}},            //bond order
		{{0, 1, 1}, {1, 0, 1}}, //duplicated
		{{0, 0, 1}},            //self bond
		{{0, 1, 3}, {0, 2, 2}}, //pentavalent carbon
	}
	for i, b := range bad {
		m := buildMol(Te, []string{"C", "C", "C"}, b, nil)
		if err := Sanitize(m.Topology); !errors.Is(err, ErrSanitize) {
			Te.Errorf("case %d should fail with ErrSanitize, got %v", i, err)
		}
	}
}

func TestStereoFrom3D(Te *testing.T) {
	mol := bcfMol(Te, false)
	if err := AssignStereoFrom3D(mol, 0, true); err != nil {
		Te.Fatal(err)
	}
	if mol.Atoms[0].Chiral != ChiralCCW {
		Te.Errorf("expected CCW, got %v", mol.Atoms[0].Chiral)
	}
	mirror := bcfMol(Te, true)
	if err := AssignStereoFrom3D(mirror, 0, true); err != nil {
		Te.Fatal(err)
	}
	if mirror.Atoms[0].Chiral != ChiralCW {
		Te.Errorf("expected CW for the enantiomer, got %v", mirror.Atoms[0].Chiral)
	}
	if StereoMatches(mol.Topology, mirror.Topology) {
		Te.Errorf("enantiomers should not match")
	}
	if !StereoMatches(mol.Topology, mol.Copy().Topology) {
		Te.Errorf("a molecule should match its copy")
	}
	//existing tags are kept unless replaceExisting is set.
	mirror.Atoms[0].Chiral = ChiralCCW
	AssignStereoFrom3D(mirror, 0, false)
	if mirror.Atoms[0].Chiral != ChiralCCW {
		Te.Errorf("existing tag replaced")
	}
	AssignStereoFrom3D(mirror, 0, true)
	if mirror.Atoms[0].Chiral != ChiralCW {
		Te.Errorf("existing tag not replaced")
	}
}

func TestDoubleBondStereo(Te *testing.T) {
	trans := buteneMol(Te, false)
	cis := buteneMol(Te, true)
	for _, m := range []*Molecule{trans, cis} {
		if err := Sanitize(m.Topology); err != nil {
			Te.Fatal(err)
		}
		if err := AssignStereoFrom3D(m, 0, true); err != nil {
			Te.Fatal(err)
		}
	}
	if s := trans.Bond(1, 2).Stereo; s != StereoE {
		Te.Errorf("expected E, got %v", s)
	}
	if s := cis.Bond(1, 2).Stereo; s != StereoZ {
		Te.Errorf("expected Z, got %v", s)
	}
	if trans.Bond(1, 2).StereoAtoms != [2]int{0, 3} {
		Te.Errorf("wrong reference atoms %v", trans.Bond(1, 2).StereoAtoms)
	}
	if StereoMatches(trans.Topology, cis.Topology) {
		Te.Errorf("E and Z butene should not match")
	}
	c, b := UnspecifiedStereo(buteneMol(Te, false).Topology)
	if len(c) != 0 || len(b) != 1 {
		Te.Errorf("expected one unspecified double bond, got centers %v bonds %v", c, b)
	}
}

func TestStereoErrors(Te *testing.T) {
	mol := bcfMol(Te, false)
	if err := AssignStereoFrom3D(mol, 1, true); !errors.Is(err, ErrNoConformer) {
		Te.Errorf("expected ErrNoConformer, got %v", err)
	}
	mol.Coords[0] = v3.Zeros(5)
	if err := AssignStereoFrom3D(mol, 0, true); !errors.Is(err, ErrZeroCoords) {
		Te.Errorf("expected ErrZeroCoords, got %v", err)
	}
	//nothing to assign, nothing to complain about.
	ne := buildMol(Te, []string{"Ne"}, nil, []float64{0, 0, 0})
	if err := AssignStereoFrom3D(ne, 0, true); err != nil {
		Te.Errorf("a lone atom at the origin gave %v", err)
	}
}
