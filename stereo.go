/*
 * stereo.go, part of gocmiles.
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

	"github.com/rmera/gocmiles/chemgraph"
	v3 "github.com/rmera/gocmiles/v3"
)

//Double bonds in rings smaller than this can only be cis.
const minStereoRing = 8

//elements that can be stereocenters with only 3 neighbors (the 4th being a lone pair).
var pyramidalCenters = map[int]bool{15: true, 16: true, 34: true}

//stereoPerception holds what is needed to decide which parts of a molecule can
//carry stereochemistry.
type stereoPerception struct {
	T       *Topology
	g       *chemgraph.Graph
	ranks   []int
	centers []int
	bonds   []int
}

func perceiveStereo(T *Topology) *stereoPerception {
	T.FillIndexes()
	g := chemgraph.New(T)
	inv := make([]int64, T.Len())
	for i, a := range T.Atoms {
		inv[i] = int64(a.Z)<<16 | int64(a.Charge+16)<<8 | int64(len(a.Bonds))
	}
	p := &stereoPerception{T: T, g: g, ranks: g.Ranks(inv)}
	for i, a := range T.Atoms {
		if p.isCenter(a) {
			p.centers = append(p.centers, i)
		}
	}
	for i, b := range T.Bonds {
		if p.isStereoBond(b) {
			p.bonds = append(p.bonds, i)
		}
	}
	return p
}

//distinctRanks returns true if no two of the given atoms share a rank.
func (p *stereoPerception) distinctRanks(ats []*Atom) bool {
	seen := make(map[int]bool, len(ats))
	for _, a := range ats {
		if seen[p.ranks[a.Index]] {
			return false
		}
		seen[p.ranks[a.Index]] = true
	}
	return true
}

func (p *stereoPerception) isCenter(a *Atom) bool {
	n := len(a.Bonds)
	if n != 4 && !(n == 3 && pyramidalCenters[a.Z]) {
		return false
	}
	for _, b := range a.Bonds {
		if b.Order != 1 && !(pyramidalCenters[a.Z] && b.Order == 2) {
			return false
		}
	}
	return p.distinctRanks(a.Neighbors())
}

//substituents returns the neighbors of at, excluding other.
func substituents(at, other *Atom) []*Atom {
	ret := make([]*Atom, 0, 2)
	for _, n := range at.Neighbors() {
		if n != other {
			ret = append(ret, n)
		}
	}
	return ret
}

func (p *stereoPerception) isStereoBond(b *Bond) bool {
	if b.Order != 2 {
		return false
	}
	if r := p.g.SmallestRing(b.Index); r > 0 && r < minStereoRing {
		return false
	}
	for _, end := range [2]*Atom{b.At1, b.At2} {
		other := b.Cross(end)
		subs := substituents(end, other)
		if len(subs) < 1 || len(subs) > 2 || !p.distinctRanks(subs) {
			return false
		}
		for _, eb := range end.Bonds {
			if eb != b && eb.Order == 2 { //cumulenes
				return false
			}
		}
	}
	return true
}

//reference returns the highest-ranked substituent of end, other than other.
func (p *stereoPerception) reference(end, other *Atom) *Atom {
	var ret *Atom
	for _, s := range substituents(end, other) {
		if ret == nil || p.ranks[s.Index] > p.ranks[ret.Index] {
			ret = s
		}
	}
	return ret
}

//PotentialStereo returns the indexes of the atoms that are stereocenters, and of the bonds
//that are stereogenic double bonds, according to the graph of T only.
func PotentialStereo(T *Topology) (centers, bonds []int) {
	p := perceiveStereo(T)
	return p.centers, p.bonds
}

//UnspecifiedStereo returns the stereocenters without a chiral tag, and the stereogenic double
//bonds without a configuration.
func UnspecifiedStereo(T *Topology) (centers, bonds []int) {
	c, b := PotentialStereo(T)
	for _, i := range c {
		if T.Atoms[i].Chiral == ChiralUnspecified {
			centers = append(centers, i)
		}
	}
	for _, i := range b {
		if s := T.Bonds[i].Stereo; s == StereoNone || s == StereoAny {
			bonds = append(bonds, i)
		}
	}
	return centers, bonds
}

//chiralFrom3D returns the chiral tag of a from the coordinates in c, following the order
//of a's bonds.
func chiralFrom3D(a *Atom, c *v3.Matrix) ChiralTag {
	n := a.Neighbors()
	s := v3.SignedVolume(c.VecView(a.Index), c.VecView(n[0].Index), c.VecView(n[1].Index), c.VecView(n[2].Index))
	switch {
	case s > 0:
		return ChiralCCW
	case s < 0:
		return ChiralCW
	}
	return ChiralUnspecified
}

//AssignStereoFrom3D sets the chiral tags of the stereocenters and the configuration of the
//stereogenic double bonds of mol from the coordinates of its conformer conf. If replaceExisting
//is false, only the unspecified ones are set. If it is true, stereo tags on atoms and bonds that
//are not stereogenic are also cleared. All-zero coordinates are an error only if mol has
//stereocenters or stereogenic double bonds.
func AssignStereoFrom3D(mol *Molecule, conf int, replaceExisting bool) error {
	c := mol.Conformer(conf)
	if c == nil {
		return fmt.Errorf("AssignStereoFrom3D: %w (requested %d of %d)", ErrNoConformer, conf, mol.NConformers())
	}
	p := perceiveStereo(mol.Topology)
	//a lone atom, or anything else without stereo, can sit at the origin.
	if c.IsZero(1e-8) && len(p.centers)+len(p.bonds) > 0 {
		return fmt.Errorf("AssignStereoFrom3D: conformer %d: %w", conf, ErrZeroCoords)
	}
	if replaceExisting {
		for _, a := range mol.Atoms {
			a.Chiral = ChiralUnspecified
		}
		for _, b := range mol.Bonds {
			b.Stereo = StereoNone
			b.StereoAtoms = [2]int{}
		}
	}
	for _, i := range p.centers {
		a := mol.Atoms[i]
		if a.Chiral != ChiralUnspecified {
			continue
		}
		a.Chiral = chiralFrom3D(a, c)
	}
	for _, i := range p.bonds {
		b := mol.Bonds[i]
		if b.Stereo == StereoE || b.Stereo == StereoZ {
			continue
		}
		r1 := p.reference(b.At1, b.At2)
		r2 := p.reference(b.At2, b.At1)
		d := v3.Dihedral(c.VecView(r1.Index), c.VecView(b.At1.Index), c.VecView(b.At2.Index), c.VecView(r2.Index))
		b.StereoAtoms = [2]int{r1.Index, r2.Index}
		if math.Abs(d) < math.Pi/2 {
			b.Stereo = StereoZ
		} else {
			b.Stereo = StereoE
		}
	}
	return nil
}

//canonicalChiral returns the tag of a as if its neighbors were listed by increasing index.
func canonicalChiral(a *Atom) ChiralTag {
	return canonicalTag(a, a.Chiral)
}

//canonicalTag translates t, a tag following the order of a's bonds, to the order of increasing
//neighbor index. The translation is its own inverse.
func canonicalTag(a *Atom, t ChiralTag) ChiralTag {
	if t == ChiralUnspecified {
		return t
	}
	idx := make([]int, 0, 4)
	for _, n := range a.Neighbors() {
		idx = append(idx, n.Index)
	}
	swaps := 0
	for i := 0; i < len(idx); i++ {
		for j := 0; j < len(idx)-1-i; j++ {
			if idx[j] > idx[j+1] {
				idx[j], idx[j+1] = idx[j+1], idx[j]
				swaps++
			}
		}
	}
	if swaps%2 == 0 {
		return t
	}
	if t == ChiralCW {
		return ChiralCCW
	}
	return ChiralCW
}

//canonicalBondStereo returns the configuration of b as if its reference atoms were the
//lowest-indexed substituents on each end.
func canonicalBondStereo(b *Bond) BondStereo {
	if b.Stereo != StereoE && b.Stereo != StereoZ {
		return b.Stereo
	}
	flips := 0
	for k, end := range [2]*Atom{b.At1, b.At2} {
		lowest := -1
		for _, s := range substituents(end, b.Cross(end)) {
			if lowest < 0 || s.Index < lowest {
				lowest = s.Index
			}
		}
		if b.StereoAtoms[k] != lowest {
			flips++
		}
	}
	if flips%2 == 0 {
		return b.Stereo
	}
	if b.Stereo == StereoE {
		return StereoZ
	}
	return StereoE
}

//StereoMatches returns true if every chiral tag and double bond configuration specified in ref
//is also present, and equal, in mol. Both topologies must have the same graph, with the atoms
//in the same order.
func StereoMatches(ref, mol *Topology) bool {
	if ref.Len() != mol.Len() || ref.NBonds() != mol.NBonds() {
		return false
	}
	for i, a := range ref.Atoms {
		want := canonicalChiral(a)
		if want == ChiralUnspecified {
			continue
		}
		if canonicalChiral(mol.Atoms[i]) != want {
			return false
		}
	}
	for _, b := range ref.Bonds {
		want := canonicalBondStereo(b)
		if want != StereoE && want != StereoZ {
			continue
		}
		mb := mol.Bond(b.At1.Index, b.At2.Index)
		if mb == nil {
			return false
		}
		//the canonical form doesn't depend on the direction in which the bond is stored.
		if canonicalBondStereo(mb) != want {
			return false
		}
	}
	return true
}
