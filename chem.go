/*
 * chem.go, part of gocmiles.
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
	"sort"

	v3 "github.com/rmera/gocmiles/v3"
)

//ChiralTag tells the handedness of a stereocenter. Looking from the first neighbor
//(in the order of the atom's bonds) toward the center, the rest of the neighbors run
//clockwise (CW) or counter-clockwise (CCW). A lone pair, if present, counts as the last
//neighbor.
type ChiralTag int

const (
	ChiralUnspecified ChiralTag = iota
	ChiralCW
	ChiralCCW
)

func (c ChiralTag) String() string {
	switch c {
	case ChiralCW:
		return "CW"
	case ChiralCCW:
		return "CCW"
	default:
		return "unspecified"
	}
}

//BondStereo is the configuration of a double bond with respect to its StereoAtoms.
type BondStereo int

const (
	StereoNone BondStereo = iota
	StereoE
	StereoZ
	StereoAny //a stereogenic bond with unknown configuration
)

func (s BondStereo) String() string {
	return [...]string{"none", "E", "Z", "any"}[s]
}

//Atom contains the atom-level information of a molecule.
type Atom struct {
	Name   string
	Symbol string
	Z      int
	Index  int //position in the topology
	MapIdx int //atom-map number, 0 means unmapped
	Charge int //formal charge
	Mass   float64
	Chiral ChiralTag
	Bonds  []*Bond
}

//NewAtom returns an atom of the element with the given symbol, with its atomic number
//and mass set. It returns an error wrapping ErrUnknownElement if the symbol is not valid.
func NewAtom(symbol string) (*Atom, error) {
	z, ok := AtomicNumber(symbol)
	if !ok {
		return nil, fmt.Errorf("NewAtom: %w: %q", ErrUnknownElement, symbol)
	}
	return &Atom{Symbol: symbol, Name: symbol, Z: z, Mass: AtomicMass(symbol)}, nil
}

//Copy returns a copy of the atom, without its bonds.
func (A *Atom) Copy() *Atom {
	r := *A
	r.Bonds = nil
	return &r
}

//Neighbors returns the atoms bonded to A, in the order of A's bonds.
func (A *Atom) Neighbors() []*Atom {
	ret := make([]*Atom, 0, len(A.Bonds))
	for _, b := range A.Bonds {
		ret = append(ret, b.Cross(A))
	}
	return ret
}

//Valence returns the sum of the orders of A's bonds.
func (A *Atom) Valence() int {
	v := 0
	for _, b := range A.Bonds {
		v += b.Order
	}
	return v
}

//Bond joins two atoms.
type Bond struct {
	Index       int
	At1         *Atom
	At2         *Atom
	Dist        float64 //only set by AssignBonds
	Order       int
	Stereo      BondStereo
	StereoAtoms [2]int //reference atoms for Stereo: a neighbor of At1 and one of At2
	InRing      bool
}

//Cross returns the atom bonded to origin through B.
func (B *Bond) Cross(origin *Atom) *Atom {
	if origin == B.At1 || origin.Index == B.At1.Index {
		return B.At2
	}
	if origin == B.At2 || origin.Index == B.At2.Index {
		return B.At1
	}
	panic("Trying to cross a bond: The origin atom given is not present in the bond!") //This is a programming error.
}

//Topology contains the graph of a molecule: atoms, bonds, total charge,
//multiplicity and a set of string properties.
type Topology struct {
	Atoms  []*Atom
	Bonds  []*Bond
	charge int
	multi  int
	props  map[string]string
}

//NewTopology returns a topology with the given charge, multiplicity and atoms.
//The indexes of the atoms are set to their positions.
func NewTopology(charge, multi int, ats []*Atom) *Topology {
	if multi < 1 {
		multi = 1
	}
	T := &Topology{Atoms: ats, charge: charge, multi: multi, props: map[string]string{}}
	if T.Atoms == nil {
		T.Atoms = make([]*Atom, 0)
	}
	T.FillIndexes()
	return T
}

//FillIndexes sets the index of each atom to its position in the topology,
//and the one of each bond to its position in the bond list.
func (T *Topology) FillIndexes() {
	for i, a := range T.Atoms {
		a.Index = i
	}
	for i, b := range T.Bonds {
		b.Index = i
	}
}

//Charge returns the total charge.
func (T *Topology) Charge() int { return T.charge }

//Multi returns the multiplicity.
func (T *Topology) Multi() int { return T.multi }

//SetCharge sets the total charge.
func (T *Topology) SetCharge(c int) { T.charge = c }

//SetMulti sets the multiplicity.
func (T *Topology) SetMulti(m int) { T.multi = m }

//Len returns the number of atoms.
func (T *Topology) Len() int { return len(T.Atoms) }

//Atom returns the ith atom. It panics if i is out of range.
func (T *Topology) Atom(i int) *Atom { return T.Atoms[i] }

//AddAtom appends at to the topology, setting its index.
func (T *Topology) AddAtom(at *Atom) {
	at.Index = len(T.Atoms)
	T.Atoms = append(T.Atoms, at)
}

//NBonds returns the number of bonds.
func (T *Topology) NBonds() int { return len(T.Bonds) }

//BondAtoms returns the indexes of the atoms joined by the ith bond.
func (T *Topology) BondAtoms(i int) (int, int) {
	b := T.Bonds[i]
	return b.At1.Index, b.At2.Index
}

//AddBond joins atoms i and j with a bond of the given order, and returns the bond.
//Only the indexes are checked here; Sanitize checks the chemistry.
func (T *Topology) AddBond(i, j, order int) (*Bond, error) {
	if i < 0 || j < 0 || i >= T.Len() || j >= T.Len() {
		return nil, fmt.Errorf("AddBond: atom index %d or %d out of range for %d atoms", i, j, T.Len())
	}
	b := &Bond{Index: len(T.Bonds), At1: T.Atoms[i], At2: T.Atoms[j], Order: order}
	T.Bonds = append(T.Bonds, b)
	b.At1.Bonds = append(b.At1.Bonds, b)
	if i != j {
		b.At2.Bonds = append(b.At2.Bonds, b)
	}
	return b, nil
}

//Bond returns the bond between atoms i and j, or nil if they are not bonded.
func (T *Topology) Bond(i, j int) *Bond {
	if i < 0 || i >= T.Len() {
		return nil
	}
	for _, b := range T.Atoms[i].Bonds {
		if b.Cross(T.Atoms[i]).Index == j {
			return b
		}
	}
	return nil
}

//Prop returns the value of the property key, and whether it is set.
func (T *Topology) Prop(key string) (string, bool) {
	v, ok := T.props[key]
	return v, ok
}

//HasProp returns true if the property key is set.
func (T *Topology) HasProp(key string) bool {
	_, ok := T.props[key]
	return ok
}

//SetProp sets the property key to val.
func (T *Topology) SetProp(key, val string) {
	if T.props == nil {
		T.props = map[string]string{}
	}
	T.props[key] = val
}

//PropKeys returns the names of the properties set, sorted.
func (T *Topology) PropKeys() []string {
	ret := make([]string, 0, len(T.props))
	for k := range T.props {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

//CopyTopology returns a deep copy of T. Bonds are rebuilt on the new atoms.
func (T *Topology) CopyTopology() *Topology {
	ats := make([]*Atom, 0, T.Len())
	for _, a := range T.Atoms {
		ats = append(ats, a.Copy())
	}
	r := NewTopology(T.charge, T.multi, ats)
	for _, b := range T.Bonds {
		nb, _ := r.AddBond(b.At1.Index, b.At2.Index, b.Order)
		nb.Dist = b.Dist
		nb.Stereo = b.Stereo
		nb.StereoAtoms = b.StereoAtoms
		nb.InRing = b.InRing
	}
	for k, v := range T.props {
		r.props[k] = v
	}
	return r
}

//Molecule is a Topology with one set of coordinates (in Angstrom) per conformer and,
//optionally, one energy (in kcal/mol) per conformer.
type Molecule struct {
	*Topology
	Coords   []*v3.Matrix
	Energies []float64
}

//NewMolecule returns a molecule with the given topology and conformers. It fails if
//any conformer doesn't have one vector per atom.
func NewMolecule(top *Topology, coords ...*v3.Matrix) (*Molecule, error) {
	if top == nil {
		top = NewTopology(0, 1, nil)
	}
	M := &Molecule{Topology: top, Coords: make([]*v3.Matrix, 0, len(coords))}
	for i, c := range coords {
		if err := M.AddConformer(c); err != nil {
			return nil, fmt.Errorf("NewMolecule: conformer %d: %w", i, err)
		}
	}
	return M, nil
}

//AddConformer appends a set of coordinates to the molecule.
func (M *Molecule) AddConformer(c *v3.Matrix) error {
	if c == nil {
		return fmt.Errorf("AddConformer: nil coordinates")
	}
	if c.NVecs() != M.Len() {
		return fmt.Errorf("AddConformer: %d coordinates for %d atoms", c.NVecs(), M.Len())
	}
	M.Coords = append(M.Coords, c)
	return nil
}

//NConformers returns the number of conformers.
func (M *Molecule) NConformers() int { return len(M.Coords) }

//Conformer returns the coordinates of the ith conformer, or nil if there is no such conformer.
func (M *Molecule) Conformer(i int) *v3.Matrix {
	if i < 0 || i >= len(M.Coords) {
		return nil
	}
	return M.Coords[i]
}

//Energy returns the energy of the ith conformer, and false if it is not known.
func (M *Molecule) Energy(i int) (float64, bool) {
	if i < 0 || i >= len(M.Energies) || len(M.Energies) != len(M.Coords) {
		return 0, false
	}
	return M.Energies[i], true
}

//Truncate keeps only the first n conformers (and energies).
func (M *Molecule) Truncate(n int) {
	if n < 0 || n >= len(M.Coords) {
		return
	}
	M.Coords = M.Coords[:n]
	if len(M.Energies) > n {
		M.Energies = M.Energies[:n]
	}
}

//Copy returns a deep copy of M, which shares no memory with it.
func (M *Molecule) Copy() *Molecule {
	r := &Molecule{Topology: M.Topology.CopyTopology(), Coords: make([]*v3.Matrix, 0, len(M.Coords))}
	for _, c := range M.Coords {
		r.Coords = append(r.Coords, c.Clone())
	}
	if M.Energies != nil {
		r.Energies = append([]float64(nil), M.Energies...)
	}
	return r
}

//Corrupted returns an error if the number of atoms doesn't match the number of coordinates
//in any conformer, or the number of energies doesn't match the number of conformers.
func (M *Molecule) Corrupted() error {
	for i, c := range M.Coords {
		if c.NVecs() != M.Len() {
			return fmt.Errorf("Corrupted: conformer %d has %d coordinates for %d atoms", i, c.NVecs(), M.Len())
		}
	}
	if len(M.Energies) != 0 && len(M.Energies) != len(M.Coords) {
		return fmt.Errorf("Corrupted: %d energies for %d conformers", len(M.Energies), len(M.Coords))
	}
	return nil
}
