/*
 * json.go, part of gocmiles.
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
	"context"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	goskema "github.com/reoring/goskema"
	g "github.com/reoring/goskema/dsl"

	v3 "github.com/rmera/gocmiles/v3"
)

//JSONGeometryProp is set to "1" on molecules built from a QCSchema dictionary with a geometry.
//It means the atom order of the dictionary must be kept.
const JSONGeometryProp = "_json_geometry"

//QCMolecule is a QCSchema molecule, with the fields gocmiles uses.
//Geometry is a flat list of cartesian coordinates in Bohr. Each connectivity
//entry is [atom1, atom2, order], with 0-based atom indexes.
type QCMolecule struct {
	Name                  string         `json:"name,omitempty"`
	Symbols               []string       `json:"symbols"`
	Geometry              []float64      `json:"geometry,omitempty"`
	Connectivity          [][]float64    `json:"connectivity"`
	MolecularCharge       float64        `json:"molecular_charge"`
	MolecularMultiplicity int            `json:"molecular_multiplicity,omitempty"`
	Extras                map[string]any `json:"extras,omitempty"`
}

//atomMapExtra is the key in the QCSchema extras where atom-map indexes are kept.
const atomMapExtra = "atom_map"

var qcSchema goskema.Schema[map[string]any]

func init() {
	var err error
	qcSchema, err = g.Object().
		Field("symbols", g.ArrayOf[string](g.String())).
		Field("connectivity", g.ArrayOf[[]json.Number](g.Array[json.Number](g.NumberJSON()).Min(3).Max(3))).
		Field("geometry", g.ArrayOf[json.Number](g.NumberJSON())).
		Field("molecular_charge", g.FloatOf[float64]()).
		Field("molecular_multiplicity", g.IntOf[int]()).
		Field("name", g.StringOf[string]()).
		Require("symbols", "connectivity").
		UnknownStrip().
		Build()
	if err != nil {
		panic(fmt.Sprintf("gocmiles: building the QCSchema validator: %v", err)) //programming error
	}
}

//qcRaw returns the JSON text of a QCSchema molecule given as a map, a QCMolecule or JSON bytes.
func qcRaw(input any) ([]byte, error) {
	switch in := input.(type) {
	case []byte:
		return in, nil
	case json.RawMessage:
		return in, nil
	case map[string]any, QCMolecule, *QCMolecule:
		return json.Marshal(in)
	default:
		return nil, fmt.Errorf("%w: unsupported input type %T", ErrSchema, input)
	}
}

//DecodeQCMolecule validates a QCSchema molecule given as a map[string]any, a QCMolecule
//or JSON bytes, and returns it as a QCMolecule.
func DecodeQCMolecule(ctx context.Context, input any) (*QCMolecule, error) {
	raw, err := qcRaw(input)
	if err != nil {
		return nil, fmt.Errorf("DecodeQCMolecule: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("DecodeQCMolecule: %w: %w", ErrSchema, err)
	}
	if _, err := qcSchema.Parse(ctx, m); err != nil {
		return nil, fmt.Errorf("DecodeQCMolecule: %w: %w", ErrSchema, err)
	}
	q := new(QCMolecule)
	if err := json.Unmarshal(raw, q); err != nil {
		return nil, fmt.Errorf("DecodeQCMolecule: %w: %w", ErrSchema, err)
	}
	//an empty geometry is still a geometry, and a wrong one.
	if m["geometry"] != nil && q.Geometry == nil {
		q.Geometry = []float64{}
	}
	return q, nil
}

//MolFromJSON builds a molecule from a QCSchema dictionary, given as a map[string]any,
//a QCMolecule (or pointer to one), or JSON bytes.
//Atom i of the molecule is the ith element of "symbols", and bonds are added in the order
//of "connectivity". The molecule is sanitized. If a geometry is given, it is converted from Bohr
//to Angstrom and added as the only conformer, the stereochemistry is assigned from it, and
//the JSONGeometryProp property is set.
func MolFromJSON(input any) (*Molecule, error) {
	q, err := DecodeQCMolecule(context.Background(), input)
	if err != nil {
		return nil, fmt.Errorf("MolFromJSON: %w", err)
	}
	return q.Molecule()
}

//integral returns f as an int, and false if f has a fractional part.
func integral(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int(f), true
}

//Molecule builds a molecule from Q. See MolFromJSON. A nil Geometry means no geometry,
//while an empty one is an error wrapping ErrGeometryLength.
func (Q *QCMolecule) Molecule() (*Molecule, error) {
	charge, ok := integral(Q.MolecularCharge)
	if !ok {
		return nil, fmt.Errorf("MolFromJSON: %w: non-integer molecular charge %g", ErrSchema, Q.MolecularCharge)
	}
	top := NewTopology(charge, Q.MolecularMultiplicity, nil)
	for i, s := range Q.Symbols {
		at, err := NewAtom(s)
		if err != nil {
			return nil, fmt.Errorf("MolFromJSON: symbol %d: %w", i, err)
		}
		top.AddAtom(at)
	}
	if err := Q.readAtomMap(top); err != nil {
		return nil, err
	}
	for i, c := range Q.Connectivity {
		if len(c) < 3 {
			return nil, fmt.Errorf("MolFromJSON: %w: connectivity entry %d has %d elements", ErrSchema, i, len(c))
		}
		a1, ok1 := integral(c[0])
		a2, ok2 := integral(c[1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("MolFromJSON: %w: connectivity entry %d has non-integer atom indexes", ErrSchema, i)
		}
		order, ok := integral(c[len(c)-1])
		if !ok || order < 1 || order > 3 {
			return nil, fmt.Errorf("MolFromJSON: connectivity entry %d: %w %g", i, ErrBondOrder, c[len(c)-1])
		}
		if _, err := top.AddBond(a1, a2, order); err != nil {
			return nil, fmt.Errorf("MolFromJSON: connectivity entry %d: %w: %w", i, ErrSanitize, err)
		}
	}
	if err := Sanitize(top); err != nil {
		return nil, fmt.Errorf("MolFromJSON: %w", err)
	}
	if Q.Name != "" {
		top.SetProp("name", Q.Name)
	}
	mol, _ := NewMolecule(top)
	if Q.Geometry == nil {
		return mol, nil
	}
	if len(Q.Geometry) != 3*len(Q.Symbols) {
		return nil, fmt.Errorf("MolFromJSON: %w: %d values for %d atoms", ErrGeometryLength, len(Q.Geometry), len(Q.Symbols))
	}
	data := make([]float64, len(Q.Geometry))
	for i, v := range Q.Geometry {
		data[i] = v * Bohr2A
	}
	coords, err := v3.NewMatrix(data)
	if err != nil {
		return nil, fmt.Errorf("MolFromJSON: %w", err)
	}
	if err := mol.AddConformer(coords); err != nil {
		return nil, fmt.Errorf("MolFromJSON: %w", err)
	}
	if err := AssignStereoFrom3D(mol, 0, true); err != nil {
		return nil, fmt.Errorf("MolFromJSON: %w", err)
	}
	mol.SetProp(JSONGeometryProp, "1")
	return mol, nil
}

//readAtomMap sets the atom-map indexes kept in the extras of Q, if any.
func (Q *QCMolecule) readAtomMap(top *Topology) error {
	raw, ok := Q.Extras[atomMapExtra]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok || len(list) != top.Len() {
		return fmt.Errorf("MolFromJSON: %w: extras.%s must be a list with one integer per atom", ErrSchema, atomMapExtra)
	}
	for i, v := range list {
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("MolFromJSON: %w: extras.%s element %d is not a number", ErrSchema, atomMapExtra, i)
		}
		m, ok := integral(f)
		if !ok || m < 0 {
			return fmt.Errorf("MolFromJSON: %w: extras.%s element %d is not a valid map index", ErrSchema, atomMapExtra, i)
		}
		top.Atoms[i].MapIdx = m
	}
	return nil
}

//ToJSON returns mol as a QCSchema molecule, using the coordinates of conformer conf,
//converted to Bohr. A conf without coordinates gives a molecule without geometry.
//Atom-map indexes are kept in the extras, if the molecule has any.
func ToJSON(mol *Molecule, conf int) *QCMolecule {
	q := &QCMolecule{
		Symbols:               make([]string, 0, mol.Len()),
		Connectivity:          make([][]float64, 0, mol.NBonds()),
		MolecularCharge:       float64(mol.Charge()),
		MolecularMultiplicity: mol.Multi(),
	}
	q.Name, _ = mol.Prop("name")
	mapped := false
	maps := make([]any, 0, mol.Len())
	for _, a := range mol.Atoms {
		q.Symbols = append(q.Symbols, a.Symbol)
		maps = append(maps, a.MapIdx)
		mapped = mapped || a.MapIdx != 0
	}
	if mapped {
		q.Extras = map[string]any{atomMapExtra: maps}
	}
	for _, b := range mol.Bonds {
		q.Connectivity = append(q.Connectivity, []float64{float64(b.At1.Index), float64(b.At2.Index), float64(b.Order)})
	}
	if c := mol.Conformer(conf); c != nil {
		q.Geometry = make([]float64, 0, 3*mol.Len())
		for i := 0; i < c.NVecs(); i++ {
			for j := 0; j < 3; j++ {
				q.Geometry = append(q.Geometry, c.At(i, j)*A2Bohr)
			}
		}
	}
	return q
}
