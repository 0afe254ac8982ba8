/*
 * json_test.go, part of gocmiles.
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
	"os"
	"testing"
)

func bcfJSON() map[string]any {
	geo := []float64{
		0, 0, 0,
		1.09 * s3, 1.09 * s3, 1.09 * s3,
		1.35 * s3, -1.35 * s3, -1.35 * s3,
		-1.77 * s3, 1.77 * s3, -1.77 * s3,
		-1.94 * s3, -1.94 * s3, 1.94 * s3,
	}
	for i := range geo {
		geo[i] *= A2Bohr
	}
	return map[string]any{
		"symbols":                []string{"C", "H", "F", "Cl", "Br"},
		"connectivity":           [][]int{{0, 1, 1}, {0, 2, 1}, {0, 3, 1}, {0, 4, 1}},
		"geometry":               geo,
		"molecular_charge":       0,
		"molecular_multiplicity": 1,
	}
}

func TestMolFromJSON(Te *testing.T) {
	mol, err := MolFromJSON(bcfJSON())
	if err != nil {
		Te.Fatal(err)
	}
	want := []string{"C", "H", "F", "Cl", "Br"}
	for i, a := range mol.Atoms {
		if a.Index != i || a.Symbol != want[i] {
			Te.Errorf("atom %d is %s with index %d", i, a.Symbol, a.Index)
		}
	}
	if mol.NBonds() != 4 || mol.Bonds[2].At2.Symbol != "Cl" {
		Te.Errorf("bonds not added in connectivity order")
	}
	if d := mol.Coords[0].At(4, 2); math.Abs(d-1.94*s3) > 1e-9 {
		Te.Errorf("geometry not converted to Angstrom: %f", d)
	}
	if mol.Atoms[0].Chiral != ChiralCCW {
		Te.Errorf("stereochemistry not assigned from the geometry: %v", mol.Atoms[0].Chiral)
	}
	if v, ok := mol.Prop(JSONGeometryProp); !ok || v != "1" {
		Te.Errorf("%s property not set", JSONGeometryProp)
	}
	//without geometry there are no conformers and no tag
	m := bcfJSON()
	delete(m, "geometry")
	mol, err = MolFromJSON(m)
	if err != nil {
		Te.Fatal(err)
	}
	if mol.NConformers() != 0 || mol.HasProp(JSONGeometryProp) {
		Te.Errorf("molecule without geometry got conformers or the geometry tag")
	}
}

func TestMolFromJSONSingleAtom(Te *testing.T) {
	for _, c := range []struct {
		symbol string
		charge int
	}{{"He", 0}, {"Na", 1}} {
		mol, err := MolFromJSON(map[string]any{
			"symbols":          []string{c.symbol},
			"connectivity":     [][]int{},
			"geometry":         []float64{0, 0, 0},
			"molecular_charge": c.charge,
		})
		if err != nil {
			Te.Fatalf("%s: %v", c.symbol, err)
		}
		if mol.Len() != 1 || mol.NConformers() != 1 || mol.Charge() != c.charge {
			Te.Errorf("%s: wrong molecule: %d atoms %d conformers charge %d", c.symbol, mol.Len(), mol.NConformers(), mol.Charge())
		}
		if !mol.HasProp(JSONGeometryProp) {
			Te.Errorf("%s: %s property not set", c.symbol, JSONGeometryProp)
		}
	}
}

func TestMolFromJSONFile(Te *testing.T) {
	b, err := os.ReadFile("test/water.json")
	if err != nil {
		Te.Fatal(err)
	}
	mol, err := MolFromJSON(b)
	if err != nil {
		Te.Fatal(err)
	}
	if mol.Len() != 3 || mol.Atoms[0].Symbol != "O" || mol.Multi() != 1 {
		Te.Errorf("wrong water molecule")
	}
	if name, _ := mol.Prop("name"); name != "water" {
		Te.Errorf("name not read: %q", name)
	}
	if h := mol.Coords[0].At(1, 1); math.Abs(h-0.7572) > 1e-6 {
		Te.Errorf("wrong H coordinate %f", h)
	}
}

func TestMolFromJSONErrors(Te *testing.T) {
	cases := []struct {
		name string
		mod  func(map[string]any)
		want error
	}{
		{"aromatic order", func(m map[string]any) { m["connectivity"] = [][]float64{{0, 1, 1.5}} }, ErrBondOrder},
		{"order 4", func(m map[string]any) { m["connectivity"] = [][]int{{0, 1, 4}} }, ErrBondOrder},
		{"short geometry", func(m map[string]any) { m["geometry"] = []float64{0, 0, 0} }, ErrGeometryLength},
		{"empty geometry", func(m map[string]any) { m["geometry"] = []float64{} }, ErrGeometryLength},
		{"unknown element", func(m map[string]any) { m["symbols"] = []string{"C", "H", "F", "Cl", "Xx"} }, ErrUnknownElement},
		{"no connectivity", func(m map[string]any) { delete(m, "connectivity") }, ErrSchema},
		{"bad symbols", func(m map[string]any) { m["symbols"] = "CHFClBr" }, ErrSchema},
		{"pentavalent", func(m map[string]any) {
			m["connectivity"] = [][]int{{0, 1, 2}, {0, 2, 1}, {0, 3, 1}, {0, 4, 1}}
		}, ErrSanitize},
	}
	for _, c := range cases {
		m := bcfJSON()
		c.mod(m)
		if _, err := MolFromJSON(m); !errors.Is(err, c.want) {
			Te.Errorf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}
}

func TestToJSON(Te *testing.T) {
	mol, err := MolFromJSON(bcfJSON())
	if err != nil {
		Te.Fatal(err)
	}
	MapByIndex(mol.Topology)
	mol.SetCharge(0)
	q := ToJSON(mol, 0)
	if len(q.Geometry) != 15 || math.Abs(q.Geometry[14]-1.94*s3*A2Bohr) > 1e-9 {
		Te.Errorf("geometry not written in Bohr")
	}
	back, err := MolFromJSON(q)
	if err != nil {
		Te.Fatal(err)
	}
	if !IsMapped(back.Topology) || back.Atoms[3].MapIdx != 4 {
		Te.Errorf("atom maps lost in the round trip")
	}
	if !StereoMatches(mol.Topology, back.Topology) {
		Te.Errorf("stereochemistry lost in the round trip")
	}
	if q := ToJSON(mol, 3); q.Geometry != nil {
		Te.Errorf("geometry written for a missing conformer")
	}
}
