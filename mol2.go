/*
 * mol2.go, part of gocmiles.
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
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	v3 "github.com/rmera/gocmiles/v3"
)

//formal charges implied by some Tripos atom types.
var mol2TypeCharges = map[string]int{"N.4": 1}

//mol2BondOrders maps Tripos bond types to bond orders. Aromatic bonds are
//not kekulized here.
var mol2BondOrders = map[string]int{"1": 1, "2": 2, "3": 3, "am": 1}

type mol2Record struct {
	name   string
	top    *Topology
	coords []float64
	ids    map[int]int
}

//ReadMOL2 reads a Tripos MOL2 file. Several molecules with the same graph become
//conformers of one molecule; otherwise the last one is returned.
//Partial charges are ignored. Aromatic ("ar") bonds are not supported and give an
//error wrapping ErrBondOrder.
func ReadMOL2(r io.Reader) (*Molecule, error) {
	sc := bufio.NewScanner(r)
	recs := make([]*mol2Record, 0, 1)
	var cur *mol2Record
	section := ""
	sectionLine := 0
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "@<TRIPOS>") {
			section = strings.TrimPrefix(line, "@<TRIPOS>")
			sectionLine = 0
			if section == "MOLECULE" {
				cur = &mol2Record{top: NewTopology(0, 1, nil), ids: map[int]int{}}
				recs = append(recs, cur)
			}
			continue
		}
		sectionLine++
		if cur == nil {
			continue
		}
		f := strings.Fields(line)
		switch section {
		case "MOLECULE":
			if sectionLine == 1 {
				cur.name = line
			}
		case "ATOM":
			if len(f) < 6 {
				return nil, newCError(ErrParse, "ReadMOL2", "line %d: short atom line", lineno)
			}
			id, err := strconv.Atoi(f[0])
			if err != nil {
				return nil, newCError(ErrParse, "ReadMOL2", "line %d: %v", lineno, err)
			}
			for _, v := range f[2:5] {
				c, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, newCError(ErrParse, "ReadMOL2", "line %d: %v", lineno, err)
				}
				cur.coords = append(cur.coords, c)
			}
			element, _, _ := strings.Cut(f[5], ".")
			at, err := NewAtom(normalizeSymbol(element))
			if err != nil {
				return nil, newCError(ErrUnknownElement, "ReadMOL2", "line %d: atom type %q", lineno, f[5])
			}
			at.Name = f[1]
			at.Charge = mol2TypeCharges[f[5]]
			cur.ids[id] = cur.top.Len()
			cur.top.AddAtom(at)
		case "BOND":
			if len(f) < 4 {
				return nil, newCError(ErrParse, "ReadMOL2", "line %d: short bond line", lineno)
			}
			a1, err1 := strconv.Atoi(f[1])
			a2, err2 := strconv.Atoi(f[2])
			i1, ok1 := cur.ids[a1]
			i2, ok2 := cur.ids[a2]
			if err1 != nil || err2 != nil || !ok1 || !ok2 {
				return nil, newCError(ErrParse, "ReadMOL2", "line %d: bond to unknown atoms", lineno)
			}
			order, ok := mol2BondOrders[strings.ToLower(f[3])]
			if !ok {
				return nil, newCError(ErrBondOrder, "ReadMOL2", "line %d: bond type %q (use a toolkit backend for aromatic MOL2 files)", lineno, f[3])
			}
			if _, err := cur.top.AddBond(i1, i2, order); err != nil {
				return nil, newCError(ErrParse, "ReadMOL2", "line %d: %v", lineno, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ReadMOL2: %w", err)
	}
	if len(recs) == 0 {
		return nil, newCError(ErrParse, "ReadMOL2", "no molecules found")
	}
	mols := make([]*Molecule, 0, len(recs))
	for _, rec := range recs {
		if err := Sanitize(rec.top); err != nil {
			return nil, fmt.Errorf("ReadMOL2: %w", err)
		}
		if rec.name != "" {
			rec.top.SetProp("name", rec.name)
		}
		mol, _ := NewMolecule(rec.top)
		if len(rec.coords) > 0 {
			c, err := v3.NewMatrix(rec.coords)
			if err == nil {
				err = mol.AddConformer(c)
			}
			if err != nil {
				return nil, fmt.Errorf("ReadMOL2: %w", err)
			}
			if !c.IsZero(1e-8) {
				if err := AssignStereoFrom3D(mol, 0, true); err != nil {
					return nil, fmt.Errorf("ReadMOL2: %w", err)
				}
			}
		}
		mols = append(mols, mol)
	}
	first := mols[0]
	for _, m := range mols[1:] {
		if !SameGraph(first.Topology, m.Topology) {
			log.Printf("ReadMOL2: %d different molecules in the file, only the last one is kept", len(mols))
			return mols[len(mols)-1], nil
		}
		first.Coords = append(first.Coords, m.Coords...)
	}
	return first, nil
}
