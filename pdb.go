/*
 * pdb.go, part of gocmiles.
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
	"sort"
	"strconv"
	"strings"

	v3 "github.com/rmera/gocmiles/v3"
)

//symbolFromName tries to guess a chemical element symbol from a PDB atom name. Mostly based on AMBER names.
//It only deals with some common bio-elements.
func symbolFromName(name string) (string, error) {
	symbol := ""
	switch {
	case name == "":
	case len(name) == 4 || name[0] == 'H': //I thiiink only Hs can have 4-char names in amber.
		symbol = "H"
	case name[0] == 'C': //Ca is not considered here
		switch name {
		case "CU":
			symbol = "Cu"
		case "CO":
			symbol = "Co"
		case "CL":
			symbol = "Cl"
		default:
			symbol = "C"
		}
	case name[0] == 'N':
		symbol = "N"
		if name == "NA" {
			symbol = "Na"
		}
	case name[0] == 'O':
		symbol = "O"
	case name[0] == 'P':
		symbol = "P"
	case name[0] == 'S':
		symbol = "S"
		if name == "SE" {
			symbol = "Se"
		}
	case name[0] == 'F':
		symbol = "F"
	case strings.HasPrefix(name, "ZN"):
		symbol = "Zn"
	case strings.HasPrefix(name, "BR"):
		symbol = "Br"
	case name[0] == 'I':
		symbol = "I"
	}
	if symbol == "" {
		return symbol, fmt.Errorf("couldn't guess symbol from PDB name %q", name)
	}
	return symbol, nil
}

//field returns line[from:to], trimmed, tolerating short lines.
func field(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}

//readPDBAtom parses an ATOM or HETATM line, returning the atom, its serial number and coordinates.
func readPDBAtom(line string) (*Atom, int, [3]float64, error) {
	var coords [3]float64
	serial, err := strconv.Atoi(field(line, 6, 11))
	if err != nil {
		return nil, 0, coords, fmt.Errorf("serial number: %w", err)
	}
	for i := 0; i < 3; i++ {
		coords[i], err = strconv.ParseFloat(field(line, 30+8*i, 38+8*i), 64)
		if err != nil {
			return nil, 0, coords, fmt.Errorf("coordinate %d: %w", i, err)
		}
	}
	name := field(line, 12, 16)
	symbol := normalizeSymbol(field(line, 76, 78))
	if symbol == "" {
		symbol, err = symbolFromName(name)
		if err != nil {
			return nil, 0, coords, err
		}
	}
	at, err := NewAtom(symbol)
	if err != nil {
		return nil, 0, coords, err
	}
	at.Name = name
	//charges are written as "1+" or "2-"
	if c := field(line, 78, 80); len(c) == 2 {
		q, err := strconv.Atoi(c[:1])
		if err == nil {
			if c[1] == '-' {
				q = -q
			}
			at.Charge = q
		}
	}
	return at, serial, coords, nil
}

//ReadPDB reads the ATOM and HETATM records of a PDB file. Each MODEL becomes a conformer.
//Bonds are read from CONECT records, where a bond listed n times from the same atom has order n.
func ReadPDB(r io.Reader) (*Molecule, error) {
	sc := bufio.NewScanner(r)
	var top *Topology
	serials := make(map[int]int) //serial number to atom index
	frames := make([][]float64, 0, 1)
	current := make([]float64, 0, 30)
	conect := make(map[[2]int]int)
	lineno := 0
	endFrame := func() {
		if len(current) > 0 {
			frames = append(frames, current)
			current = make([]float64, 0, len(current))
		}
	}
	for sc.Scan() {
		lineno++
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			at, serial, c, err := readPDBAtom(line)
			if err != nil {
				return nil, newCError(ErrParse, "ReadPDB", "line %d: %v", lineno, err)
			}
			current = append(current, c[:]...)
			if len(frames) == 0 {
				if top == nil {
					top = NewTopology(0, 1, nil)
				}
				serials[serial] = top.Len()
				top.AddAtom(at)
			}
		case strings.HasPrefix(line, "ENDMDL"):
			endFrame()
		case strings.HasPrefix(line, "CONECT"):
			from, err := strconv.Atoi(field(line, 6, 11))
			if err != nil {
				return nil, newCError(ErrParse, "ReadPDB", "line %d: %v", lineno, err)
			}
			for i := 11; i < len(line); i += 5 {
				f := field(line, i, i+5)
				if f == "" {
					continue
				}
				to, err := strconv.Atoi(f)
				if err != nil {
					return nil, newCError(ErrParse, "ReadPDB", "line %d: %v", lineno, err)
				}
				conect[[2]int{from, to}]++
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ReadPDB: %w", err)
	}
	endFrame()
	if top == nil {
		return nil, newCError(ErrParse, "ReadPDB", "no atoms found")
	}
	mol, _ := NewMolecule(top)
	for i, f := range frames {
		c, err := v3.NewMatrix(f)
		if err == nil {
			err = mol.AddConformer(c)
		}
		if err != nil {
			return nil, newCError(ErrParse, "ReadPDB", "model %d: %v", i+1, err)
		}
	}
	if err := pdbBonds(top, serials, conect); err != nil {
		return nil, errDecorate(err, "ReadPDB")
	}
	return mol, nil
}

//pdbBonds adds the bonds from the CONECT records. A pair listed n times from either
//of its atoms gets order n.
func pdbBonds(top *Topology, serials map[int]int, conect map[[2]int]int) error {
	orders := make(map[[2]int]int)
	keys := make([][2]int, 0, len(conect))
	for pair, n := range conect {
		i, ok1 := serials[pair[0]]
		j, ok2 := serials[pair[1]]
		if !ok1 || !ok2 {
			return newCError(ErrParse, "pdbBonds", "CONECT record for unknown atom serial %d-%d", pair[0], pair[1])
		}
		if i == j {
			continue
		}
		key := [2]int{min(i, j), max(i, j)}
		if _, ok := orders[key]; !ok {
			keys = append(keys, key)
		}
		orders[key] = max(orders[key], min(n, 3))
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, k := range keys {
		if _, err := top.AddBond(k[0], k[1], orders[k]); err != nil {
			return newCError(ErrParse, "pdbBonds", "%v", err)
		}
	}
	return nil
}
