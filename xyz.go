/*
 * xyz.go, part of gocmiles.
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
	"strconv"
	"strings"

	v3 "github.com/rmera/gocmiles/v3"
)

//normalizeSymbol turns "CL", "cl" or "17" into "Cl".
func normalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	if z, err := strconv.Atoi(s); err == nil {
		return Symbol(z)
	}
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

//ReadXYZ reads an XYZ file, which may contain several frames of the same molecule.
//Each frame becomes a conformer. If the comment line of every frame starts with a number,
//it is read as the energy of the frame, in whatever units the file uses. Otherwise the first
//comment line is kept as the "name" property.
//No bonds are assigned.
func ReadXYZ(r io.Reader) (*Molecule, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var mol *Molecule
	energies := make([]float64, 0)
	allEnergies := true
	line := 0
	for {
		natoms, eof, err := xyzHeader(sc, &line)
		if err != nil {
			return nil, errDecorate(err, "ReadXYZ")
		}
		if eof {
			break
		}
		if !sc.Scan() {
			return nil, newCError(ErrParse, "ReadXYZ", "missing comment line after line %d", line)
		}
		line++
		comment := strings.TrimSpace(sc.Text())
		fields := strings.Fields(comment)
		if e, err := firstFloat(fields); err == nil {
			energies = append(energies, e)
		} else {
			allEnergies = false
		}
		ats, coords, err := xyzFrame(sc, natoms, &line)
		if err != nil {
			return nil, errDecorate(err, "ReadXYZ")
		}
		if mol == nil {
			mol, _ = NewMolecule(NewTopology(0, 1, ats))
			if !allEnergies && comment != "" {
				mol.SetProp("name", comment)
			}
		} else if err := sameAtoms(mol.Topology, ats); err != nil {
			return nil, newCError(ErrParse, "ReadXYZ", "frame %d: %v", mol.NConformers(), err)
		}
		if err := mol.AddConformer(coords); err != nil {
			return nil, newCError(ErrParse, "ReadXYZ", "%v", err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ReadXYZ: %w", err)
	}
	if mol == nil {
		return nil, newCError(ErrParse, "ReadXYZ", "no atoms found")
	}
	if allEnergies {
		mol.Energies = energies
	}
	return mol, nil
}

func firstFloat(fields []string) (float64, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty line")
	}
	return strconv.ParseFloat(fields[0], 64)
}

//xyzHeader reads the number of atoms of the next frame, skipping blank lines.
//It returns true if the input ended before a new frame.
func xyzHeader(sc *bufio.Scanner, line *int) (int, bool, error) {
	for sc.Scan() {
		*line++
		t := strings.TrimSpace(sc.Text())
		if t == "" {
			continue
		}
		n, err := strconv.Atoi(t)
		if err != nil || n < 0 {
			return 0, false, newCError(ErrParse, "xyzHeader", "line %d: expected the number of atoms, got %q", *line, t)
		}
		return n, false, nil
	}
	return 0, true, nil
}

func xyzFrame(sc *bufio.Scanner, natoms int, line *int) ([]*Atom, *v3.Matrix, error) {
	ats := make([]*Atom, 0, natoms)
	data := make([]float64, 0, 3*natoms)
	for i := 0; i < natoms; i++ {
		if !sc.Scan() {
			return nil, nil, newCError(ErrParse, "xyzFrame", "expected %d atoms, file ended after %d", natoms, i)
		}
		*line++
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, nil, newCError(ErrParse, "xyzFrame", "line %d: expected symbol and 3 coordinates", *line)
		}
		at, err := NewAtom(normalizeSymbol(fields[0]))
		if err != nil {
			return nil, nil, newCError(ErrUnknownElement, "xyzFrame", "line %d: %q", *line, fields[0])
		}
		ats = append(ats, at)
		for _, f := range fields[1:4] {
			c, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, nil, newCError(ErrParse, "xyzFrame", "line %d: %v", *line, err)
			}
			data = append(data, c)
		}
	}
	if natoms == 0 {
		return ats, nil, newCError(ErrParse, "xyzFrame", "frame with no atoms")
	}
	coords, err := v3.NewMatrix(data)
	return ats, coords, err
}

//sameAtoms returns an error if ats don't have the same elements as T, in the same order.
func sameAtoms(T *Topology, ats []*Atom) error {
	if len(ats) != T.Len() {
		return fmt.Errorf("%d atoms, expected %d", len(ats), T.Len())
	}
	for i, a := range ats {
		if a.Symbol != T.Atoms[i].Symbol {
			return fmt.Errorf("atom %d is %s, expected %s", i, a.Symbol, T.Atoms[i].Symbol)
		}
	}
	return nil
}

//WriteXYZ writes all the conformers of mol in XYZ format. The energy of each conformer,
//if known, goes in the comment line. Otherwise the "name" property is used.
func WriteXYZ(w io.Writer, mol *Molecule) error {
	if mol.NConformers() == 0 {
		return fmt.Errorf("WriteXYZ: %w", ErrNoConformer)
	}
	bw := bufio.NewWriter(w)
	name, _ := mol.Prop("name")
	for i, c := range mol.Coords {
		fmt.Fprintf(bw, "%d\n", mol.Len())
		if e, ok := mol.Energy(i); ok {
			fmt.Fprintf(bw, "%.8f\n", e)
		} else {
			fmt.Fprintf(bw, "%s\n", name)
		}
		for j, a := range mol.Atoms {
			fmt.Fprintf(bw, "%-2s %14.8f %14.8f %14.8f\n", a.Symbol, c.At(j, 0), c.At(j, 1), c.At(j, 2))
		}
	}
	return bw.Flush()
}
