/*
 * sdf.go, part of gocmiles.
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

//EnergyProp is the SD data item where conformer energies (kcal/mol) are written.
const EnergyProp = "energy"

//BondStereoProp is the SD data item where the E/Z configuration of double bonds is written
//for records without coordinates, as V2000 has no other way to keep it. Each line holds the
//two atoms of a bond, a reference neighbor of each of them, and E or Z. Indexes are 1-based.
const BondStereoProp = "bond_stereo"

//V2000 atom parities, and the bond stereo code of a double bond with unknown configuration.
const (
	mdlParityOdd    = 1
	mdlParityEven   = 2
	mdlParityEither = 3
	mdlBondEither   = 3
)

//mdlParity returns the V2000 parity of a when its tag is t. With the highest-numbered neighbor
//pointing away, the other three run clockwise by increasing number for odd parity, which is
//a CW tag with the neighbors sorted by index.
func mdlParity(a *Atom, t ChiralTag) int {
	switch canonicalTag(a, t) {
	case ChiralCW:
		return mdlParityOdd
	case ChiralCCW:
		return mdlParityEven
	}
	return mdlParityEither
}

//chiralFromParity returns the tag of a, in the order of its bonds, for a V2000 parity.
func chiralFromParity(a *Atom, parity int) ChiralTag {
	switch parity {
	case mdlParityOdd:
		return canonicalTag(a, ChiralCW)
	case mdlParityEven:
		return canonicalTag(a, ChiralCCW)
	}
	return ChiralUnspecified
}

//mdlStereo is the stereochemistry found in the atom and bond blocks of a record.
type mdlStereo struct {
	parities []int
	either   map[int]bool //bonds marked as either cis or trans
	ez       string       //the BondStereoProp data item
}

//apply sets the stereochemistry of mol, which must have been sanitized. When the record is 3D
//the coordinates decide, except for the centers and bonds the record marks as unknown.
//Otherwise the parities and the E/Z data item are used.
func (S *mdlStereo) apply(mol *Molecule, is3D bool) {
	centers, bonds := PotentialStereo(mol.Topology)
	from3D := false
	if is3D {
		if err := AssignStereoFrom3D(mol, 0, true); err != nil {
			log.Printf("readSDFRecord: stereochemistry not assigned from the coordinates: %v", err)
		} else {
			from3D = true
		}
	}
	for _, i := range centers {
		a := mol.Atoms[i]
		switch {
		case S.parities[i] == mdlParityEither:
			a.Chiral = ChiralUnspecified
		case !from3D:
			a.Chiral = chiralFromParity(a, S.parities[i])
		}
	}
	if !from3D && S.ez != "" {
		S.readEZ(mol.Topology)
	}
	for _, i := range bonds {
		if b := mol.Bonds[i]; S.either[i] {
			b.Stereo = StereoAny
			b.StereoAtoms = [2]int{}
		}
	}
}

//readEZ sets the double bond configurations given in the BondStereoProp data item.
//Malformed lines are skipped.
func (S *mdlStereo) readEZ(T *Topology) {
	for _, line := range strings.Split(S.ez, "\n") {
		f := strings.Fields(line)
		if len(f) != 5 || (f[4] != "E" && f[4] != "Z") {
			continue
		}
		idx := make([]int, 4)
		ok := true
		for j := range idx {
			v, err := strconv.Atoi(f[j])
			if err != nil || v < 1 || v > T.Len() {
				ok = false
				break
			}
			idx[j] = v - 1
		}
		b := T.Bond(idx[0], idx[1])
		if !ok || b == nil || b.Order != 2 {
			log.Printf("readSDFRecord: ignoring %s line %q", BondStereoProp, line)
			continue
		}
		if b.At1.Index != idx[0] {
			idx[2], idx[3] = idx[3], idx[2]
		}
		b.StereoAtoms = [2]int{idx[2], idx[3]}
		b.Stereo = StereoE
		if f[4] == "Z" {
			b.Stereo = StereoZ
		}
	}
}

//charge codes of the atom block of MDL files.
var mdlCharges = map[int]int{1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}

func mdlChargeCode(q int) int {
	for code, c := range mdlCharges {
		if c == q {
			return code
		}
	}
	return 0
}

//sdfRecord is a molecule read from one record of an SD file.
type sdfRecord struct {
	mol  *Molecule
	data map[string]string
}

//ReadSDFRecords reads every record of an MDL MOL or SD file (V2000) as a separate molecule.
//Charges are read from the atom block and from "M  CHG" lines, and the atom-atom mapping
//column gives the atom-map indexes. SD data items become properties.
//If a record has 3D coordinates, its stereochemistry is assigned from them.
func ReadSDFRecords(r io.Reader) ([]*Molecule, error) {
	recs, err := readSDF(r)
	if err != nil {
		return nil, err
	}
	ret := make([]*Molecule, 0, len(recs))
	for _, rec := range recs {
		ret = append(ret, rec.mol)
	}
	return ret, nil
}

//ReadSDF reads an MDL MOL or SD file. If all the records share the same graph, they are
//returned as conformers of one molecule, with energies if every record has an "energy"
//data item. Otherwise, the last record is returned.
func ReadSDF(r io.Reader) (*Molecule, error) {
	recs, err := readSDF(r)
	if err != nil {
		return nil, err
	}
	first := recs[0].mol
	energies := make([]float64, 0, len(recs))
	for _, rec := range recs {
		if e, err := strconv.ParseFloat(strings.TrimSpace(rec.data[EnergyProp]), 64); err == nil {
			energies = append(energies, e)
		}
	}
	for _, rec := range recs[1:] {
		if !SameGraph(first.Topology, rec.mol.Topology) {
			log.Printf("ReadSDF: %d records with different molecules, only the last one is kept", len(recs))
			return recs[len(recs)-1].mol, nil
		}
		first.Coords = append(first.Coords, rec.mol.Coords...)
	}
	if len(energies) == len(recs) && first.NConformers() == len(recs) {
		first.Energies = energies
	}
	return first, nil
}

//SameGraph returns true if a and b have the same elements, charges and bonds (with orders),
//with the atoms in the same order.
func SameGraph(a, b *Topology) bool {
	if a.Len() != b.Len() || a.NBonds() != b.NBonds() {
		return false
	}
	for i, at := range a.Atoms {
		bt := b.Atoms[i]
		if at.Z != bt.Z || at.Charge != bt.Charge {
			return false
		}
	}
	for _, bo := range a.Bonds {
		other := b.Bond(bo.At1.Index, bo.At2.Index)
		if other == nil || other.Order != bo.Order {
			return false
		}
	}
	return true
}

func readSDF(r io.Reader) ([]sdfRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	recs := make([]sdfRecord, 0, 1)
	lineno := 0
	for {
		rec, eof, err := readSDFRecord(sc, &lineno)
		if err != nil {
			return nil, errDecorate(err, "ReadSDF")
		}
		if rec != nil {
			recs = append(recs, *rec)
		}
		if eof {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ReadSDF: %w", err)
	}
	if len(recs) == 0 {
		return nil, newCError(ErrParse, "ReadSDF", "no molecules found")
	}
	return recs, nil
}

//readSDFRecord reads one record. It returns a nil record if only blank lines remained,
//and true if the input ended.
func readSDFRecord(sc *bufio.Scanner, lineno *int) (*sdfRecord, bool, error) {
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		*lineno++
		return sc.Text(), true
	}
	name, ok := next()
	for ok && strings.TrimSpace(name) == "" {
		//blank lines between records, or at the end of the file
		var peek string
		peek, ok = next()
		if !ok {
			return nil, true, nil
		}
		//a blank title line followed by the header of a record
		if strings.TrimSpace(peek) != "" && !strings.HasPrefix(peek, "$$$$") {
			return readSDFBody("", peek, next, lineno)
		}
		name = peek
	}
	if !ok {
		return nil, true, nil
	}
	program, ok := next()
	if !ok {
		return nil, true, newCError(ErrParse, "readSDFRecord", "line %d: truncated header", *lineno)
	}
	return readSDFBody(strings.TrimSpace(name), program, next, lineno)
}

//readSDFBody reads a record after its title line. program is the second header line.
func readSDFBody(name, program string, next func() (string, bool), lineno *int) (*sdfRecord, bool, error) {
	if _, ok := next(); !ok { //comment line
		return nil, true, newCError(ErrParse, "readSDFRecord", "line %d: truncated header", *lineno)
	}
	counts, ok := next()
	if !ok {
		return nil, true, newCError(ErrParse, "readSDFRecord", "line %d: missing counts line", *lineno)
	}
	if strings.Contains(counts, "V3000") {
		return nil, true, newCError(ErrParse, "readSDFRecord", "line %d: V3000 files are not supported", *lineno)
	}
	natoms, err1 := strconv.Atoi(field(counts, 0, 3))
	nbonds, err2 := strconv.Atoi(field(counts, 3, 6))
	if err1 != nil || err2 != nil {
		return nil, true, newCError(ErrParse, "readSDFRecord", "line %d: bad counts line %q", *lineno, counts)
	}
	top := NewTopology(0, 1, nil)
	data := make([]float64, 0, 3*natoms)
	stereo := &mdlStereo{parities: make([]int, 0, natoms), either: make(map[int]bool)}
	for i := 0; i < natoms; i++ {
		line, ok := next()
		if !ok {
			return nil, true, newCError(ErrParse, "readSDFRecord", "file ended in the atom block")
		}
		at, c, parity, err := readMDLAtom(line)
		if err != nil {
			return nil, true, newCError(ErrParse, "readSDFRecord", "line %d: %v", *lineno, err)
		}
		top.AddAtom(at)
		data = append(data, c[:]...)
		stereo.parities = append(stereo.parities, parity)
	}
	for i := 0; i < nbonds; i++ {
		line, ok := next()
		if !ok {
			return nil, true, newCError(ErrParse, "readSDFRecord", "file ended in the bond block")
		}
		a1, e1 := strconv.Atoi(field(line, 0, 3))
		a2, e2 := strconv.Atoi(field(line, 3, 6))
		order, e3 := strconv.Atoi(field(line, 6, 9))
		if e1 != nil || e2 != nil || e3 != nil {
			return nil, true, newCError(ErrParse, "readSDFRecord", "line %d: bad bond line %q", *lineno, line)
		}
		if order < 1 || order > 3 {
			return nil, true, newCError(ErrBondOrder, "readSDFRecord", "line %d: bond type %d", *lineno, order)
		}
		if _, err := top.AddBond(a1-1, a2-1, order); err != nil {
			return nil, true, newCError(ErrParse, "readSDFRecord", "line %d: %v", *lineno, err)
		}
		if code, err := strconv.Atoi(field(line, 9, 12)); err == nil && code == mdlBondEither && order == 2 {
			stereo.either[i] = true
		}
	}
	props := make(map[string]string)
	chgReset := false
	eof := true
	for {
		line, ok := next()
		if !ok {
			break
		}
		if strings.HasPrefix(line, "$$$$") {
			eof = false
			break
		}
		switch {
		case strings.HasPrefix(line, "M  CHG"):
			if !chgReset { //M  CHG lines supersede the charges in the atom block
				for _, a := range top.Atoms {
					a.Charge = 0
				}
				chgReset = true
			}
			f := strings.Fields(line)
			for j := 3; j+1 < len(f); j += 2 {
				idx, err1 := strconv.Atoi(f[j])
				q, err2 := strconv.Atoi(f[j+1])
				if err1 != nil || err2 != nil || idx < 1 || idx > top.Len() {
					return nil, true, newCError(ErrParse, "readSDFRecord", "line %d: bad M  CHG line", *lineno)
				}
				top.Atoms[idx-1].Charge = q
			}
		case strings.HasPrefix(line, ">"):
			key := sdDataKey(line)
			val := make([]string, 0, 1)
			for {
				l, ok := next()
				if !ok || strings.TrimSpace(l) == "" {
					break
				}
				val = append(val, l)
			}
			props[key] = strings.Join(val, "\n")
		}
	}
	if name != "" {
		top.SetProp("name", name)
	}
	stereo.ez = props[BondStereoProp]
	delete(props, BondStereoProp)
	for k, v := range props {
		top.SetProp(k, v)
	}
	if err := Sanitize(top); err != nil {
		return nil, true, fmt.Errorf("readSDFRecord: %w", err)
	}
	mol, _ := NewMolecule(top)
	dim := strings.ToUpper(program)
	if natoms > 0 && strings.Contains(dim, "0D") && allZero(data) {
		//no coordinates, only the graph and the parities.
		stereo.apply(mol, false)
	} else if natoms > 0 {
		coords, _ := v3.NewMatrix(data)
		if err := mol.AddConformer(coords); err != nil {
			return nil, true, fmt.Errorf("readSDFRecord: %w", err)
		}
		stereo.apply(mol, strings.Contains(dim, "3D") || !flatZ(coords))
	}
	return &sdfRecord{mol: mol, data: props}, eof, nil
}

//conformerParity returns the V2000 parity of the stereocenter a in the conformer c, which
//may be nil. Centers without a chiral tag get parity 3.
func conformerParity(a *Atom, c *v3.Matrix) int {
	t := a.Chiral
	if t == ChiralUnspecified {
		return mdlParityEither
	}
	if c != nil {
		if f := chiralFrom3D(a, c); f != ChiralUnspecified {
			t = f
		}
	}
	return mdlParity(a, t)
}

func allZero(data []float64) bool {
	for _, v := range data {
		if v != 0 {
			return false
		}
	}
	return true
}

//flatZ returns true if all the z coordinates are zero.
func flatZ(c *v3.Matrix) bool {
	for i := 0; i < c.NVecs(); i++ {
		if c.At(i, 2) != 0 {
			return false
		}
	}
	return true
}

//sdDataKey extracts the name of an SD data header such as "> <energy>" or ">  25  <name>".
func sdDataKey(line string) string {
	i := strings.Index(line, "<")
	j := strings.LastIndex(line, ">")
	if i < 0 || j <= i {
		return strings.TrimSpace(strings.TrimPrefix(line, ">"))
	}
	return line[i+1 : j]
}

//readMDLAtom parses a line of the atom block of a V2000 MDL file. It returns the atom, its
//coordinates and its stereo parity.
func readMDLAtom(line string) (*Atom, [3]float64, int, error) {
	var c [3]float64
	var err error
	for i := 0; i < 3; i++ {
		c[i], err = strconv.ParseFloat(field(line, 10*i, 10*i+10), 64)
		if err != nil {
			return nil, c, 0, err
		}
	}
	at, err := NewAtom(normalizeSymbol(field(line, 31, 34)))
	if err != nil {
		return nil, c, 0, err
	}
	parity, _ := strconv.Atoi(field(line, 39, 42))
	if code, err := strconv.Atoi(field(line, 36, 39)); err == nil {
		at.Charge = mdlCharges[code]
	}
	if m, err := strconv.Atoi(field(line, 60, 63)); err == nil && m > 0 {
		at.MapIdx = m
	}
	return at, c, parity, nil
}

//WriteSDF writes mol in the MDL SD (V2000) format, one record per conformer.
//A molecule without conformers is written as a single record with zero coordinates.
//Atom-map indexes go in the atom-atom mapping column, and conformer energies in an
//"energy" data item. Stereocenters get a parity, taken from the coordinates of each conformer
//when the center has a chiral tag, and parity 3 (unknown) otherwise. Stereogenic double bonds
//without a configuration are marked as either cis or trans. Records without coordinates keep
//the E/Z configurations in the BondStereoProp data item.
func WriteSDF(w io.Writer, mol *Molecule) error {
	bw := bufio.NewWriter(w)
	centers, sbonds := PotentialStereo(mol.Topology)
	isCenter := make(map[int]bool, len(centers))
	for _, i := range centers {
		isCenter[i] = true
	}
	isStereoBond := make(map[int]bool, len(sbonds))
	for _, i := range sbonds {
		isStereoBond[i] = true
	}
	name, _ := mol.Prop("name")
	nconf := mol.NConformers()
	if nconf == 0 {
		nconf = 1
	}
	charged := make([]*Atom, 0)
	for _, a := range mol.Atoms {
		if a.Charge != 0 {
			charged = append(charged, a)
		}
	}
	for k := 0; k < nconf; k++ {
		c := mol.Conformer(k)
		dim := "3D"
		if c == nil {
			dim = "0D"
		}
		fmt.Fprintf(bw, "%s\n  gocmiles          %s\n\n", name, dim)
		fmt.Fprintf(bw, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", mol.Len(), mol.NBonds())
		for i, a := range mol.Atoms {
			var x, y, z float64
			if c != nil {
				x, y, z = c.At(i, 0), c.At(i, 1), c.At(i, 2)
			}
			parity := 0
			if isCenter[i] {
				parity = conformerParity(a, c)
			}
			fmt.Fprintf(bw, "%10.4f%10.4f%10.4f %-3s%2d%3d%3d%3d%3d%3d%3d%3d%3d%3d%3d%3d\n",
				x, y, z, a.Symbol, 0, mdlChargeCode(a.Charge), parity, 0, 0, 0, 0, 0, 0, a.MapIdx, 0, 0)
		}
		ez := make([]string, 0)
		for i, b := range mol.Bonds {
			code := 0
			if isStereoBond[i] {
				if b.Stereo == StereoE || b.Stereo == StereoZ {
					ez = append(ez, fmt.Sprintf("%d %d %d %d %s", b.At1.Index+1, b.At2.Index+1, b.StereoAtoms[0]+1, b.StereoAtoms[1]+1, b.Stereo))
				} else {
					code = mdlBondEither
				}
			}
			fmt.Fprintf(bw, "%3d%3d%3d%3d\n", b.At1.Index+1, b.At2.Index+1, b.Order, code)
		}
		for start := 0; start < len(charged); start += 8 {
			end := min(start+8, len(charged))
			fmt.Fprintf(bw, "M  CHG%3d", end-start)
			for _, a := range charged[start:end] {
				fmt.Fprintf(bw, " %3d %3d", a.Index+1, a.Charge)
			}
			fmt.Fprintln(bw)
		}
		fmt.Fprintln(bw, "M  END")
		if e, ok := mol.Energy(k); ok {
			fmt.Fprintf(bw, "> <%s>\n%.6f\n\n", EnergyProp, e)
		}
		if c == nil && len(ez) > 0 {
			fmt.Fprintf(bw, "> <%s>\n%s\n\n", BondStereoProp, strings.Join(ez, "\n"))
		}
		for _, key := range mol.PropKeys() {
			if key == "name" || key == EnergyProp || key == BondStereoProp || strings.HasPrefix(key, "_") {
				continue
			}
			v, _ := mol.Prop(key)
			fmt.Fprintf(bw, "> <%s>\n%s\n\n", key, v)
		}
		fmt.Fprintln(bw, "$$$$")
	}
	return bw.Flush()
}
