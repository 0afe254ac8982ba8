/*
 * files.go, part of gocmiles.
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
	"io"

	"github.com/goccy/go-json"
)

//Reader builds a molecule from the contents of a file in some format.
type Reader func(io.Reader) (*Molecule, error)

//Writer writes a molecule in some format.
type Writer func(io.Writer, *Molecule) error

//readers maps format extensions to the functions that read them.
var readers = map[string]Reader{
	".xyz":  ReadXYZ,
	".pdb":  ReadPDB,
	".ent":  ReadPDB,
	".sdf":  ReadSDF,
	".sd":   ReadSDF,
	".mol":  ReadSDF,
	".mol2": ReadMOL2,
	".json": ReadQCJSON,
}

//writers maps format extensions to the functions that write them.
var writers = map[string]Writer{
	".xyz":  WriteXYZ,
	".sdf":  WriteSDF,
	".sd":   WriteSDF,
	".mol":  WriteSDF,
	".json": WriteQCJSON,
}

//CanRead returns true if ReadFile knows the format of a file with the given extension,
//as returned by Extension.
func CanRead(ext string) bool {
	f, _ := SplitExtension(ext)
	_, ok := readers[f]
	return ok
}

//CanWrite returns true if WriteFile knows the format of a file with the given extension.
func CanWrite(ext string) bool {
	f, _ := SplitExtension(ext)
	_, ok := writers[f]
	return ok
}

//ReadFile reads the molecule in the file name, choosing the format from its extension.
//Files compressed with gzip (.gz), zstd (.zst) or xz (.xz) are decompressed on the fly.
//An unknown extension gives an error wrapping ErrUnknownFormat.
func ReadFile(name string) (*Molecule, error) {
	ext := Extension(name)
	format, _ := SplitExtension(ext)
	read, ok := readers[format]
	if !ok {
		return nil, fmt.Errorf("ReadFile: %w: %q (%s)", ErrUnknownFormat, ext, name)
	}
	f, err := Open(name)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: %w", err)
	}
	defer f.Close()
	mol, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: %s: %w", name, errDecorate(err, "ReadFile"))
	}
	return mol, nil
}

//WriteFile writes mol to the file name, choosing the format from its extension.
//Compression suffixes are honored as in ReadFile.
func WriteFile(name string, mol *Molecule) (err error) {
	ext := Extension(name)
	format, _ := SplitExtension(ext)
	write, ok := writers[format]
	if !ok {
		return fmt.Errorf("WriteFile: %w: %q (%s)", ErrUnknownFormat, ext, name)
	}
	f, err := Create(name)
	if err != nil {
		return fmt.Errorf("WriteFile: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("WriteFile: %w", cerr)
		}
	}()
	if err := write(f, mol); err != nil {
		return fmt.Errorf("WriteFile: %w", err)
	}
	return nil
}

//ReadQCJSON reads a QCSchema molecule in JSON format. See MolFromJSON.
func ReadQCJSON(r io.Reader) (*Molecule, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ReadQCJSON: %w", err)
	}
	return MolFromJSON(b)
}

//WriteQCJSON writes mol as an indented QCSchema molecule, with the geometry of its
//first conformer, if any.
func WriteQCJSON(w io.Writer, mol *Molecule) error {
	b, err := json.MarshalIndent(ToJSON(mol, 0), "", "  ")
	if err != nil {
		return fmt.Errorf("WriteQCJSON: %w", err)
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
