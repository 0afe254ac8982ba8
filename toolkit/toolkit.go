/*
 * toolkit.go, part of gocmiles.
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
//Package toolkit puts together the molecule model and the external programs, to load molecules
//from SMILES, files or QCSchema dictionaries and to generate conformers, with either Open Babel
//or the native readers plus CREST as the backend.
package toolkit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-json"
	chem "github.com/rmera/gocmiles"
	"github.com/rmera/gocmiles/cache"
	"github.com/rmera/gocmiles/crest"
	"github.com/rmera/gocmiles/obabel"
)

//Backend names a set of external programs used to load molecules and generate conformers.
type Backend string

const (
	//OpenBabel parses SMILES, reads files and generates conformers with obabel.
	OpenBabel Backend = "openbabel"
	//Native reads files with the readers of this library and generates conformers with CREST.
	//It can't parse SMILES.
	Native Backend = "native"
)

var (
	ErrBackend      = errors.New("unknown backend")
	ErrNotInstalled = errors.New("backend not installed")
	ErrInput        = errors.New("unsupported input type")
	ErrUnsupported  = errors.New("operation not supported by the backend")
	ErrStereo       = errors.New("stereochemistry not fully specified")
	ErrConformers   = errors.New("conformer generation failed")
)

//Toolkit holds the handles for the external programs, and an optional conformer cache.
type Toolkit struct {
	OBabel *obabel.OBabelHandle
	Crest  *crest.Handle
	//Cache, if not nil, is consulted before running a conformer search, and
	//updated after each one.
	Cache *cache.Cache
}

//New returns a Toolkit with the handles set to their defaults.
func New() *Toolkit {
	return &Toolkit{OBabel: obabel.NewOBabelHandle(), Crest: crest.NewHandle()}
}

func installed(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

//Available returns true if the programs needed to load molecules with backend b can be found.
//The native backend needs crest only to generate conformers, so it is always available.
func (T *Toolkit) Available(b Backend) bool {
	switch b {
	case OpenBabel:
		return installed(T.OBabel.Command())
	case Native:
		return true
	}
	return false
}

//DefaultBackend returns OpenBabel if obabel can be found, and Native otherwise.
func (T *Toolkit) DefaultBackend() Backend {
	if T.Available(OpenBabel) {
		return OpenBabel
	}
	return Native
}

//backend validates b, replacing the empty backend with the default one.
func (T *Toolkit) backend(b Backend) (Backend, error) {
	if b == "" {
		return T.DefaultBackend(), nil
	}
	b = Backend(strings.ToLower(string(b)))
	if b != OpenBabel && b != Native {
		return "", fmt.Errorf("%w: %q", ErrBackend, b)
	}
	return b, nil
}

//Load builds a molecule from input, which can be:
//  - a *chem.Molecule, which is deep-copied;
//  - a QCSchema molecule, as a map[string]any, a chem.QCMolecule or its pointer,
//    or JSON bytes, built with chem.MolFromJSON whatever the backend;
//  - a string, which is read as a file when it has an extension the backend can read or
//    names an existing file, and is parsed as SMILES otherwise.
//An empty backend means the default one.
func (T *Toolkit) Load(ctx context.Context, input any, backend Backend) (*chem.Molecule, error) {
	b, err := T.backend(backend)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	switch v := input.(type) {
	case *chem.Molecule:
		if v == nil {
			return nil, fmt.Errorf("Load: %w: nil molecule", ErrInput)
		}
		return v.Copy(), nil
	case map[string]any, chem.QCMolecule, *chem.QCMolecule, []byte, json.RawMessage:
		mol, err := chem.MolFromJSON(v)
		if err != nil {
			return nil, fmt.Errorf("Load: %w", err)
		}
		return mol, nil
	case string:
		if b == OpenBabel && !T.Available(b) {
			return nil, fmt.Errorf("Load: %w: %s", ErrNotInstalled, T.OBabel.Command())
		}
		return T.loadString(ctx, strings.TrimSpace(v), b)
	}
	return nil, fmt.Errorf("Load: %w: %T", ErrInput, input)
}

func (T *Toolkit) loadString(ctx context.Context, s string, b Backend) (*chem.Molecule, error) {
	if isFile(s) {
		return T.loadFile(ctx, s, b)
	}
	if b == Native {
		return nil, fmt.Errorf("Load: %w: %s can't parse SMILES (%q)", ErrUnsupported, b, s)
	}
	mol, err := T.OBabel.ParseSMILES(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return mol, nil
}

//isFile decides whether s names a file rather than a SMILES string.
func isFile(s string) bool {
	ext := chem.Extension(s)
	if ext == "" {
		return false
	}
	if chem.CanRead(ext) {
		return true
	}
	_, err := os.Stat(s)
	return err == nil
}

func (T *Toolkit) loadFile(ctx context.Context, name string, b Backend) (*chem.Molecule, error) {
	format, _ := chem.SplitExtension(chem.Extension(name))
	var mol *chem.Molecule
	var err error
	//Open Babel doesn't read QCSchema.
	if b == Native || format == ".json" {
		mol, err = chem.ReadFile(name)
	} else {
		mol, err = T.OBabel.ReadFile(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	//XYZ files carry no connectivity.
	if b == Native && format == ".xyz" && mol.NBonds() == 0 {
		if err := chem.AssignBonds(mol, 0); err != nil {
			return nil, fmt.Errorf("Load: %w", err)
		}
		if err := chem.AssignStereoFrom3D(mol, 0, true); err != nil {
			return nil, fmt.Errorf("Load: %w", err)
		}
	}
	return mol, nil
}

//Load builds a molecule from input with the default programs. See Toolkit.Load.
func Load(ctx context.Context, input any, backend Backend) (*chem.Molecule, error) {
	return New().Load(ctx, input, backend)
}

//Available returns true if the default programs for backend b can be found.
func Available(b Backend) bool {
	return New().Available(b)
}

//DefaultBackend returns the backend used when none is given.
func DefaultBackend() Backend {
	return New().DefaultBackend()
}

//GenerateConformers generates conformers for mol with the default programs and no cache.
//See Toolkit.GenerateConformers.
func GenerateConformers(ctx context.Context, mol *chem.Molecule, opts *Options) (*chem.Molecule, error) {
	return New().GenerateConformers(ctx, mol, opts)
}
