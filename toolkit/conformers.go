/*
 * conformers.go, part of gocmiles.
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
package toolkit

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	chem "github.com/rmera/gocmiles"
	"github.com/rmera/gocmiles/align"
	"github.com/rmera/gocmiles/cache"
	"github.com/rmera/gocmiles/clash"
	"github.com/rmera/gocmiles/obabel"
	v3 "github.com/rmera/gocmiles/v3"
)

//Options are the parameters of a conformer search.
type Options struct {
	//MaxConfs is the maximum number of conformers returned.
	MaxConfs int `yaml:"max_confs" json:"max_confs"`
	//StrictStereo rejects molecules with unassigned stereocenters or stereogenic double
	//bonds, and drops conformers whose stereochemistry differs from that of the input.
	StrictStereo bool `yaml:"strict_stereo" json:"strict_stereo"`
	//EWindow is the energy window over the lowest conformer, in kcal/mol.
	EWindow float64 `yaml:"ewindow" json:"ewindow"`
	//RMSThreshold is the RMSD under which two conformers are duplicates, in A.
	RMSThreshold float64 `yaml:"rms_threshold" json:"rms_threshold"`
	//StrictTypes requires exact MMFF94 atom types. Otherwise UFF is used when MMFF94 can't
	//type the molecule. CREST doesn't use it.
	StrictTypes bool `yaml:"strict_types" json:"strict_types"`
	//ClashFactor drops conformers with non-bonded atoms closer than this fraction of the sum
	//of their covalent radii. 0 disables the check.
	ClashFactor float64 `yaml:"clash_factor" json:"clash_factor"`
	//Copy leaves the input molecule untouched. Otherwise its conformers are replaced.
	Copy bool `yaml:"copy" json:"copy"`
	//Backend runs the search. Empty means the default backend.
	Backend Backend `yaml:"backend" json:"backend"`
}

//DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		MaxConfs:     800,
		StrictStereo: true,
		EWindow:      15.0,
		RMSThreshold: 1.0,
		StrictTypes:  true,
		ClashFactor:  clash.DefaultFactor,
		Copy:         true,
	}
}

//GenerateConformers returns a molecule with up to opts.MaxConfs conformers of mol, sorted
//by energy when the backend reports energies. Conformers with clashes (see clash.Clashes) are
//dropped, and so are those within opts.RMSThreshold of a
//lower-energy one, after superimposing the heavy atoms, are removed. A molecule without
//conformers is embedded by Open Babel first, whatever the backend.
//A nil opts means DefaultOptions. Failures of the external programs are wrapped
//in ErrConformers.
func (T *Toolkit) GenerateConformers(ctx context.Context, mol *chem.Molecule, opts *Options) (*chem.Molecule, error) {
	errid := "GenerateConformers"
	if opts == nil {
		opts = DefaultOptions()
	}
	b, err := T.backend(opts.Backend)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	if opts.StrictStereo {
		centers, bonds := chem.UnspecifiedStereo(mol.Topology)
		if len(centers)+len(bonds) > 0 {
			return nil, fmt.Errorf("%s: %w: centers %v, double bonds %v", errid, ErrStereo, centers, bonds)
		}
	}
	key := ""
	if T.Cache != nil {
		k := *opts
		k.Backend, k.Copy = b, false
		key, err = cache.Key(mol, k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errid, err)
		}
		cached, err := T.Cache.Molecule(ctx, key)
		if err != nil {
			log.Printf("%s: cache lookup failed: %v", errid, err)
		}
		if cached != nil && chem.SameGraph(mol.Topology, cached.Topology) {
			return result(mol, cached, opts), nil
		}
	}
	start := mol
	if mol.NConformers() == 0 {
		if !T.Available(OpenBabel) {
			return nil, fmt.Errorf("%s: %w: %w: %w, needed to embed it", errid, ErrConformers, chem.ErrNoConformer, ErrNotInstalled)
		}
		if start, err = T.OBabel.Embed(ctx, mol); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", errid, ErrConformers, err)
		}
	}
	var confs *chem.Molecule
	switch b {
	case OpenBabel:
		confs, err = T.runOBabel(ctx, start, opts)
	case Native:
		confs, err = T.runCrest(ctx, start, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", errid, ErrConformers, err)
	}
	if opts.StrictStereo {
		confs, err = keepStereo(mol, confs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errid, err)
		}
	}
	if n, err := clash.Filter(confs, opts.ClashFactor); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", errid, ErrConformers, err)
	} else if n > 0 {
		log.Printf("%s: %d conformers with clashes removed", errid, n)
	}
	if confs.NConformers() == 0 {
		return nil, fmt.Errorf("%s: %w: all conformers have clashes", errid, ErrConformers)
	}
	window(confs, opts.EWindow)
	if opts.RMSThreshold > 0 {
		ao := align.DefaultOptions()
		ao.Atoms = align.HeavyAtoms(confs.Topology)
		n, err := align.Prune(confs, opts.RMSThreshold, ao)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", errid, ErrConformers, err)
		}
		if n > 0 {
			log.Printf("%s: %d duplicate conformers removed", errid, n)
		}
	}
	if opts.MaxConfs > 0 {
		confs.Truncate(opts.MaxConfs)
	}
	if T.Cache != nil {
		if err := T.Cache.PutMolecule(ctx, key, confs); err != nil {
			log.Printf("%s: couldn't update the cache: %v", errid, err)
		}
	}
	return result(mol, confs, opts), nil
}

//result returns confs, or mol with the conformers of confs if opts.Copy is false.
func result(mol, confs *chem.Molecule, opts *Options) *chem.Molecule {
	if opts.Copy {
		ret := mol.Copy()
		ret.Coords, ret.Energies = confs.Coords, confs.Energies
		return ret
	}
	mol.Coords, mol.Energies = confs.Coords, confs.Energies
	return mol
}

func (T *Toolkit) runOBabel(ctx context.Context, mol *chem.Molecule, opts *Options) (*chem.Molecule, error) {
	if !T.Available(OpenBabel) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, T.OBabel.Command())
	}
	o := &obabel.ConformerOptions{
		NConf:        opts.MaxConfs,
		EWindow:      opts.EWindow,
		RMSThreshold: opts.RMSThreshold,
		ForceField:   "MMFF94",
	}
	if !opts.StrictTypes {
		o.Fallback = "UFF"
	}
	return T.OBabel.Conformers(ctx, mol, o)
}

func (T *Toolkit) runCrest(ctx context.Context, mol *chem.Molecule, opts *Options) (*chem.Molecule, error) {
	if !installed(T.Crest.Command()) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, T.Crest.Command())
	}
	dir, err := os.MkdirTemp("", "gocmiles-crest-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	h := *T.Crest
	h.SetWorkDir(dir)
	h.EWindow = opts.EWindow
	h.RMSDThres = opts.RMSThreshold
	if err := h.BuildInput(mol); err != nil {
		return nil, err
	}
	if err := h.Run(ctx); err != nil {
		return nil, err
	}
	return h.Conformers(mol)
}

//keepStereo drops the conformers of confs whose stereochemistry, as perceived from their
//coordinates, differs from that of ref. It fails if none are left.
func keepStereo(ref, confs *chem.Molecule) (*chem.Molecule, error) {
	coords := make([]*v3.Matrix, 0, confs.NConformers())
	energies := make([]float64, 0, confs.NConformers())
	for i, c := range confs.Coords {
		single, _ := chem.NewMolecule(confs.CopyTopology(), c)
		if err := chem.AssignStereoFrom3D(single, 0, true); err != nil {
			log.Printf("keepStereo: conformer %d dropped: %v", i, err)
			continue
		}
		if !chem.StereoMatches(ref.Topology, single.Topology) {
			continue
		}
		coords = append(coords, c)
		if e, ok := confs.Energy(i); ok {
			energies = append(energies, e)
		}
	}
	if dropped := confs.NConformers() - len(coords); dropped > 0 {
		log.Printf("keepStereo: %d of %d conformers dropped for changing the stereochemistry", dropped, confs.NConformers())
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("%w: %w: no conformer keeps the input stereochemistry", ErrConformers, ErrStereo)
	}
	confs.Coords = coords
	confs.Energies = nil
	if len(energies) == len(coords) {
		confs.Energies = energies
	}
	return confs, nil
}

//window sorts the conformers of mol by energy and drops those more than ewindow kcal/mol
//above the lowest one. Nothing is done if the energies are not known.
func window(mol *chem.Molecule, ewindow float64) {
	if len(mol.Energies) == 0 || len(mol.Energies) != mol.NConformers() {
		return
	}
	idx := make([]int, mol.NConformers())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return mol.Energies[idx[i]] < mol.Energies[idx[j]] })
	coords := make([]*v3.Matrix, 0, len(idx))
	energies := make([]float64, 0, len(idx))
	emin := mol.Energies[idx[0]]
	for _, i := range idx {
		if ewindow > 0 && mol.Energies[i]-emin > ewindow {
			break
		}
		coords = append(coords, mol.Coords[i])
		energies = append(energies, mol.Energies[i])
	}
	mol.Coords, mol.Energies = coords, energies
}
