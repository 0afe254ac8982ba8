/*
 * obabel.go, part of gocmiles.
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
//Package obabel drives the Open Babel command-line program, obabel, to parse SMILES,
//read the many file formats Open Babel knows and generate conformers.
//Please cite the Open Babel reference if you use it.
package obabel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"

	chem "github.com/rmera/gocmiles"
)

//EnvCommand is the environment variable that, when set, gives the path to the obabel executable.
const EnvCommand = "GOCMILES_OBABEL"

//ErrForceField is returned when the requested force field can't be set up for a molecule.
var ErrForceField = errors.New("could not set up force field")

//OBabelHandle represents calls to the obabel program.
type OBabelHandle struct {
	command string
	wrkdir  string
	//Gen3D requests 3D coordinates for molecules built from SMILES.
	Gen3D bool
	//AddH requests explicit hydrogens for molecules built from SMILES.
	AddH bool
}

//NewOBabelHandle initializes and returns an obabel handle with values set to their defaults.
func NewOBabelHandle() *OBabelHandle {
	run := new(OBabelHandle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the handle parameters to their defaults. The command is taken from
//the GOCMILES_OBABEL variable if set, and is "obabel" otherwise.
func (O *OBabelHandle) SetDefaults() {
	O.command = envOr(EnvCommand, "obabel")
	O.Gen3D = true
	O.AddH = true
}

//Command returns the path and name of the obabel executable.
func (O *OBabelHandle) Command() string {
	return O.command
}

//SetCommand sets the path and name of the obabel executable.
func (O *OBabelHandle) SetCommand(name string) {
	O.command = name
}

//SetWorkDir sets the directory where obabel runs. Relative file names are
//interpreted from there.
func (O *OBabelHandle) SetWorkDir(d string) {
	O.wrkdir = d
}

//run runs obabel with the given arguments and standard input, returning the standard output.
//The standard error is returned too, as Open Babel reports most problems there without failing.
func (O *OBabelHandle) run(ctx context.Context, stdin io.Reader, args ...string) ([]byte, string, error) {
	var out, stderr bytes.Buffer
	command := exec.CommandContext(ctx, O.command, args...)
	command.Dir = O.wrkdir
	command.Stdin = stdin
	command.Stdout = &out
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return nil, stderr.String(), fmt.Errorf("%s: %w: %s", O.command, err, lastLine(stderr.String()))
	}
	return out.Bytes(), stderr.String(), nil
}

//ParseSMILES builds a molecule from a SMILES string. Hydrogens and 3D coordinates are
//added according to the AddH and Gen3D fields. Stereocenters and double bonds are left
//unspecified unless the SMILES has stereo marks of their kind. A SMILES Open Babel can't
//parse gives an error wrapping chem.ErrParse.
func (O *OBabelHandle) ParseSMILES(ctx context.Context, smiles string) (*chem.Molecule, error) {
	errid := "obabel/ParseSMILES"
	args := []string{"-:" + smiles, "-osdf"}
	if O.AddH {
		args = append(args, "-h")
	}
	if O.Gen3D {
		args = append(args, "--gen3d")
	}
	out, stderr, err := O.run(ctx, nil, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, fmt.Errorf("%s: %w: %q %s", errid, chem.ErrParse, smiles, lastLine(stderr))
	}
	mol, err := chem.ReadSDF(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("%s: %q: %w", errid, smiles, err)
	}
	keepMarkedStereo(mol.Topology, smiles)
	mol.SetProp("smiles", smiles)
	return mol, nil
}

//keepMarkedStereo clears the chiral tags of T if smiles has no tetrahedral marks, and the
//double bond configurations if it has no directional bonds. The 3D structure obabel builds
//gives a handedness to every center, whether the SMILES sets one or not.
func keepMarkedStereo(T *chem.Topology, smiles string) {
	if !strings.Contains(smiles, "@") {
		for _, a := range T.Atoms {
			a.Chiral = chem.ChiralUnspecified
		}
	}
	if !strings.ContainsAny(smiles, `/\`) {
		for _, b := range T.Bonds {
			if b.Stereo == chem.StereoE || b.Stereo == chem.StereoZ {
				b.Stereo = chem.StereoNone
				b.StereoAtoms = [2]int{}
			}
		}
	}
}

//ReadFile reads a file in any format Open Babel knows, choosing the format from the
//extension. Compressed files are decompressed before they are given to obabel.
//If the file holds several molecules, they become conformers when they all share the
//same graph. Otherwise the last one is returned.
func (O *OBabelHandle) ReadFile(ctx context.Context, name string) (*chem.Molecule, error) {
	errid := "obabel/ReadFile"
	format, _ := chem.SplitExtension(chem.Extension(name))
	if format == "" {
		return nil, fmt.Errorf("%s: %w: %s has no extension", errid, chem.ErrUnknownFormat, name)
	}
	f, err := chem.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	defer f.Close()
	out, stderr, err := O.run(ctx, f, "-i"+strings.TrimPrefix(format, "."), "-osdf")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, fmt.Errorf("%s: %w: %s %s", errid, chem.ErrParse, name, lastLine(stderr))
	}
	mol, err := chem.ReadSDF(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errid, name, err)
	}
	return mol, nil
}

//SMILES returns the canonical SMILES for mol.
func (O *OBabelHandle) SMILES(ctx context.Context, mol *chem.Molecule) (string, error) {
	errid := "obabel/SMILES"
	var in bytes.Buffer
	if err := chem.WriteSDF(&in, firstConformer(mol)); err != nil {
		return "", fmt.Errorf("%s: %w", errid, err)
	}
	out, stderr, err := O.run(ctx, &in, "-isdf", "-ocan")
	if err != nil {
		return "", fmt.Errorf("%s: %w", errid, err)
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return "", fmt.Errorf("%s: no SMILES produced: %s", errid, lastLine(stderr))
	}
	return fields[0], nil
}

//Embed returns a copy of mol with 3D coordinates that obabel builds from its graph, as its
//only conformer. The chiral tags and double bond configurations of mol are kept, and obabel
//is given them as atom parities.
func (O *OBabelHandle) Embed(ctx context.Context, mol *chem.Molecule) (*chem.Molecule, error) {
	errid := "obabel/Embed"
	graph := mol.Copy()
	graph.Coords, graph.Energies = nil, nil
	var in bytes.Buffer
	if err := chem.WriteSDF(&in, graph); err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	out, stderr, err := O.run(ctx, &in, "-isdf", "-osdf", "--gen3d")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, fmt.Errorf("%s: %w: no structure produced: %s", errid, chem.ErrParse, lastLine(stderr))
	}
	recs, err := chem.ReadSDFRecords(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	if !chem.SameGraph(mol.Topology, recs[0].Topology) || recs[0].NConformers() == 0 {
		return nil, fmt.Errorf("%s: the embedded structure doesn't match the input molecule", errid)
	}
	graph.Coords = recs[0].Coords[:1]
	return graph, nil
}

//ConformerOptions are the parameters of an obabel conformer search.
type ConformerOptions struct {
	NConf        int     //conformers to generate
	EWindow      float64 //energy cutoff, kcal/mol
	RMSThreshold float64 //RMSD cutoff, A
	//ForceField is the force field used to score and minimize conformers, MMFF94 by default.
	ForceField string
	//Fallback is a force field to try when ForceField can't be set up for the molecule,
	//usually because of missing atom types. Empty means no fallback.
	Fallback string
}

//DefaultConformerOptions returns the options used when none are given.
func DefaultConformerOptions() *ConformerOptions {
	return &ConformerOptions{NConf: 800, EWindow: 15, RMSThreshold: 1.0, ForceField: "MMFF94", Fallback: "UFF"}
}

//Conformers runs an obabel conformer search on the first conformer of mol and returns a copy
//of it with the conformers found. A molecule without conformers is embedded first (see Embed).
//The force field energies, when obabel reports them, are set as conformer energies.
//The input molecule is not modified.
func (O *OBabelHandle) Conformers(ctx context.Context, mol *chem.Molecule, opts *ConformerOptions) (*chem.Molecule, error) {
	errid := "obabel/Conformers"
	if opts == nil {
		opts = DefaultConformerOptions()
	}
	if mol.NConformers() == 0 {
		var err error
		if mol, err = O.Embed(ctx, mol); err != nil {
			return nil, fmt.Errorf("%s: %w", errid, err)
		}
	}
	ff := opts.ForceField
	if ff == "" {
		ff = "MMFF94"
	}
	ret, err := O.conformers(ctx, mol, opts, ff)
	if errors.Is(err, ErrForceField) && opts.Fallback != "" && opts.Fallback != ff {
		log.Printf("%s: %s could not be set up, trying %s", errid, ff, opts.Fallback)
		ret, err = O.conformers(ctx, mol, opts, opts.Fallback)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errid, err)
	}
	return ret, nil
}

func (O *OBabelHandle) conformers(ctx context.Context, mol *chem.Molecule, opts *ConformerOptions, ff string) (*chem.Molecule, error) {
	var in bytes.Buffer
	if err := chem.WriteSDF(&in, firstConformer(mol)); err != nil {
		return nil, err
	}
	args := []string{"-isdf", "-osdf", "--conformer", "--nconf", fmt.Sprint(max(opts.NConf, 1)),
		"--score", "rmsd", "--writeconformers", "--ff", ff, "--append", ff}
	if opts.RMSThreshold > 0 {
		args = append(args, "--rcutoff", fmt.Sprintf("%.3f", opts.RMSThreshold))
	}
	if opts.EWindow > 0 {
		args = append(args, "--ecutoff", fmt.Sprintf("%.2f", opts.EWindow))
	}
	out, stderr, err := O.run(ctx, &in, args...)
	if err != nil {
		return nil, err
	}
	if strings.Contains(stderr, "Could not setup force field") || strings.Contains(stderr, "Cannot set up force field") {
		return nil, fmt.Errorf("%w: %s", ErrForceField, ff)
	}
	recs, err := chem.ReadSDFRecords(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	ret := mol.Copy()
	ret.Coords = ret.Coords[:0]
	ret.Energies = nil
	energies := make([]float64, 0, len(recs))
	for i, r := range recs {
		if !chem.SameGraph(mol.Topology, r.Topology) {
			return nil, fmt.Errorf("conformer %d doesn't match the input molecule", i)
		}
		ret.Coords = append(ret.Coords, r.Coords...)
		if e, ok := r.Prop(ff); ok {
			var v float64
			if _, err := fmt.Sscan(e, &v); err == nil {
				energies = append(energies, v)
			}
		}
	}
	if len(energies) == ret.NConformers() {
		ret.Energies = energies
	}
	return ret, nil
}

//firstConformer returns mol, or a copy of it with only its first conformer if it has several.
func firstConformer(mol *chem.Molecule) *chem.Molecule {
	if mol.NConformers() <= 1 {
		return mol
	}
	m := mol.Copy()
	m.Truncate(1)
	return m
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

//envOr returns the value of the environment variable key, or def if it is unset or empty.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
