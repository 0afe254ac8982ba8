/*
 * crest.go, part of gocmiles.
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
//Package crest drives the CREST conformer-search program, from Prof. Stefan Grimme's group.
//Please cite the CREST and xtb references if you use it.
package crest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	chem "github.com/rmera/gocmiles"
)

//EnvCommand is the environment variable that, when set, gives the path to the crest executable.
const EnvCommand = "GOCMILES_CREST"

//ConformersFile is the file where CREST leaves the conformer ensemble.
const ConformersFile = "crest_conformers.xyz"

//ErrAbnormal is returned when CREST doesn't report a normal termination.
var ErrAbnormal = errors.New("CREST run didn't finish normally")

//ALPB solvents, by (rounded) dielectric constant.
var dielectric2Solvent = map[int]string{
	80: "h2o",
	5:  "chcl3",
	9:  "ch2cl2",
	21: "acetone",
	37: "acetonitrile",
	33: "methanol",
	2:  "toluene",
	7:  "thf",
	47: "dmso",
	38: "dmf",
}

//Handle represents a CREST conformer search.
type Handle struct {
	command   string
	inputname string
	nCPU      int
	options   []string
	wrkdir    string
	//Method is the xtb Hamiltonian: gfn0, gfn1, gfn2 (default) or gfnff.
	Method string
	//Dielectric selects an ALPB implicit solvent. 0 means gas phase.
	Dielectric float64
	//EWindow is the energy window, in kcal/mol. 0 leaves the CREST default.
	EWindow float64
	//RMSDThres is the RMSD threshold for duplicate detection, in A. 0 leaves the CREST default.
	RMSDThres float64
}

//NewHandle initializes and returns a CREST handle with values set to their defaults.
func NewHandle() *Handle {
	run := new(Handle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the run parameters to their defaults. The command is taken
//from the GOCMILES_CREST variable if set, and is "crest" otherwise.
func (O *Handle) SetDefaults() {
	O.command = "crest"
	if c := os.Getenv(EnvCommand); c != "" {
		O.command = c
	}
	O.inputname = "gocmiles"
	O.nCPU = max(runtime.NumCPU()/2, 1)
	O.Method = "gfn2"
}

//SetnCPU sets the number of CPUs to be used.
func (O *Handle) SetnCPU(cpu int) {
	O.nCPU = cpu
}

//Command returns the path and name of the crest executable.
func (O *Handle) Command() string {
	return O.command
}

//SetCommand sets the path and name of the crest executable.
func (O *Handle) SetCommand(name string) {
	O.command = name
}

//SetName sets the name of the input and output files.
func (O *Handle) SetName(name string) {
	O.inputname = name
}

//SetWorkDir sets the directory where CREST runs and leaves its files.
func (O *Handle) SetWorkDir(d string) {
	O.wrkdir = d
}

//Options returns the command-line arguments prepared by the last BuildInput call.
func (O *Handle) Options() []string {
	return append([]string(nil), O.options...)
}

func (O *Handle) path(name string) string {
	return filepath.Join(O.wrkdir, name)
}

//BuildInput writes the first conformer of mol as the CREST input and prepares the
//command-line options.
func (O *Handle) BuildInput(mol *chem.Molecule) error {
	errid := "crest/BuildInput"
	if mol == nil || mol.NConformers() == 0 {
		return fmt.Errorf("%s: no molecule or coordinates given: %w", errid, chem.ErrNoConformer)
	}
	first := mol.Copy()
	first.Truncate(1)
	first.Energies = nil
	if err := chem.WriteFile(O.path(O.inputname+".xyz"), first); err != nil {
		return fmt.Errorf("%s: couldn't write xyz file: %w", errid, err)
	}
	O.options = make([]string, 0, 16)
	O.options = append(O.options, O.inputname+".xyz")
	O.options = append(O.options, "--chrg", fmt.Sprint(mol.Charge()))
	O.options = append(O.options, "--uhf", fmt.Sprint(mol.Multi()-1))
	method := strings.ToLower(O.Method)
	switch method {
	case "gfn0", "gfn1", "gfn2", "gfnff":
	default:
		method = "gfn2"
	}
	O.options = append(O.options, "--"+method)
	if O.Dielectric > 0 && method != "gfn0" {
		if solvent, ok := dielectric2Solvent[int(O.Dielectric)]; ok {
			O.options = append(O.options, "--alpb", solvent)
		}
	}
	//crest expects these in kcal/mol and A, no conversion needed.
	if O.EWindow > 0 {
		O.options = append(O.options, "--ewin", fmt.Sprintf("%.1f", O.EWindow))
	}
	if O.RMSDThres > 0 {
		O.options = append(O.options, "--rthr", fmt.Sprintf("%.3f", O.RMSDThres))
	}
	if O.nCPU > 1 {
		O.options = append(O.options, "-T", fmt.Sprint(O.nCPU))
	}
	return nil
}

//Run runs CREST with the options prepared by BuildInput, waiting for it to finish.
//The output goes to the .out file in the work directory.
func (O *Handle) Run(ctx context.Context) error {
	errid := "crest/Run"
	out, err := os.Create(O.path(O.inputname + ".out"))
	if err != nil {
		return fmt.Errorf("%s: %w", errid, err)
	}
	defer out.Close()
	command := exec.CommandContext(ctx, O.command, O.options...)
	command.Dir = O.wrkdir
	command.Stdout = out
	command.Stderr = out
	if err := command.Run(); err != nil {
		return fmt.Errorf("%s: %s: %w", errid, O.command, err)
	}
	os.Remove(O.path("xtbrestart"))
	return nil
}

//normalTermination checks that the CREST run has terminated normally.
func (O *Handle) normalTermination() bool {
	return searchBackwards("CREST terminated normally", O.path(O.inputname+".out")) != ""
}

//Conformers reads the CREST ensemble as conformers of ref, which must be the molecule
//given to BuildInput. CREST keeps the atom order, so the topology of ref is kept and
//only coordinates and energies (converted from Hartree to kcal/mol) are replaced.
//The returned molecule is a copy; ref is not modified.
func (O *Handle) Conformers(ref *chem.Molecule) (*chem.Molecule, error) {
	errid := "crest/Conformers"
	if !O.normalTermination() {
		return nil, fmt.Errorf("%s: %w", errid, ErrAbnormal)
	}
	ens, err := chem.ReadFile(O.path(ConformersFile))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to retrieve conformers: %w", errid, err)
	}
	if ens.Len() != ref.Len() {
		return nil, fmt.Errorf("%s: %d atoms in the ensemble, %d in the molecule", errid, ens.Len(), ref.Len())
	}
	for i, a := range ens.Atoms {
		if a.Symbol != ref.Atoms[i].Symbol {
			return nil, fmt.Errorf("%s: atom %d is %s in the ensemble and %s in the molecule", errid, i, a.Symbol, ref.Atoms[i].Symbol)
		}
	}
	mol := ref.Copy()
	mol.Coords = ens.Coords
	mol.Energies = nil
	if len(ens.Energies) == len(ens.Coords) {
		mol.Energies = make([]float64, len(ens.Energies))
		for i, e := range ens.Energies {
			mol.Energies[i] = e * chem.H2Kcal
		}
	}
	return mol, nil
}

//searchBackwards returns the last line of filename containing str, or an empty
//string if there is no such line or the file can't be read.
func searchBackwards(str, filename string) string {
	f, err := os.Open(filename)
	if err != nil {
		return ""
	}
	defer f.Close()
	found := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.Contains(sc.Text(), str) {
			found = sc.Text()
		}
	}
	return found
}
