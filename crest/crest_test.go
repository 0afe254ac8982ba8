/*
 * crest_test.go, part of gocmiles.
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
package crest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/gocmiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func water(t *testing.T) *chem.Molecule {
	t.Helper()
	mol, err := chem.MolFromJSON(map[string]any{
		"symbols":      []string{"O", "H", "H"},
		"connectivity": [][]int{{0, 1, 1}, {0, 2, 1}},
		"geometry":     []float64{0, 0, 0.2217, 0, 1.4309, -0.8867, 0, -1.4309, -0.8867},
	})
	require.NoError(t, err)
	return mol
}

//fakeCrest writes a shell script that behaves like a successful CREST run.
func fakeCrest(t *testing.T, dir string, ok bool) string {
	t.Helper()
	status := "CREST terminated normally."
	if !ok {
		status = "CREST terminated abnormally."
	}
	script := `#!/bin/sh
echo "$@" > args.txt
cat > crest_conformers.xyz <<EOT
3
      -5.07054000
O   0.000000   0.000000   0.117300
H   0.000000   0.757200  -0.469200
H   0.000000  -0.757200  -0.469200
3
      -5.07000000
O   0.000000   0.000000   0.127300
H   0.000000   0.767200  -0.469200
H   0.000000  -0.767200  -0.469200
EOT
echo " ` + status + `"
`
	path := filepath.Join(dir, "crest.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCrestRun(t *testing.T) {
	dir := t.TempDir()
	mol := water(t)
	mol.SetProp("name", "water")
	h := NewHandle()
	h.SetCommand(fakeCrest(t, dir, true))
	h.SetWorkDir(dir)
	h.SetnCPU(4)
	h.EWindow = 15
	h.RMSDThres = 1.0
	h.Dielectric = 80
	require.NoError(t, h.BuildInput(mol))
	require.NoError(t, h.Run(context.Background()))
	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "gocmiles.xyz --chrg 0 --uhf 0 --gfn2 --alpb h2o --ewin 15.0 --rthr 1.000 -T 4", strings.TrimSpace(string(args)))
	confs, err := h.Conformers(mol)
	require.NoError(t, err)
	assert.Equal(t, 2, confs.NConformers())
	require.Len(t, confs.Energies, 2)
	assert.InDelta(t, -5.07054*chem.H2Kcal, confs.Energies[0], 1e-6)
	assert.Equal(t, 2, confs.NBonds(), "the topology of the input should be kept")
	assert.InDelta(t, 0.1273, confs.Coords[1].At(0, 2), 1e-9)
	assert.Equal(t, 1, mol.NConformers(), "the input molecule should not be modified")
}

func TestCrestFailures(t *testing.T) {
	dir := t.TempDir()
	h := NewHandle()
	h.SetCommand(fakeCrest(t, dir, false))
	h.SetWorkDir(dir)
	mol := water(t)
	require.NoError(t, h.BuildInput(mol))
	require.NoError(t, h.Run(context.Background()))
	_, err := h.Conformers(mol)
	assert.ErrorIs(t, err, ErrAbnormal)

	empty, err := chem.MolFromJSON(map[string]any{"symbols": []string{"O"}, "connectivity": [][]int{}})
	require.NoError(t, err)
	assert.ErrorIs(t, h.BuildInput(empty), chem.ErrNoConformer)

	h.SetCommand(filepath.Join(dir, "does-not-exist"))
	require.NoError(t, h.BuildInput(mol))
	assert.Error(t, h.Run(context.Background()))
}

func TestCrestDefaults(t *testing.T) {
	t.Setenv(EnvCommand, "/opt/crest/bin/crest")
	h := NewHandle()
	assert.Equal(t, "/opt/crest/bin/crest", h.Command())
	assert.Equal(t, "gfn2", h.Method)
}
