package toolkit

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/gocmiles"
	"github.com/rmera/gocmiles/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeOBabel = `#!/bin/sh
dir=$(dirname "$0")
echo "$@" >> "$dir/obabel.log"
case "$*" in
*"-:"*)
	cat "$dir/smiles.sdf" ;;
*"--gen3d"*)
	cat > /dev/null
	cat "$dir/smiles.sdf" ;;
*"--conformer"*)
	cat > /dev/null
	cat "$dir/conformers.sdf" ;;
*)
	cat ;;
esac
`

const fakeCrest = `#!/bin/sh
dir=$(dirname "$0")
cp "$dir/ensemble.xyz" crest_conformers.xyz
echo " CREST terminated normally."
`

//mirror returns a copy of the first conformer of mol reflected through the yz plane.
func mirror(mol *chem.Molecule) *chem.Molecule {
	m := mol.Copy()
	m.Truncate(1)
	for i := 0; i < m.Len(); i++ {
		m.Coords[0].Set(i, 0, -m.Coords[0].At(i, 0))
	}
	return m
}

//setup returns a Toolkit with fake programs, and bromochlorofluoromethane. The fake conformer
//searches return the molecule (energy 2.0) and its mirror image (energy 1.0).
func setup(t *testing.T) (*Toolkit, string, *chem.Molecule) {
	t.Helper()
	dir := t.TempDir()
	mol, err := chem.ReadFile("../test/bcf.sdf")
	require.NoError(t, err)
	mol.Truncate(1)
	mol.Energies = nil

	ens := mol.Copy()
	ens.Coords = append(ens.Coords, mirror(mol).Coords[0])
	ens.Energies = []float64{2.0, 1.0}
	var sdf bytes.Buffer
	require.NoError(t, chem.WriteSDF(&sdf, ens))
	confs := strings.ReplaceAll(sdf.String(), "<energy>", "<MMFF94>")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conformers.sdf"), []byte(confs), 0o644))
	require.NoError(t, chem.WriteFile(filepath.Join(dir, "smiles.sdf"), mol))
	ens.Energies = []float64{2.0 / chem.H2Kcal, 1.0 / chem.H2Kcal}
	require.NoError(t, chem.WriteFile(filepath.Join(dir, "ensemble.xyz"), ens))

	for name, script := range map[string]string{"obabel": fakeOBabel, "crest": fakeCrest} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
	}
	tk := New()
	tk.OBabel.SetCommand(filepath.Join(dir, "obabel"))
	tk.Crest.SetCommand(filepath.Join(dir, "crest"))
	return tk, dir, mol
}

func TestBackends(t *testing.T) {
	tk, _, _ := setup(t)
	assert.True(t, tk.Available(OpenBabel))
	assert.True(t, tk.Available(Native))
	assert.False(t, tk.Available("rdkit"))
	assert.Equal(t, OpenBabel, tk.DefaultBackend())
	tk.OBabel.SetCommand("/nonexistent/obabel")
	assert.Equal(t, Native, tk.DefaultBackend())
	_, err := tk.Load(context.Background(), "CCO", OpenBabel)
	assert.ErrorIs(t, err, ErrNotInstalled)
	_, err = tk.Load(context.Background(), "CCO", "openeye")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestLoad(t *testing.T) {
	tk, dir, mol := setup(t)
	ctx := context.Background()

	cp, err := tk.Load(ctx, mol, Native)
	require.NoError(t, err)
	cp.Atoms[0].MapIdx = 99
	assert.NotEqual(t, 99, mol.Atoms[0].MapIdx, "the loaded molecule aliases the input")

	js, err := tk.Load(ctx, map[string]any{
		"symbols":      []string{"O", "H", "H"},
		"connectivity": [][]int{{0, 1, 1}, {0, 2, 1}},
	}, Native)
	require.NoError(t, err)
	assert.Equal(t, 3, js.Len())

	fromFile, err := tk.Load(ctx, "../test/bcf.sdf", Native)
	require.NoError(t, err)
	assert.Equal(t, 2, fromFile.NConformers())
	ethanol, err := tk.Load(ctx, "../test/ethanol.xyz", Native)
	require.NoError(t, err)
	assert.Equal(t, 8, ethanol.NBonds(), "bonds should be assigned to XYZ files")
	assert.Equal(t, 2, ethanol.NConformers())

	_, err = tk.Load(ctx, "CCO", Native)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = tk.Load(ctx, "CC.O", Native)
	assert.ErrorIs(t, err, ErrUnsupported, "CC.O should be taken as SMILES")
	_, err = tk.Load(ctx, filepath.Join(dir, "missing.sdf"), Native)
	assert.ErrorIs(t, err, os.ErrNotExist)
	cif := filepath.Join(dir, "mol.cif")
	require.NoError(t, os.WriteFile(cif, []byte("data_x\n"), 0o644))
	_, err = tk.Load(ctx, cif, Native)
	assert.ErrorIs(t, err, chem.ErrUnknownFormat)
	_, err = tk.Load(ctx, 42, Native)
	assert.ErrorIs(t, err, ErrInput)

	smi, err := tk.Load(ctx, "[H][C@@](F)(Cl)Br", OpenBabel)
	require.NoError(t, err)
	assert.Equal(t, 5, smi.Len())
	viaOB, err := tk.Load(ctx, "../test/bcf.sdf", OpenBabel)
	require.NoError(t, err)
	assert.True(t, chem.SameGraph(mol.Topology, viaOB.Topology))
	water, err := tk.Load(ctx, "../test/water.json", OpenBabel)
	require.NoError(t, err)
	assert.True(t, water.HasProp(chem.JSONGeometryProp))
}

func TestGenerateConformers(t *testing.T) {
	ctx := context.Background()
	for _, b := range []Backend{OpenBabel, Native} {
		t.Run(string(b), func(t *testing.T) {
			tk, _, mol := setup(t)
			opts := DefaultOptions()
			opts.Backend = b
			confs, err := tk.GenerateConformers(ctx, mol, opts)
			require.NoError(t, err)
			assert.Equal(t, 1, confs.NConformers(), "the mirror image should be dropped")
			require.Len(t, confs.Energies, 1)
			assert.InDelta(t, 2.0, confs.Energies[0], 1e-4)
			assert.Equal(t, 1, mol.NConformers())

			opts.StrictStereo = false
			opts.RMSThreshold = 0.05
			confs, err = tk.GenerateConformers(ctx, mol, opts)
			require.NoError(t, err)
			require.Equal(t, 2, confs.NConformers())
			assert.InDelta(t, 1.0, confs.Energies[0], 1e-4, "conformers should be sorted by energy")

			opts.RMSThreshold = 5
			confs, err = tk.GenerateConformers(ctx, mol, opts)
			require.NoError(t, err)
			assert.Equal(t, 1, confs.NConformers(), "everything is a duplicate with a large threshold")
			assert.InDelta(t, 1.0, confs.Energies[0], 1e-4, "the lowest-energy duplicate should be kept")

			opts.RMSThreshold = 0.05
			opts.EWindow = 0.5
			confs, err = tk.GenerateConformers(ctx, mol, opts)
			require.NoError(t, err)
			assert.Equal(t, 1, confs.NConformers())

			opts.EWindow = 15
			opts.MaxConfs = 1
			opts.Copy = false
			inplace := mol.Copy()
			confs, err = tk.GenerateConformers(ctx, inplace, opts)
			require.NoError(t, err)
			assert.Same(t, inplace, confs)
			assert.Equal(t, 1, inplace.NConformers())
		})
	}
}

func TestGenerateConformersErrors(t *testing.T) {
	ctx := context.Background()
	tk, _, mol := setup(t)
	loose := mol.Copy()
	loose.Atoms[0].Chiral = chem.ChiralUnspecified
	_, err := tk.GenerateConformers(ctx, loose, nil)
	assert.ErrorIs(t, err, ErrStereo)

	//no stereo marks in the SMILES, so the center is unspecified.
	unmarked, err := tk.Load(ctx, "FC(Cl)Br", OpenBabel)
	require.NoError(t, err)
	_, err = tk.GenerateConformers(ctx, unmarked, nil)
	assert.ErrorIs(t, err, ErrStereo)

	tk.OBabel.SetCommand("/nonexistent/obabel")
	noconf := mol.Copy()
	noconf.Coords = nil
	opts := DefaultOptions()
	opts.Backend = Native
	_, err = tk.GenerateConformers(ctx, noconf, opts)
	assert.ErrorIs(t, err, ErrNotInstalled)
	assert.ErrorIs(t, err, chem.ErrNoConformer)

	tk, _, mol = setup(t)
	tk.Crest.SetCommand("/nonexistent/crest")
	_, err = tk.GenerateConformers(ctx, mol, opts)
	assert.ErrorIs(t, err, ErrNotInstalled)
	assert.ErrorIs(t, err, ErrConformers)

	//only the mirror image comes back.
	tk, dir, mol := setup(t)
	var sdf bytes.Buffer
	require.NoError(t, chem.WriteSDF(&sdf, mirror(mol)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conformers.sdf"), sdf.Bytes(), 0o644))
	_, err = tk.GenerateConformers(ctx, mol, nil)
	assert.ErrorIs(t, err, ErrStereo)
}

func TestGenerateConformersEmbed(t *testing.T) {
	ctx := context.Background()
	for _, b := range []Backend{OpenBabel, Native} {
		t.Run(string(b), func(t *testing.T) {
			tk, dir, mol := setup(t)
			noconf := mol.Copy()
			noconf.Coords = nil
			opts := DefaultOptions()
			opts.Backend = b
			confs, err := tk.GenerateConformers(ctx, noconf, opts)
			require.NoError(t, err)
			assert.Equal(t, 1, confs.NConformers())
			centers, _ := chem.PotentialStereo(mol.Topology)
			require.Len(t, centers, 1)
			assert.Equal(t, mol.Atoms[centers[0]].Chiral, confs.Atoms[centers[0]].Chiral)
			assert.Equal(t, 0, noconf.NConformers())
			log, err := os.ReadFile(filepath.Join(dir, "obabel.log"))
			require.NoError(t, err)
			assert.Contains(t, string(log), "--gen3d")
		})
	}
}

func TestConformerCache(t *testing.T) {
	ctx := context.Background()
	tk, dir, mol := setup(t)
	c, err := cache.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer c.Close()
	tk.Cache = c
	first, err := tk.GenerateConformers(ctx, mol, nil)
	require.NoError(t, err)
	second, err := tk.GenerateConformers(ctx, mol, nil)
	require.NoError(t, err)
	assert.Equal(t, first.NConformers(), second.NConformers())
	assert.Equal(t, first.Energies, second.Energies)
	log, err := os.ReadFile(filepath.Join(dir, "obabel.log"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(log), "--conformer"), "the second search should come from the cache")
}
