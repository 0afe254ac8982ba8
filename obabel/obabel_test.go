package obabel

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

//fakeOBabel answers like obabel would for the calls the handle makes, using files
//prepared in dir. With FAKE_MMFF_FAIL set, MMFF94 can't be set up.
const fakeOBabel = `#!/bin/sh
dir=$(dirname "$0")
echo "$@" >> "$dir/args.txt"
case "$*" in
*"-:C1CC"*)
	echo "0 molecules converted" >&2 ;;
*"-:"*)
	cat "$dir/smiles.sdf" ;;
*"-ocan"*)
	cat > /dev/null
	printf 'FC(Cl)Br\t\n' ;;
*"--gen3d"*)
	cat > /dev/null
	cat "$dir/smiles.sdf" ;;
*"--conformer"*)
	cat > /dev/null
	case "$*" in
	*"--ff MMFF94"*)
		if [ -n "$FAKE_MMFF_FAIL" ]; then
			echo "Could not setup force field." >&2
			exit 0
		fi ;;
	esac
	cat "$dir/conformers.sdf" ;;
*)
	cat ;;
esac
`

func setup(t *testing.T) (*OBabelHandle, string, *chem.Molecule) {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "obabel")
	require.NoError(t, os.WriteFile(script, []byte(fakeOBabel), 0o755))
	sdf, err := os.ReadFile("../test/bcf.sdf")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "smiles.sdf"), sdf, 0o644))
	confs := strings.ReplaceAll(string(sdf), "<energy>", "<MMFF94>")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conformers.sdf"), []byte(confs), 0o644))
	mol, err := chem.ReadFile("../test/bcf.sdf")
	require.NoError(t, err)
	mol.Truncate(1)
	mol.Energies = nil
	h := NewOBabelHandle()
	h.SetCommand(script)
	return h, dir, mol
}

func args(t *testing.T, dir string) []string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

func TestParseSMILES(t *testing.T) {
	h, dir, _ := setup(t)
	ctx := context.Background()
	mol, err := h.ParseSMILES(ctx, "[H][C@](F)(Cl)Br")
	require.NoError(t, err)
	assert.Equal(t, 5, mol.Len())
	smi, _ := mol.Prop("smiles")
	assert.Equal(t, "[H][C@](F)(Cl)Br", smi)
	assert.Equal(t, "-:[H][C@](F)(Cl)Br -osdf -h --gen3d", args(t, dir)[0])

	h.Gen3D = false
	h.AddH = false
	_, err = h.ParseSMILES(ctx, "CCO")
	require.NoError(t, err)
	assert.Equal(t, "-:CCO -osdf", args(t, dir)[1])

	_, err = h.ParseSMILES(ctx, "C1CC")
	assert.ErrorIs(t, err, chem.ErrParse)
}

func TestReadFile(t *testing.T) {
	h, dir, mol := setup(t)
	name := filepath.Join(dir, "in.sdf.gz")
	require.NoError(t, chem.WriteFile(name, mol))
	read, err := h.ReadFile(context.Background(), name)
	require.NoError(t, err)
	assert.True(t, chem.SameGraph(mol.Topology, read.Topology))
	assert.Equal(t, "-isdf -osdf", args(t, dir)[0])

	_, err = h.ReadFile(context.Background(), filepath.Join(dir, "noextension"))
	assert.ErrorIs(t, err, chem.ErrUnknownFormat)
}

func TestSMILES(t *testing.T) {
	h, _, mol := setup(t)
	smi, err := h.SMILES(context.Background(), mol)
	require.NoError(t, err)
	assert.Equal(t, "FC(Cl)Br", smi)
}

func TestConformers(t *testing.T) {
	h, dir, mol := setup(t)
	ctx := context.Background()
	confs, err := h.Conformers(ctx, mol, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, confs.NConformers())
	assert.Equal(t, []float64{1.5, 0}, confs.Energies)
	assert.Equal(t, 1, mol.NConformers(), "the input should not be modified")
	assert.Contains(t, args(t, dir)[0], "--conformer --nconf 800 --score rmsd --writeconformers --ff MMFF94 --append MMFF94 --rcutoff 1.000 --ecutoff 15.00")

	t.Setenv("FAKE_MMFF_FAIL", "1")
	confs, err = h.Conformers(ctx, mol, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, confs.NConformers())
	all := args(t, dir)
	assert.Contains(t, all[len(all)-1], "--ff UFF")

	strict := DefaultConformerOptions()
	strict.Fallback = ""
	_, err = h.Conformers(ctx, mol, strict)
	assert.ErrorIs(t, err, ErrForceField)

	t.Setenv("FAKE_MMFF_FAIL", "")
	empty := mol.Copy()
	empty.Coords = nil
	confs, err = h.Conformers(ctx, empty, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, confs.NConformers())
	all = args(t, dir)
	assert.Equal(t, "-isdf -osdf --gen3d", all[len(all)-2], "molecules without coordinates should be embedded first")
	assert.Equal(t, 0, empty.NConformers())
}

func TestEmbed(t *testing.T) {
	h, dir, mol := setup(t)
	graph := mol.Copy()
	graph.Coords = nil
	emb, err := h.Embed(context.Background(), graph)
	require.NoError(t, err)
	require.Equal(t, 1, emb.NConformers())
	assert.Equal(t, chem.ChiralCCW, emb.Atoms[0].Chiral, "the input stereochemistry should be kept")
	assert.Equal(t, 0, graph.NConformers())
	assert.Equal(t, "-isdf -osdf --gen3d", args(t, dir)[0])

	other := graph.Copy()
	other.Atoms[2].Symbol, other.Atoms[2].Z = "Cl", 17
	_, err = h.Embed(context.Background(), other)
	assert.Error(t, err)
}

func TestParseSMILESStereo(t *testing.T) {
	h, _, _ := setup(t)
	ctx := context.Background()
	marked, err := h.ParseSMILES(ctx, "[H][C@@](F)(Cl)Br")
	require.NoError(t, err)
	assert.Equal(t, chem.ChiralCCW, marked.Atoms[0].Chiral)
	loose, err := h.ParseSMILES(ctx, "FC(Cl)Br")
	require.NoError(t, err)
	centers, _ := chem.UnspecifiedStereo(loose.Topology)
	assert.Equal(t, []int{0}, centers, "a SMILES without stereo marks should leave the center unspecified")
}

func TestDefaults(t *testing.T) {
	t.Setenv(EnvCommand, "/usr/local/bin/obabel")
	h := NewOBabelHandle()
	assert.Equal(t, "/usr/local/bin/obabel", h.Command())
	assert.True(t, h.Gen3D)
	assert.True(t, h.AddH)
}
