/*
 * align.go, part of gocmiles.
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
//Package align superimposes conformers and prunes those that are duplicates of others.
package align

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	chem "github.com/rmera/gocmiles"
	v3 "github.com/rmera/gocmiles/v3"
	"gonum.org/v1/gonum/mat"
	"golang.org/x/sync/errgroup"
)

//ErrShape is returned for coordinate sets with different numbers of atoms, or too few of them.
var ErrShape = errors.New("ill-formed coordinates for superposition")

//Options contains the options for Prune.
type Options struct {
	//Atoms are the indexes of the atoms used for the superposition and the RMSD. nil means all.
	Atoms []int
	//Cpus is the number of goroutines used to compare conformers.
	Cpus int
}

//DefaultOptions returns options using all atoms and all logical CPUs.
func DefaultOptions() *Options {
	return &Options{Cpus: runtime.NumCPU()}
}

//HeavyAtoms returns the indexes of the non-hydrogen atoms of T. If there are fewer than 3
//of them it returns nil, meaning all atoms.
func HeavyAtoms(T *chem.Topology) []int {
	ret := make([]int, 0, T.Len())
	for i, a := range T.Atoms {
		if a.Z != 1 {
			ret = append(ret, i)
		}
	}
	if len(ret) < 3 {
		return nil
	}
	return ret
}

//subset returns the rows of c given by indexes, as a gonum Dense. nil indexes means all rows.
func subset(c *v3.Matrix, indexes []int) *mat.Dense {
	if indexes == nil {
		return mat.DenseCopyOf(c.Dense)
	}
	ret := mat.NewDense(len(indexes), 3, nil)
	for i, j := range indexes {
		ret.SetRow(i, c.RawRowView(j))
	}
	return ret
}

//centrate subtracts the centroid from the rows of A, in place, and returns the centroid.
func centrate(A *mat.Dense) []float64 {
	r, _ := A.Dims()
	cen := make([]float64, 3)
	for i := 0; i < r; i++ {
		for j := 0; j < 3; j++ {
			cen[j] += A.At(i, j) / float64(r)
		}
	}
	for i := 0; i < r; i++ {
		for j := 0; j < 3; j++ {
			A.Set(i, j, A.At(i, j)-cen[j])
		}
	}
	return cen
}

//rotation returns the proper rotation R minimizing |PR - Q|, for centered P and Q (Kabsch).
func rotation(P, Q *mat.Dense) (*mat.Dense, error) {
	var H mat.Dense
	H.Mul(P.T(), Q)
	var svd mat.SVD
	if ok := svd.Factorize(&H, mat.SVDFull); !ok {
		return nil, fmt.Errorf("rotation: SVD failed")
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	var R mat.Dense
	R.Mul(&U, V.T())
	if mat.Det(&R) < 0 {
		//flip the axis of the smallest singular value to avoid a reflection.
		for i := 0; i < 3; i++ {
			U.Set(i, 2, -U.At(i, 2))
		}
		R.Mul(&U, V.T())
	}
	return &R, nil
}

//Super returns a copy of test superimposed on templa. Only the atoms in indexes are used
//to compute the superposition (all if nil), but all of them are moved. Reflections are
//never used, so mirror images don't superimpose.
func Super(test, templa *v3.Matrix, indexes []int) (*v3.Matrix, error) {
	if test.NVecs() != templa.NVecs() || test.NVecs() == 0 {
		return nil, fmt.Errorf("Super: %w: %d and %d atoms", ErrShape, test.NVecs(), templa.NVecs())
	}
	P := subset(test, indexes)
	Q := subset(templa, indexes)
	pcen := centrate(P)
	qcen := centrate(Q)
	R, err := rotation(P, Q)
	if err != nil {
		return nil, fmt.Errorf("Super: %w", err)
	}
	moved := mat.DenseCopyOf(test.Dense)
	n := test.NVecs()
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			moved.Set(i, j, moved.At(i, j)-pcen[j])
		}
	}
	var ret mat.Dense
	ret.Mul(moved, R)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			ret.Set(i, j, ret.At(i, j)+qcen[j])
		}
	}
	return v3.Dense2Matrix(&ret), nil
}

//RMSD returns the root of the mean square deviation between test and templa, over the atoms
//in indexes (all if nil), without superimposing them.
func RMSD(test, templa *v3.Matrix, indexes []int) (float64, error) {
	if test.NVecs() != templa.NVecs() || test.NVecs() == 0 {
		return 0, fmt.Errorf("RMSD: %w: %d and %d atoms", ErrShape, test.NVecs(), templa.NVecs())
	}
	if indexes == nil {
		indexes = make([]int, test.NVecs())
		for i := range indexes {
			indexes[i] = i
		}
	}
	var sum float64
	for _, i := range indexes {
		for j := 0; j < 3; j++ {
			d := test.At(i, j) - templa.At(i, j)
			sum += d * d
		}
	}
	return math.Sqrt(sum / float64(len(indexes))), nil
}

//SuperRMSD returns the RMSD between test and templa after superimposing them.
func SuperRMSD(test, templa *v3.Matrix, indexes []int) (float64, error) {
	s, err := Super(test, templa, indexes)
	if err != nil {
		return 0, err
	}
	return RMSD(s, templa, indexes)
}

//Prune removes, in place, the conformers of mol that are within threshold A of RMSD, after
//superposition, from a previous conformer. The first conformer of each group of duplicates
//is kept, so an energy-sorted molecule keeps the lowest-energy ones. Energies are kept in sync.
//It returns the number of conformers removed.
func Prune(mol *chem.Molecule, threshold float64, o *Options) (int, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if threshold <= 0 || mol.NConformers() < 2 {
		return 0, nil
	}
	withE := len(mol.Energies) == mol.NConformers()
	kept := []*v3.Matrix{mol.Coords[0]}
	energies := make([]float64, 0, mol.NConformers())
	if withE {
		energies = append(energies, mol.Energies[0])
	}
	for i, c := range mol.Coords[1:] {
		dup, err := duplicate(c, kept, threshold, o)
		if err != nil {
			return 0, fmt.Errorf("Prune: conformer %d: %w", i+1, err)
		}
		if dup {
			continue
		}
		kept = append(kept, c)
		if withE {
			energies = append(energies, mol.Energies[i+1])
		}
	}
	removed := mol.NConformers() - len(kept)
	mol.Coords = kept
	if withE {
		mol.Energies = energies
	}
	return removed, nil
}

//duplicate compares c with every conformer in kept, using up to o.Cpus goroutines, and returns
//true if any of them is closer than threshold.
func duplicate(c *v3.Matrix, kept []*v3.Matrix, threshold float64, o *Options) (bool, error) {
	rmsds := make([]float64, len(kept))
	var g errgroup.Group
	g.SetLimit(max(o.Cpus, 1))
	for i, ref := range kept {
		g.Go(func() error {
			r, err := SuperRMSD(c, ref, o.Atoms)
			rmsds[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	for _, r := range rmsds {
		if r < threshold {
			return true, nil
		}
	}
	return false, nil
}
