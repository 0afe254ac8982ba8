/*
 * graph.go, part of gocmiles.
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
package chemgraph

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

//Bonded is what a topology needs to offer to be turned into a graph.
//chem.Topology implements it.
type Bonded interface {
	Len() int
	NBonds() int
	BondAtoms(i int) (int, int)
}

//Graph is an undirected gonum graph where each node is an atom (its ID is the atom index)
//and each edge is a bond.
type Graph struct {
	*simple.UndirectedGraph
	bonds [][2]int
}

//New builds a Graph from T. Bonds from an atom to itself are ignored.
func New(T Bonded) *Graph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < T.Len(); i++ {
		g.AddNode(simple.Node(i))
	}
	b := make([][2]int, 0, T.NBonds())
	for i := 0; i < T.NBonds(); i++ {
		a1, a2 := T.BondAtoms(i)
		b = append(b, [2]int{a1, a2})
		if a1 == a2 || a1 < 0 || a2 < 0 || a1 >= T.Len() || a2 >= T.Len() {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(a1), T: simple.Node(a2)})
	}
	return &Graph{UndirectedGraph: g, bonds: b}
}

//Neighbors returns the indexes of the atoms bonded to atom i, in increasing order.
func (G *Graph) Neighbors(i int) []int {
	ret := make([]int, 0, 4)
	for _, n := range graph.NodesOf(G.From(int64(i))) {
		ret = append(ret, int(n.ID()))
	}
	sort.Ints(ret)
	return ret
}

//Fragments returns the connected components of the graph, each one as a sorted
//list of atom indexes. Fragments are sorted by their lowest index.
func (G *Graph) Fragments() [][]int {
	cc := topo.ConnectedComponents(G.UndirectedGraph)
	ret := make([][]int, 0, len(cc))
	for _, c := range cc {
		frag := make([]int, 0, len(c))
		for _, n := range c {
			frag = append(frag, int(n.ID()))
		}
		sort.Ints(frag)
		ret = append(ret, frag)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i][0] < ret[j][0] })
	return ret
}

//Rings returns a cycle basis of the graph. Each ring is given as the list of its
//atom indexes, without repeating the first one at the end.
func (G *Graph) Rings() [][]int {
	cycles := topo.UndirectedCyclesIn(G.UndirectedGraph)
	ret := make([][]int, 0, len(cycles))
	for _, c := range cycles {
		if len(c) > 1 && c[0].ID() == c[len(c)-1].ID() {
			c = c[:len(c)-1]
		}
		r := make([]int, 0, len(c))
		for _, n := range c {
			r = append(r, int(n.ID()))
		}
		ret = append(ret, r)
	}
	return ret
}

//SmallestRing returns the size of the smallest ring containing the bond with the given
//index, or 0 if the bond is not part of any ring.
//The graph is briefly modified, so SmallestRing must not be called concurrently on the
//same Graph.
func (G *Graph) SmallestRing(bond int) int {
	if bond < 0 || bond >= len(G.bonds) {
		return 0
	}
	a1, a2 := int64(G.bonds[bond][0]), int64(G.bonds[bond][1])
	if a1 == a2 || !G.HasEdgeBetween(a1, a2) {
		return 0
	}
	G.RemoveEdge(a1, a2)
	defer G.SetEdge(simple.Edge{F: simple.Node(a1), T: simple.Node(a2)})
	p, w := path.DijkstraFrom(simple.Node(a1), G.UndirectedGraph).To(a2)
	if p == nil || math.IsInf(w, 1) {
		return 0
	}
	return len(p)
}

//RingBonds returns, for each bond, whether it belongs to at least one ring.
func (G *Graph) RingBonds() []bool {
	ret := make([]bool, len(G.bonds))
	for i := range G.bonds {
		ret[i] = G.SmallestRing(i) > 0
	}
	return ret
}

//Ranks returns a rank for each atom, obtained by iterative refinement of the given
//invariants with the ranks of each atom's neighbors, in the spirit of the Morgan algorithm.
//Atoms with larger invariants get larger ranks. Two atoms with the same rank can't be told
//apart by their environment in the graph. invariants must have one element per atom.
func (G *Graph) Ranks(invariants []int64) []int {
	n := len(invariants)
	keys := make([][]int64, n)
	for i, v := range invariants {
		keys[i] = []int64{v}
	}
	ranks, classes := denseRank(keys)
	neigh := make([][]int, n)
	for i := range neigh {
		neigh[i] = G.Neighbors(i)
	}
	for {
		for i := 0; i < n; i++ {
			nr := make([]int64, 0, len(neigh[i]))
			for _, j := range neigh[i] {
				nr = append(nr, int64(ranks[j]))
			}
			slices.Sort(nr)
			slices.Reverse(nr)
			keys[i] = append([]int64{int64(ranks[i])}, nr...)
		}
		newranks, newclasses := denseRank(keys)
		if newclasses <= classes {
			break
		}
		ranks, classes = newranks, newclasses
	}
	return ranks
}

//denseRank gives 0-based dense ranks to the keys, comparing them lexicographically.
//It returns the ranks and the number of different ones.
func denseRank(keys [][]int64) ([]int, int) {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return slices.Compare(keys[order[i]], keys[order[j]]) < 0
	})
	ranks := make([]int, len(keys))
	r := 0
	for i, idx := range order {
		if i > 0 && slices.Compare(keys[order[i-1]], keys[idx]) != 0 {
			r++
		}
		ranks[idx] = r
	}
	if len(keys) == 0 {
		return ranks, 0
	}
	return ranks, r + 1
}
