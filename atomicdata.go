/*
 * atomicdata.go, part of gocmiles.
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

//elements holds the symbols of the elements from H to Mt, in order of atomic number.
var elements = []string{
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn", "Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba",
	"La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb", "Lu",
	"Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra",
	"Ac", "Th", "Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm", "Md", "No", "Lr",
	"Rf", "Db", "Sg", "Bh", "Hs", "Mt",
}

var symbolZ = func() map[string]int {
	m := make(map[string]int, len(elements))
	for i, s := range elements {
		m[s] = i + 1
	}
	return m
}()

//atomicMasses follows the order of elements. Values for elements without stable isotopes
//are the mass number of the longest-lived one.
var atomicMasses = []float64{
	1.008, 4.0026,
	6.94, 9.0122, 10.81, 12.011, 14.007, 15.999, 18.998, 20.180,
	22.990, 24.305, 26.982, 28.085, 30.974, 32.06, 35.45, 39.948,
	39.098, 40.078, 44.956, 47.867, 50.942, 51.996, 54.938, 55.845, 58.933, 58.693, 63.546, 65.38, 69.723, 72.630, 74.922, 78.971, 79.904, 83.798,
	85.468, 87.62, 88.906, 91.224, 92.906, 95.95, 98, 101.07, 102.91, 106.42, 107.87, 112.41, 114.82, 118.71, 121.76, 127.60, 126.90, 131.29,
	132.91, 137.33,
	138.91, 140.12, 140.91, 144.24, 145, 150.36, 151.96, 157.25, 158.93, 162.50, 164.93, 167.26, 168.93, 173.05, 174.97,
	178.49, 180.95, 183.84, 186.21, 190.23, 192.22, 195.08, 196.97, 200.59, 204.38, 207.2, 208.98, 209, 210, 222,
	223, 226,
	227, 232.04, 231.04, 238.03, 237, 244, 243, 247, 247, 251, 252, 257, 258, 259, 266,
	267, 268, 269, 270, 277, 278,
}

//A map for assigning covalent radii to elements
//Values from Cordero et al., 2008 (DOI:10.1039/B801115J)
//Elements not here can't get bonds from AssignBonds.
var symbolCovrad = map[string]float64{
	"H":  0.4, //0.31 in the reference. The extra bonds a longer radius gives are removed later.
	"B":  0.84,
	"C":  0.76, //the sp3 radius
	"N":  0.71,
	"O":  0.66,
	"F":  0.57,
	"Na": 1.66,
	"Mg": 1.41,
	"Al": 1.21,
	"Si": 1.11,
	"P":  1.07,
	"S":  1.05,
	"Cl": 1.02,
	"K":  2.03,
	"Ca": 1.76,
	"Cr": 1.39,
	"Mn": 1.61, //hs
	"Fe": 1.52, //hs
	"Co": 1.5,  //hs
	"Cu": 1.32,
	"Zn": 1.22,
	"Se": 1.2,
	"Br": 1.2,
	"I":  1.39,
	"Be": 0.96,
}

//symbolMaxValence is the largest sum of bond orders allowed for a neutral atom of each
//element. Elements not here are not checked.
var symbolMaxValence = map[string]int{
	"H":  1,
	"B":  3,
	"C":  4,
	"N":  3,
	"O":  2,
	"F":  1,
	"Si": 4,
	"P":  7,
	"S":  6,
	"Cl": 1,
	"Br": 1,
	"I":  5,
	"Se": 6,
}

//AtomicNumber returns the atomic number of the element with the given symbol,
//and false if the symbol is not known.
func AtomicNumber(symbol string) (int, bool) {
	z, ok := symbolZ[symbol]
	return z, ok
}

//Symbol returns the symbol of the element with atomic number z, or an empty string.
func Symbol(z int) string {
	if z < 1 || z > len(elements) {
		return ""
	}
	return elements[z-1]
}

//AtomicMass returns the mass of the element with the given symbol, or 0.
func AtomicMass(symbol string) float64 {
	z, ok := symbolZ[symbol]
	if !ok {
		return 0
	}
	return atomicMasses[z-1]
}

//CovalentRadius returns the covalent radius, in A, of the element with the given symbol,
//and false if it is not known.
func CovalentRadius(symbol string) (float64, bool) {
	r, ok := symbolCovrad[symbol]
	return r, ok
}

//maxValence returns the maximum valence for a (neutral) atom with atomic number z, and
//false if z has no defined maximum.
func maxValence(z int) (int, bool) {
	v, ok := symbolMaxValence[Symbol(z)]
	return v, ok
}
