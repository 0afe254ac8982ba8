/*
 * maps.go, part of gocmiles.
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

//IsMapped returns true only if every atom in T has a nonzero atom-map index.
//A topology without atoms is considered mapped.
func IsMapped(T *Topology) bool {
	for _, a := range T.Atoms {
		if a.MapIdx == 0 {
			return false
		}
	}
	return true
}

//RemoveMap sets the atom-map index of every atom in T to 0.
func RemoveMap(T *Topology) {
	for _, a := range T.Atoms {
		a.MapIdx = 0
	}
}

//MapByIndex sets the atom-map index of every atom to its index plus one.
func MapByIndex(T *Topology) {
	for i, a := range T.Atoms {
		a.MapIdx = i + 1
	}
}
