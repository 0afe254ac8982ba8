/*
 * doc.go, part of gocmiles.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*Package chem is the main package of the gocmiles library. It provides atom and molecule structures,
facilities for reading and writing the files commonly used to exchange small molecules, and the
graph-level chemistry needed to keep track of them: sanitization, ring perception, stereochemistry
from 3D coordinates and atom maps.

	**gocmiles Capabilities**

    Builds molecules from QCSchema dictionaries (MolFromJSON), converting the geometry from Bohr
	to Angstrom and assigning stereochemistry from it, and writes them back (ToJSON).

    Reads XYZ, PDB, MDL MOL/SD (V2000), Tripos MOL2 and QCSchema JSON files, optionally compressed
	with gzip, zstd or xz. Writes XYZ, SD and QCSchema JSON files.

    Keeps several conformers per molecule, with their energies.

    Checks, sets and removes atom-map indexes.

    Perceives stereocenters and stereogenic double bonds, and assigns their configuration from
	a conformer.

SMILES parsing and conformer generation are delegated to external programs, through the obabel and
crest packages. The toolkit package puts everything together.
*/
package chem
