/*
 * energies.go, part of gocmiles.
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
//Package chemplot plots properties of conformer ensembles, using gonum/plot.
package chemplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	chem "github.com/rmera/gocmiles"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

//ErrNoEnergies is returned when a molecule doesn't have one energy per conformer.
var ErrNoEnergies = errors.New("conformer energies not available")

//RelativeEnergies returns the energies of the conformers of mol relative to the lowest one, in kcal/mol.
func RelativeEnergies(mol *chem.Molecule) ([]float64, error) {
	if mol.NConformers() == 0 || len(mol.Energies) != mol.NConformers() {
		return nil, fmt.Errorf("RelativeEnergies: %w: %d energies for %d conformers", ErrNoEnergies, len(mol.Energies), mol.NConformers())
	}
	emin := math.Inf(1)
	for _, e := range mol.Energies {
		emin = math.Min(emin, e)
	}
	ret := make([]float64, len(mol.Energies))
	for i, e := range mol.Energies {
		ret[i] = e - emin
	}
	return ret, nil
}

//EnergyPlot plots the relative energies of the conformers of mol against their indexes, and
//saves the plot to filename. The format is taken from the extension (png, svg, pdf, eps...).
//The lowest-energy conformer is marked with a pyramid.
func EnergyPlot(mol *chem.Molecule, title, filename string) error {
	rel, err := RelativeEnergies(mol)
	if err != nil {
		return fmt.Errorf("EnergyPlot: %w", err)
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Conformer"
	p.Y.Label.Text = "Relative energy (kcal/mol)"
	p.X.Min = -0.5
	p.X.Max = float64(len(rel)) - 0.5
	p.Y.Min = 0
	p.Add(plotter.NewGrid())
	line := make(plotter.XYs, len(rel))
	for i, e := range rel {
		line[i].X, line[i].Y = float64(i), e
	}
	l, err := plotter.NewLine(line)
	if err != nil {
		return fmt.Errorf("EnergyPlot: %w", err)
	}
	l.LineStyle.Color = color.Gray{Y: 180}
	p.Add(l)
	temp := make(plotter.XYs, 1)
	for i, e := range rel {
		temp[0].X, temp[0].Y = float64(i), e
		s, err := plotter.NewScatter(temp)
		if err != nil {
			return fmt.Errorf("EnergyPlot: %w", err)
		}
		r, g, b := colors(i, len(rel))
		s.GlyphStyle.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		if e == 0 {
			s.GlyphStyle.Shape = draw.PyramidGlyph{}
			s.GlyphStyle.Radius = vg.Points(4)
		}
		p.Add(s)
	}
	if err := p.Save(5*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("EnergyPlot: %w", err)
	}
	return nil
}
