/*
 * plotutils.go, part of gocmiles.
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
package chemplot

import "math"

//hsv2rgb takes a hue (0-360), value and saturation (0-1) and returns r, g, b (0-255).
func hsv2rgb(h, v, s float64) (uint8, uint8, uint8) {
	if s == 0 {
		c := uint8(255 * v)
		return c, c, c
	}
	h = math.Mod(h, 360) / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(255 * r), uint8(255 * g), uint8(255 * b)
}

//colors returns the color for the point key out of steps, going from red to violet
//and skipping the yellows, which are hard to see on white.
func colors(key, steps int) (r, g, b uint8) {
	hp := float64(key)*260.0/float64(max(steps, 1)) + 20
	h := hp + 20
	if hp < 55 {
		h = hp - 20
	}
	return hsv2rgb(h, 1, 1)
}
