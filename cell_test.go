/*
Copyright © 2026 the IonMC authors.
This file is part of IonMC.

IonMC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

IonMC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with IonMC.  If not, see <http://www.gnu.org/licenses/>.
*/

package ionmc

import (
	"math"
	"testing"
)

func TestNewBandTable(t *testing.T) {
	b, err := NewBandTable([]float64{1e14, 1e15, 1e16})
	if err != nil {
		t.Fatal(err)
	}
	if b.NBands() != 2 {
		t.Errorf("%d bands, want 2", b.NBands())
	}
	if lo, hi := b.Edges(1); lo != 1e15 || hi != 1e16 {
		t.Errorf("band 1 = [%g, %g)", lo, hi)
	}
	if lo, hi := b.Coarse(); lo != 1e14 || hi != 1e16 {
		t.Errorf("coarse band = [%g, %g)", lo, hi)
	}

	bad := [][]float64{
		{1e14},             // too few edges
		{},                 // empty
		{-1e14, 1e15},      // negative edge
		{0, 1e15},          // zero edge
		{1e15, 1e14},       // unsorted
		{1e14, 1e15, 1e15}, // duplicate
	}
	for _, edges := range bad {
		if _, err := NewBandTable(edges); err == nil {
			t.Errorf("edges %v: expected an error", edges)
		}
	}
}

func TestNewCell(t *testing.T) {
	b := testBands(t)
	c := NewCell(7, 4, b)
	if c.NPlasma != 7 || c.NWind != 7 {
		t.Errorf("cell indices %d %d", c.NPlasma, c.NWind)
	}
	if c.Gain != gainMax {
		t.Errorf("initial gain %g, want %g", c.Gain, gainMax)
	}
	if len(c.SimAlpha) != b.NBands() || len(c.SimW) != b.NBands() ||
		len(c.XJ) != b.NBands() || len(c.XAveFreq) != b.NBands() || len(c.NXTot) != b.NBands() {
		t.Error("band estimator lengths do not match the band table")
	}
	if len(c.Density) != 4 || len(c.Ioniz) != 4 || len(c.Recomb) != 4 {
		t.Error("ion array lengths do not match nions")
	}
}

func TestShiftHistory(t *testing.T) {
	b := testBands(t)
	c := NewCell(0, 1, b)
	c.TE, c.TEOld = 1.2e4, 1.0e4
	c.TR, c.TROld = 9e3, 8e3
	c.LumRad, c.LumRadOld = 500, 400
	c.DTE, c.DTEOld = 700, -300

	c.shiftHistory()

	// The step record shifts before the temperatures, so DTE holds the
	// step that produced the current state.
	if c.DTEOld != 700 {
		t.Errorf("dt_e,old = %g, want 700", c.DTEOld)
	}
	if c.DTE != 2e3 {
		t.Errorf("dt_e = %g, want 2000", c.DTE)
	}
	if c.TEOld != 1.2e4 || c.TROld != 9e3 || c.LumRadOld != 500 {
		t.Errorf("previous state %g %g %g", c.TEOld, c.TROld, c.LumRadOld)
	}
	if c.TE != 1.2e4 || c.TR != 9e3 {
		t.Errorf("current state changed: %g %g", c.TE, c.TR)
	}
}

func TestSaneCheck(t *testing.T) {
	for _, x := range []float64{0, 1, -1e300, VeryBig} {
		if SaneCheck(x) {
			t.Errorf("SaneCheck(%g) = true", x)
		}
	}
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if !SaneCheck(x) {
			t.Errorf("SaneCheck(%g) = false", x)
		}
	}
}
