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
	"errors"
	"math"
	"testing"
)

// testMech is a linearized plasma: heating is whatever the cell caches,
// radiative cooling is cooling·t, and the minor channels are optional
// linear terms. The call log records the order of the abundance
// operations.
type testMech struct {
	cooling   float64
	adiabatic float64
	dr        float64
	comp      float64
	macroBB   float64
	macroBF   float64

	concErr  error
	fixErr   error
	augerErr error

	closures []ConcUpdate
	calls    []string
	drT      float64
}

func (m *testMech) NebularConcentrations(c *Cell, mode ConcUpdate) error {
	m.closures = append(m.closures, mode)
	m.calls = append(m.calls, "conc")
	c.NE = 1e8
	return m.concErr
}

func (m *testMech) FixConcentrations(c *Cell) error {
	m.calls = append(m.calls, "fix")
	return m.fixErr
}

func (m *testMech) MacroBBHeating(c *Cell, t float64) float64 { return m.macroBB * t }
func (m *testMech) MacroBFHeating(c *Cell, t float64) float64 { return m.macroBF * t }

func (m *testMech) AdiabaticCooling(c *Cell, t float64) float64 { return m.adiabatic * t }
func (m *testMech) ComputeDRCoeffs(t float64)                   { m.drT = t }
func (m *testMech) TotalDR(c *Cell, t float64) float64          { return m.dr * t }
func (m *testMech) TotalComp(c *Cell, t float64) float64        { return m.comp * t }

func (m *testMech) TotalEmission(c *Cell, numin, numax float64) float64 {
	return m.cooling * c.TE
}

func (m *testMech) AugerIonization(c *Cell) error {
	m.calls = append(m.calls, "auger")
	return m.augerErr
}

func TestParseMode(t *testing.T) {
	for i := 0; i <= 5; i++ {
		if _, err := ParseMode(i); err != nil {
			t.Errorf("mode %d: %v", i, err)
		}
	}
	for _, i := range []int{-1, 6, 99} {
		if _, err := ParseMode(i); err == nil {
			t.Errorf("mode %d: expected an error", i)
		}
	}
}

func TestIonAbundancesOnTheSpot(t *testing.T) {
	// Mode 0 recomputes abundances at frozen temperatures: no damped
	// step, no history shift, no gain adaptation.
	b := testBands(t)
	m := &testMech{cooling: 0.1}
	c := NewCell(0, 1, b)
	c.TE, c.TR = 2e4, 1.5e4
	c.HeatTot = 1000

	converged, err := IonAbundances(m, c, ModeOnTheSpot, b, false)
	if err != nil {
		t.Fatal(err)
	}
	if !converged {
		t.Error("expected converged")
	}
	if len(m.closures) != 1 || m.closures[0] != ConcOnTheSpot {
		t.Errorf("closures = %v, want [%d]", m.closures, ConcOnTheSpot)
	}
	if c.TE != 2e4 || c.TEOld != 0 {
		t.Errorf("temperatures moved: t_e %g t_e,old %g", c.TE, c.TEOld)
	}
	if c.Gain != gainMax {
		t.Errorf("gain changed to %g", c.Gain)
	}
}

func TestIonAbundancesClosures(t *testing.T) {
	b := testBands(t)
	cases := []struct {
		mode Mode
		want ConcUpdate
	}{
		{ModeLTEtr, ConcLTE},
		{ModeDampedOTS, ConcOnTheSpot},
		{ModeLTEtrPL, ConcPowerLaw},
		{ModeDampedPL, ConcPowerLaw},
	}
	for _, tc := range cases {
		m := &testMech{cooling: 0.1}
		c := NewCell(0, 1, b)
		c.TE, c.TR = 1e4, 1e4
		c.HeatTot = 1000
		if _, err := IonAbundances(m, c, tc.mode, b, false); err != nil {
			t.Fatalf("mode %v: %v", tc.mode, err)
		}
		if len(m.closures) != 1 || m.closures[0] != tc.want {
			t.Errorf("mode %v: closures = %v, want [%d]", tc.mode, m.closures, tc.want)
		}
	}
}

func TestIonAbundancesDamped(t *testing.T) {
	// Repeated damped updates must walk the electron temperature to the
	// heating-cooling equilibrium and report the cell converged.
	b := testBands(t)
	m := &testMech{cooling: 0.1}
	c := NewCell(0, 1, b)
	c.TE, c.TEOld = 2e4, 2e4
	c.TR, c.TROld = 1.2e4, 1.2e4
	c.HeatTot = 1000 // equilibrium at t_e = 1e4

	for i := 0; i < 20; i++ {
		converged, err := IonAbundances(m, c, ModeDampedOTS, b, false)
		if err != nil {
			t.Fatal(err)
		}
		if !converged {
			t.Fatalf("iteration %d: not converged", i)
		}
		if c.Gain < gainMin || c.Gain > gainMax {
			t.Fatalf("iteration %d: gain %g outside [%g, %g]", i, c.Gain, gainMin, gainMax)
		}
	}

	if math.Abs(c.TE-1e4)/1e4 > 0.01 {
		t.Errorf("t_e = %g, want 1e4", c.TE)
	}
	if c.ConvergeWhole != 0 {
		t.Errorf("ConvergeWhole = %d (t_r %d t_e %d hc %d)",
			c.ConvergeWhole, c.TRCheck, c.TECheck, c.HCCheck)
	}
}

func TestIonAbundancesFixed(t *testing.T) {
	b := testBands(t)
	m := &testMech{}
	c := NewCell(0, 1, b)
	if _, err := IonAbundances(m, c, ModeFixed, b, false); err != nil {
		t.Fatal(err)
	}
	if len(m.calls) != 1 || m.calls[0] != "fix" {
		t.Errorf("calls = %v", m.calls)
	}

	m = &testMech{fixErr: errors.New("no table")}
	if _, err := IonAbundances(m, c, ModeFixed, b, false); err == nil {
		t.Error("expected an error")
	}
}

func TestIonAbundancesColdRadiationField(t *testing.T) {
	b := testBands(t)
	m := &testMech{cooling: 0.1}
	c := NewCell(0, 1, b)
	c.TE = 1e4
	c.TR = 5 // below the physical floor
	c.HeatTot = 1000

	if _, err := IonAbundances(m, c, ModeDampedOTS, b, false); err == nil {
		t.Error("expected an error for an unphysical radiation temperature")
	}
}

func TestIonAbundancesUnknownMode(t *testing.T) {
	b := testBands(t)
	c := NewCell(0, 1, b)
	if _, err := IonAbundances(&testMech{}, c, Mode(7), b, false); err == nil {
		t.Error("expected an error")
	}
}

func TestIonAbundancesNonConverged(t *testing.T) {
	// A non-converged abundance iteration is reported but is not fatal.
	b := testBands(t)
	m := &testMech{cooling: 0.1, concErr: errors.New("max iterations")}
	c := NewCell(0, 1, b)
	c.TE, c.TR = 1e4, 1e4
	c.HeatTot = 1000

	for _, mode := range []Mode{ModeOnTheSpot, ModeDampedOTS} {
		converged, err := IonAbundances(m, c, mode, b, false)
		if err != nil {
			t.Fatalf("mode %v: %v", mode, err)
		}
		if converged {
			t.Errorf("mode %v: expected converged=false", mode)
		}
	}
}

func TestIonAbundancesAugerLast(t *testing.T) {
	b := testBands(t)
	m := &testMech{cooling: 0.1}
	c := NewCell(0, 1, b)
	c.TE, c.TR = 1e4, 1e4
	c.HeatTot = 1000

	converged, err := IonAbundances(m, c, ModeDampedOTS, b, true)
	if err != nil {
		t.Fatal(err)
	}
	if !converged {
		t.Error("expected converged")
	}
	n := len(m.calls)
	if n < 2 || m.calls[n-1] != "auger" || m.calls[n-2] != "conc" {
		t.Errorf("calls = %v, want auger after the abundance update", m.calls)
	}

	// An auger failure perturbs minor ions only; it must not fail the
	// whole update.
	m = &testMech{cooling: 0.1, augerErr: errors.New("no inner-shell data")}
	c = NewCell(0, 1, b)
	c.TE, c.TR = 1e4, 1e4
	c.HeatTot = 1000
	if converged, err = IonAbundances(m, c, ModeDampedOTS, b, true); err != nil || !converged {
		t.Errorf("converged=%v err=%v", converged, err)
	}
}
