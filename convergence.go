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
	"fmt"
	"math"
)

const (
	// convergeEpsilon is the tolerance of the per-cell convergence
	// residuals.
	convergeEpsilon = 0.05

	// Bounds and multipliers of the adaptive relaxation gain. The
	// gain shrinks multiplicatively while a cell oscillates and grows
	// multiplicatively while it does not.
	gainMin    = 0.1
	gainMax    = 0.8
	gainShrink = 0.7
	gainGrow   = 1.1
)

// Convergence applies the per-cell convergence criteria to c and adapts
// its relaxation gain. It records the normalized residuals of the
// radiation temperature, electron temperature and heating-cooling
// balance, sets the per-criterion check flags (0 when the criterion is
// met), and returns ConvergeWhole, which is 0 iff all three are met.
//
// A cell whose last two temperature steps alternate in sign with
// growing magnitude is overshooting; its gain is damped. Otherwise the
// gain relaxes back up.
func Convergence(c *Cell) int {
	c.TRCheck, c.TECheck, c.HCCheck = 0, 0, 0

	c.ConvergeTR = math.Abs(c.TROld-c.TR) / (c.TROld + c.TR)
	if c.ConvergeTR > convergeEpsilon {
		c.TRCheck = 1
	}

	c.ConvergeTE = math.Abs(c.TEOld-c.TE) / (c.TEOld + c.TE)
	if c.ConvergeTE > convergeEpsilon {
		c.TECheck = 1
	}

	// Adiabatic cooling counts toward the emitted side of the balance.
	c.ConvergeHC = math.Abs(c.HeatTot-(c.LumRad+c.LumAdiabatic)) /
		(c.HeatTot + c.LumRad + c.LumAdiabatic)
	if c.ConvergeHC > convergeEpsilon {
		c.HCCheck = 1
	}

	c.ConvergeWhole = c.TRCheck + c.TECheck + c.HCCheck

	if c.DTEOld*c.DTE < 0 && math.Abs(c.DTE) > math.Abs(c.DTEOld) {
		c.Converging = 1
	} else {
		c.Converging = 0
	}

	if c.Converging == 1 { // Oscillating: damp harder.
		c.Gain *= gainShrink
		if c.Gain < gainMin {
			c.Gain = gainMin
		}
	} else { // Steady: relax faster.
		c.Gain *= gainGrow
		if c.Gain > gainMax {
			c.Gain = gainMax
		}
	}

	return c.ConvergeWhole
}

// ConvergenceStatus summarizes how well a set of cells is converging.
type ConvergenceStatus struct {
	NConverged  int // cells with all three criteria met
	NTR         int // cells meeting the radiation temperature criterion
	NTE         int // cells meeting the electron temperature criterion
	NHC         int // cells meeting the heating-cooling criterion
	NConverging int // cells not oscillating
	NTotal      int
}

// FracConverged returns the fraction of cells with all criteria met.
func (s *ConvergenceStatus) FracConverged() float64 {
	return float64(s.NConverged) / float64(s.NTotal)
}

// FracConverging returns the fraction of cells not oscillating.
func (s *ConvergenceStatus) FracConverging() float64 {
	return float64(s.NConverging) / float64(s.NTotal)
}

func (s *ConvergenceStatus) String() string {
	return fmt.Sprintf("convergence: %4d (%.3f) converged and %4d (%.3f) converging of %d cells; "+
		"breakdown t_r %4d t_e %4d hc %4d",
		s.NConverged, s.FracConverged(), s.NConverging, s.FracConverging(), s.NTotal,
		s.NTR, s.NTE, s.NHC)
}

// CheckConvergence scans cells and reports global convergence counts.
// It never fails; the counts are informational.
func CheckConvergence(cells []*Cell) *ConvergenceStatus {
	s := new(ConvergenceStatus)
	for _, c := range cells {
		s.NTotal++
		if c.ConvergeWhole == 0 {
			s.NConverged++
		}
		if c.TRCheck == 0 {
			s.NTR++
		}
		if c.TECheck == 0 {
			s.NTE++
		}
		if c.HCCheck == 0 {
			s.NHC++
		}
		if c.Converging == 0 {
			s.NConverging++
		}
	}
	return s
}
