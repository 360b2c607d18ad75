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

import "math"

const (
	// teTolerance is the absolute tolerance of the electron
	// temperature root solve [K].
	teTolerance = 50.

	// Bracket factors applied to the current electron temperature
	// when searching for thermal balance.
	teBracketLo = 0.7
	teBracketHi = 1.3
)

// zeroEmit is the thermal-balance residual: total heating minus total
// cooling with the cell held at trial electron temperature t.
//
// This residual is stateful. Evaluating it rewrites the cell's cached
// heating decomposition (the macro-atom bound-bound and bound-free
// terms depend on temperature), the adiabatic, dielectronic and Compton
// cooling rates, and the radiative cooling rate, so that all of them
// reflect the trial temperature. The caller must expect the cell to be
// left at the last temperature probed. Execution within a rank is
// single-threaded; a thread-parallel port would need one scratch cell
// per worker.
func zeroEmit(m Mechanism, c *Cell, t float64) float64 {
	c.TE = t
	refreshMacroHeating(m, c, t)

	// Adiabatic cooling is proportional to temperature, so it has to
	// track the trial value.
	c.LumAdiabatic = m.AdiabaticCooling(c, t)

	// Dielectronic and Compton cooling are evaluated directly to avoid
	// generating photons.
	m.ComputeDRCoeffs(t)
	c.LumDR = m.TotalDR(c, t)
	c.LumComp = m.TotalComp(c, t)

	c.LumRad = m.TotalEmission(c, 0, VeryBig)

	return c.HeatTot - c.LumAdiabatic - c.LumDR - c.LumComp - c.LumRad
}

// refreshMacroHeating swaps the macro-atom heating contributions out of
// the cached heating totals and back in at temperature t.
func refreshMacroHeating(m Mechanism, c *Cell, t float64) {
	c.HeatTot -= c.HeatLinesMacro
	c.HeatLines -= c.HeatLinesMacro
	c.HeatLinesMacro = m.MacroBBHeating(c, t)
	c.HeatTot += c.HeatLinesMacro
	c.HeatLines += c.HeatLinesMacro

	c.HeatTot -= c.HeatPhotoMacro
	c.HeatPhoto -= c.HeatPhotoMacro
	c.HeatPhotoMacro = m.MacroBFHeating(c, t)
	c.HeatTot += c.HeatPhotoMacro
	c.HeatPhoto += c.HeatPhotoMacro
}

// solveTemperature finds the electron temperature in [tmin, tmax] at
// which heating balances cooling and leaves the cell at that
// temperature. When the interval does not bracket thermal balance it
// falls back to the endpoint with the smaller residual rather than
// failing: the outer damped iteration corrects an inaccurate step, so
// bounded motion is preferred over an error.
func solveTemperature(m Mechanism, c *Cell, tmin, tmax float64) float64 {
	z1 := zeroEmit(m, c, tmin)
	z2 := zeroEmit(m, c, tmax)

	if z1*z2 < 0 {
		t, err := FindRoot(func(t float64) float64 {
			return zeroEmit(m, c, t)
		}, tmin, tmax, teTolerance)
		if err == nil {
			c.TE = t
		}
		// An iteration-limit failure leaves the best estimate in c.TE
		// via the residual's side effect; keep it.
	} else if math.Abs(z1) < math.Abs(z2) {
		c.TE = tmin
	} else {
		c.TE = tmax
	}

	// Settle the cached heating decomposition at the accepted
	// temperature.
	refreshMacroHeating(m, c, c.TE)

	return c.TE
}
