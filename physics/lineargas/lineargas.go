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

// Package lineargas contains a simplified plasma physics mechanism in
// which every cooling channel is linear in temperature and the ion
// ladder follows a Boltzmann distribution. It is useful for testing and
// for runs where the thermal balance itself, rather than the detailed
// physics, is under study: with total heating H and combined cooling
// coefficient k, a cell's equilibrium temperature is exactly H/k.
package lineargas

import (
	"fmt"
	"math"

	"github.com/spectralmodel/ionmc"
)

// Mechanism fulfils the github.com/spectralmodel/ionmc.Mechanism
// interface.
type Mechanism struct {
	// CoolingRate is the radiative cooling per unit temperature
	// [erg/s/K].
	CoolingRate float64

	// AdiabaticRate is the adiabatic cooling per unit temperature
	// [erg/s/K].
	AdiabaticRate float64

	// DRRate and ComptonRate are the dielectronic and Compton cooling
	// per unit temperature [erg/s/K].
	DRRate      float64
	ComptonRate float64

	// MacroBBRate and MacroBFRate are the macro-atom bound-bound and
	// bound-free heating per unit temperature [erg/s/K].
	MacroBBRate float64
	MacroBFRate float64

	// NE is the electron density reported after every concentration
	// update [1/cm3].
	NE float64

	// IonizationScale is the temperature scale of the Boltzmann ion
	// ladder [K].
	IonizationScale float64

	// FixedAbundances, if non-nil, is the table used by
	// FixConcentrations.
	FixedAbundances []float64

	// FailConcentrations makes every concentration update report
	// non-convergence, for testing the recovery path.
	FailConcentrations bool

	drT float64 // temperature the DR coefficients were last prepared for
}

// NebularConcentrations populates the ion ladder of c with a Boltzmann
// distribution at the temperature selected by mode: the radiation
// temperature for the LTE closure, the electron temperature otherwise.
func (m *Mechanism) NebularConcentrations(c *ionmc.Cell, mode ionmc.ConcUpdate) error {
	t := c.TE
	if mode == ionmc.ConcLTE {
		t = c.TR
	}
	scale := m.IonizationScale
	if scale == 0 {
		scale = 1e4
	}
	c.NE = m.NE
	for i := range c.Density {
		c.Density[i] = m.NE * math.Exp(-float64(i)*scale/t)
		c.Ioniz[i] = c.Density[i] / scale
		c.Recomb[i] = c.Density[i] * c.NE / scale
	}
	if m.FailConcentrations {
		return fmt.Errorf("lineargas: concentration iteration did not converge")
	}
	return nil
}

// FixConcentrations overwrites the ion densities of c with the
// mechanism's fixed abundance table.
func (m *Mechanism) FixConcentrations(c *ionmc.Cell) error {
	if m.FixedAbundances == nil {
		return fmt.Errorf("lineargas: no fixed abundance table configured")
	}
	n := copy(c.Density, m.FixedAbundances)
	for i := n; i < len(c.Density); i++ {
		c.Density[i] = 0
	}
	return nil
}

// MacroBBHeating returns the macro-atom bound-bound heating at t.
func (m *Mechanism) MacroBBHeating(c *ionmc.Cell, t float64) float64 {
	return m.MacroBBRate * t
}

// MacroBFHeating returns the macro-atom bound-free heating at t.
func (m *Mechanism) MacroBFHeating(c *ionmc.Cell, t float64) float64 {
	return m.MacroBFRate * t
}

// AdiabaticCooling returns the adiabatic cooling at t.
func (m *Mechanism) AdiabaticCooling(c *ionmc.Cell, t float64) float64 {
	return m.AdiabaticRate * t
}

// ComputeDRCoeffs prepares the dielectronic recombination coefficients
// for temperature t.
func (m *Mechanism) ComputeDRCoeffs(t float64) {
	m.drT = t
}

// TotalDR returns the dielectronic recombination cooling at the
// temperature the coefficients were prepared for.
func (m *Mechanism) TotalDR(c *ionmc.Cell, t float64) float64 {
	return m.DRRate * m.drT
}

// TotalComp returns the Compton cooling at t.
func (m *Mechanism) TotalComp(c *ionmc.Cell, t float64) float64 {
	return m.ComptonRate * t
}

// TotalEmission returns the radiative cooling of c at its current
// electron temperature. The band limits are ignored; the linear cooling
// law has no spectral structure.
func (m *Mechanism) TotalEmission(c *ionmc.Cell, numin, numax float64) float64 {
	return m.CoolingRate * c.TE
}

// AugerIonization is a no-op; the linear mechanism has no inner-shell
// physics.
func (m *Mechanism) AugerIonization(c *ionmc.Cell) error { return nil }
