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

// ConcUpdate selects the closure used by a mechanism when recomputing ion
// concentrations for a cell.
type ConcUpdate int

const (
	// ConcLTE determines abundances from the radiation temperature alone.
	ConcLTE ConcUpdate = 1
	// ConcOnTheSpot treats recombination photons as locally absorbed.
	ConcOnTheSpot ConcUpdate = 2
	// ConcPowerLaw is the on-the-spot closure driven by the fitted
	// per-band power-law radiation field.
	ConcPowerLaw ConcUpdate = 5
)

// Mechanism is an interface for the plasma physics consumed by the
// ionization and thermal balance calculation: concentration closures,
// macro-atom heating, and the cooling channels evaluated at trial
// temperatures. Implementations must not retain cell pointers between
// calls.
type Mechanism interface {
	// NebularConcentrations updates the ion densities and electron
	// density of c at its current TE and TR under the given closure.
	// It returns an error if the concentration iteration did not
	// converge; the densities left in the cell are still usable.
	NebularConcentrations(c *Cell, mode ConcUpdate) error

	// FixConcentrations overwrites the ion densities of c with a
	// hardwired abundance table.
	FixConcentrations(c *Cell) error

	// MacroBBHeating returns the macro-atom bound-bound heating rate
	// of c at trial electron temperature t [erg/s].
	MacroBBHeating(c *Cell, t float64) float64

	// MacroBFHeating returns the macro-atom bound-free heating rate
	// of c at trial electron temperature t [erg/s].
	MacroBFHeating(c *Cell, t float64) float64

	// AdiabaticCooling returns the adiabatic cooling rate of the wind
	// cell underlying c at trial temperature t [erg/s].
	AdiabaticCooling(c *Cell, t float64) float64

	// ComputeDRCoeffs prepares the dielectronic recombination rate
	// coefficients for temperature t. It must be called before TotalDR
	// is evaluated at t.
	ComputeDRCoeffs(t float64)

	// TotalDR returns the dielectronic recombination cooling rate of c
	// at trial temperature t [erg/s].
	TotalDR(c *Cell, t float64) float64

	// TotalComp returns the Compton cooling rate of c at trial
	// temperature t [erg/s].
	TotalComp(c *Cell, t float64) float64

	// TotalEmission returns the radiative cooling rate of c between
	// numin and numax [erg/s] at the cell's current electron
	// temperature, excluding the Compton and dielectronic channels.
	TotalEmission(c *Cell, numin, numax float64) float64

	// AugerIonization applies inner-shell (Auger) ionization to c.
	// It runs after the main abundance update on the assumption that
	// it perturbs only minor ions.
	AugerIonization(c *Cell) error
}
