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
	"log"
)

// minTR is the radiation temperature [K] below which the radiation
// field is considered unphysical and the update aborts.
const minTR = 10.

// Mode selects the ionization closure and whether the electron
// temperature is updated during an abundance calculation. The numeric
// values match the historical mode numbers used in configuration files.
type Mode int

const (
	// ModeOnTheSpot recomputes abundances with the on-the-spot
	// closure at the existing temperatures. It makes no attempt to
	// match heating and cooling.
	ModeOnTheSpot Mode = 0
	// ModeLTEtr sets LTE abundances from the radiation temperature.
	ModeLTEtr Mode = 1
	// ModeFixed uses a hardwired abundance table.
	ModeFixed Mode = 2
	// ModeDampedOTS performs a damped electron temperature update
	// followed by an on-the-spot abundance calculation.
	ModeDampedOTS Mode = 3
	// ModeLTEtrPL sets LTE abundances corrected by previously seeded
	// power-law spectral parameters.
	ModeLTEtrPL Mode = 4
	// ModeDampedPL fits the per-band power-law spectral model, then
	// performs a damped temperature update and abundance calculation
	// driven by the fitted radiation field.
	ModeDampedPL Mode = 5
)

func (m Mode) String() string {
	switch m {
	case ModeOnTheSpot:
		return "on-the-spot"
	case ModeLTEtr:
		return "LTE(t_r)"
	case ModeFixed:
		return "fixed"
	case ModeDampedOTS:
		return "damped on-the-spot"
	case ModeLTEtrPL:
		return "LTE(t_r)+power-law"
	case ModeDampedPL:
		return "damped power-law"
	}
	return fmt.Sprintf("unknown mode %d", int(m))
}

// ParseMode converts a configured integer to a Mode.
func ParseMode(i int) (Mode, error) {
	m := Mode(i)
	switch m {
	case ModeOnTheSpot, ModeLTEtr, ModeFixed, ModeDampedOTS, ModeLTEtrPL, ModeDampedPL:
		return m, nil
	}
	return 0, fmt.Errorf("ionmc: invalid ionization mode %d", i)
}

// oneShot updates the electron temperature of c toward thermal balance
// with a damped step, then recomputes the ion abundances at the new
// temperature. The returned bool reports whether the abundance routine
// converged; a non-nil error is fatal.
func oneShot(mech Mechanism, c *Cell, mode Mode) (bool, error) {
	gain := c.Gain
	teOld := c.TE
	teNew := solveTemperature(mech, c, teBracketLo*teOld, teBracketHi*teOld)

	c.TE = (1-gain)*teOld + gain*teNew

	// The driving modes are not identical to the concentration
	// closures; translate.
	sub := ConcUpdate(mode)
	if mode == ModeDampedOTS {
		sub = ConcOnTheSpot
	} else if mode <= ModeLTEtr || mode > ModeDampedPL {
		return false, fmt.Errorf("ionmc: one shot cannot process mode %d", mode)
	}

	if c.TR <= minTR {
		return false, fmt.Errorf("ionmc: cell %d: radiation temperature %g K is unphysically small",
			c.NPlasma, c.TR)
	}

	converged := true
	if err := mech.NebularConcentrations(c, sub); err != nil {
		converged = false
		log.Printf("ionmc: cell %d: nebular concentrations failed to converge: %v", c.NPlasma, err)
		log.Printf("ionmc: cell %d: j %8.2e t_e %8.2e t_r %8.2e", c.NPlasma, c.J, c.TE, c.TR)
	}
	if c.NE < 0 || VeryBig < c.NE {
		log.Printf("ionmc: cell %d: ne = %8.2e out of range", c.NPlasma, c.NE)
	}
	return converged, nil
}

// IonAbundances is the steering routine for all per-cell abundance
// calculations. It dispatches on mode, maintains the cell's thermal
// history, and runs the convergence check for the damped modes. The
// returned bool reports whether the abundance routine converged; a
// non-nil error means the update could not be performed at all and the
// caller should treat it as fatal.
//
// If auger is set, inner-shell ionization is applied last, on the
// assumption that it only makes minor ions and does not disturb the
// overall balance.
func IonAbundances(mech Mechanism, c *Cell, mode Mode, bands *BandTable, auger bool) (bool, error) {
	converged := true
	switch mode {
	case ModeOnTheSpot:
		if err := mech.NebularConcentrations(c, ConcOnTheSpot); err != nil {
			converged = false
			log.Printf("ionmc: cell %d: nebular concentrations failed to converge: %v", c.NPlasma, err)
			log.Printf("ionmc: cell %d: j %8.2e t_e %8.2e t_r %8.2e", c.NPlasma, c.J, c.TE, c.TR)
		}

	case ModeLTEtr:
		if err := mech.NebularConcentrations(c, ConcLTE); err != nil {
			converged = false
			log.Printf("ionmc: cell %d: LTE concentrations failed to converge: %v", c.NPlasma, err)
		}

	case ModeFixed:
		if err := mech.FixConcentrations(c); err != nil {
			return false, fmt.Errorf("ionmc: cell %d: fixed concentrations: %v", c.NPlasma, err)
		}

	case ModeDampedOTS:
		c.shiftHistory()
		var err error
		if converged, err = oneShot(mech, c, mode); err != nil {
			return false, err
		}
		Convergence(c)

	case ModeLTEtrPL:
		if err := mech.NebularConcentrations(c, ConcPowerLaw); err != nil {
			converged = false
			log.Printf("ionmc: cell %d: power-law corrected concentrations failed to converge: %v",
				c.NPlasma, err)
		}

	case ModeDampedPL:
		// Fit first: the damped step below must see the radiation
		// field of the cycle that just finished. The history shift
		// happens after the fit but before the one-shot update so
		// that DTE reflects the step the solver is about to take.
		bands.FitPowerLaws(c)
		c.shiftHistory()
		var err error
		if converged, err = oneShot(mech, c, mode); err != nil {
			return false, err
		}
		Convergence(c)

	default:
		return false, fmt.Errorf("ionmc: could not calculate abundances for mode %d", mode)
	}

	if auger {
		if err := mech.AugerIonization(c); err != nil {
			log.Printf("ionmc: cell %d: auger ionization: %v", c.NPlasma, err)
		}
	}

	return converged, nil
}
