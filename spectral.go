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
	"log"
	"math"
)

const (
	// alphaTolerance is the tolerance of the spectral slope root solve.
	alphaTolerance = 1e-5

	// Fitted slopes are clamped to [alphaMin, alphaMax] to stop an
	// underpopulated band from producing a runaway normalization.
	// Legacy results depend on these exact bounds.
	alphaMin = -3.0
	alphaMax = 3.0

	// The slope bracket starts at ±alphaBracketSeed around the current
	// estimate and widens by alphaBracketStep on each side until it
	// straddles the solution. Unit steps are a compromise between
	// search time and divergence protection: after many Monte Carlo
	// cycles the bracket can legitimately need to be several units
	// wide.
	alphaBracketSeed = 0.1
	alphaBracketStep = 1.0

	// maxBracketWiden bounds the widening search; a band that cannot
	// be bracketed within it keeps its previous fit.
	maxBracketWiden = 100
)

// powerLawMeanFreq returns the analytic mean frequency of a power-law
// spectrum with slope alpha truncated to [numin, numax].
func powerLawMeanFreq(alpha, numin, numax float64) float64 {
	return (alpha + 1) / (alpha + 2) *
		(math.Pow(numax, alpha+2) - math.Pow(numin, alpha+2)) /
		(math.Pow(numax, alpha+1) - math.Pow(numin, alpha+1))
}

// powerLawWeight returns the weight W normalizing a truncated power law
// with slope alpha to the band-integrated mean intensity j, such that
// the integral of W·ν^alpha over [numin, numax] equals 4π·j.
func powerLawWeight(j, alpha, numin, numax float64) float64 {
	if math.Abs(alpha+1) < 1e-8 {
		// ∫ν^-1 dν degenerates to a logarithm.
		return 4 * math.Pi * j / math.Log(numax/numin)
	}
	return 4 * math.Pi * j * (alpha + 1) /
		(math.Pow(numax, alpha+1) - math.Pow(numin, alpha+1))
}

// FitPowerLaws fits a power-law slope and weight to the Monte Carlo
// band estimators of c, one band at a time, writing the results to
// c.SimAlpha and c.SimW. A band whose fit produces non-finite values
// keeps its previous parameters. A band with no photon statistics
// contributes nothing to the ionization balance: its weight is zeroed
// and its slope is left untouched.
func (b *BandTable) FitPowerLaws(c *Cell) {
	warned := false
	for nb := 0; nb < b.NBands(); nb++ {
		if c.NXTot[nb] == 0 {
			if !warned {
				log.Printf("ionmc: cell %d: no photons in band %d for power-law estimators; zeroing weight",
					c.NPlasma, nb)
				warned = true
			}
			c.SimW[nb] = 0
			continue
		}

		numin, numax := b.Edges(nb)
		meanFreq := c.XAveFreq[nb]
		j := c.XJ[nb]

		g := func(alpha float64) float64 {
			return powerLawMeanFreq(alpha, numin, numax) - meanFreq
		}

		lo := c.SimAlpha[nb] - alphaBracketSeed
		hi := c.SimAlpha[nb] + alphaBracketSeed
		bracketed := false
		for i := 0; i < maxBracketWiden; i++ {
			if g(lo)*g(hi) <= 0 {
				bracketed = true
				break
			}
			lo -= alphaBracketStep
			hi += alphaBracketStep
		}
		if !bracketed {
			log.Printf("ionmc: cell %d band %d: could not bracket spectral slope near %g; keeping previous fit",
				c.NPlasma, nb, c.SimAlpha[nb])
			continue
		}

		alpha, err := FindRoot(g, lo, hi, alphaTolerance)
		if err != nil {
			log.Printf("ionmc: cell %d band %d: slope solve failed: %v; keeping previous fit",
				c.NPlasma, nb, err)
			continue
		}
		if alpha > alphaMax {
			alpha = alphaMax
		}
		if alpha < alphaMin {
			alpha = alphaMin
		}

		w := powerLawWeight(j, alpha, numin, numax)

		// Commit the pair only if both values are usable.
		if SaneCheck(alpha) || SaneCheck(w) {
			log.Printf("ionmc: cell %d band %d: new power-law parameters unreasonable (alpha=%g w=%g); keeping previous fit",
				c.NPlasma, nb, alpha, w)
			continue
		}
		c.SimAlpha[nb] = alpha
		c.SimW[nb] = w
	}
}
