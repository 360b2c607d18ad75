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
	"sort"
)

// VeryBig is the upper limit of physically meaningful values; quantities
// beyond it are treated as unusable.
const VeryBig = 1e50

// Cell holds the radiation-field estimators and thermal state of a single
// plasma cell. A Cell is owned by the domain that created it and is mutated
// only by the per-cell ionization update for that cell.
type Cell struct {
	TE float64 `desc:"Electron temperature" units:"K"`
	TR float64 `desc:"Radiation temperature" units:"K"`

	TEOld float64 `desc:"Electron temperature at previous update" units:"K"`
	TROld float64 `desc:"Radiation temperature at previous update" units:"K"`

	DTE    float64 `desc:"Most recent electron temperature step" units:"K"`
	DTEOld float64 `desc:"Previous electron temperature step" units:"K"`

	Gain float64 `desc:"Relaxation factor applied to temperature updates" units:"fraction"`

	HeatTot   float64 `desc:"Total heating rate" units:"erg/s"`
	HeatLines float64 `desc:"Line (bound-bound) heating rate" units:"erg/s"`
	HeatPhoto float64 `desc:"Photoionization (bound-free) heating rate" units:"erg/s"`

	// Macro-atom contributions included in the heating rates above.
	// They depend on the electron temperature and are re-evaluated
	// whenever a trial temperature is tested.
	HeatLinesMacro float64 `desc:"Macro-atom bound-bound heating" units:"erg/s"`
	HeatPhotoMacro float64 `desc:"Macro-atom bound-free heating" units:"erg/s"`

	LumRad       float64 `desc:"Radiative cooling rate" units:"erg/s"`
	LumRadOld    float64 `desc:"Radiative cooling rate at previous update" units:"erg/s"`
	LumAdiabatic float64 `desc:"Adiabatic cooling rate" units:"erg/s"`
	LumDR        float64 `desc:"Dielectronic recombination cooling rate" units:"erg/s"`
	LumComp      float64 `desc:"Compton cooling rate" units:"erg/s"`

	J       float64 `desc:"Frequency-integrated mean intensity" units:"erg/s/cm2"`
	AveFreq float64 `desc:"Mean photon frequency" units:"Hz"`

	// Per-band Monte Carlo estimators, indexed by band.
	XJ       []float64 `desc:"Band-limited mean intensity" units:"erg/s/cm2"`
	XAveFreq []float64 `desc:"Band-limited mean photon frequency" units:"Hz"`
	NXTot    []int     `desc:"Photons contributing to each band estimator"`

	SimAlpha []float64 `desc:"Fitted power-law slope per band"`
	SimW     []float64 `desc:"Fitted power-law weight per band"`

	NE float64 `desc:"Electron density" units:"1/cm3"`

	Density []float64 `desc:"Ion number densities" units:"1/cm3"`
	Ioniz   []float64 `desc:"Ionization rates" units:"1/s"`
	Recomb  []float64 `desc:"Recombination rates" units:"1/s"`

	ConvergeTR float64 `desc:"Normalized radiation temperature residual"`
	ConvergeTE float64 `desc:"Normalized electron temperature residual"`
	ConvergeHC float64 `desc:"Normalized heating-cooling residual"`

	// 0 means the criterion was met at the last convergence check.
	TRCheck int
	TECheck int
	HCCheck int

	ConvergeWhole int `desc:"Sum of the three convergence checks; 0 when converged"`
	Converging    int `desc:"1 when the temperature is oscillating with growing amplitude"`

	NPlasma int `desc:"Index of this cell in the plasma cell array"`
	NWind   int `desc:"Index of the corresponding wind cell"`

	Volume float64 `desc:"Cell volume" units:"cm3"`
}

// NewCell allocates a cell with nions ion slots and per-band estimator
// arrays matching the band table. The relaxation gain starts at the
// upper bound and adapts downward if the cell oscillates.
func NewCell(nplasma, nions int, bands *BandTable) *Cell {
	nb := bands.NBands()
	return &Cell{
		Gain:     gainMax,
		NPlasma:  nplasma,
		NWind:    nplasma,
		XJ:       make([]float64, nb),
		XAveFreq: make([]float64, nb),
		NXTot:    make([]int, nb),
		SimAlpha: make([]float64, nb),
		SimW:     make([]float64, nb),
		Density:  make([]float64, nions),
		Ioniz:    make([]float64, nions),
		Recomb:   make([]float64, nions),
	}
}

// shiftHistory records the current thermal state as the previous state
// before an update step. The temperature step must be computed before
// TEOld is overwritten.
func (c *Cell) shiftHistory() {
	c.DTEOld = c.DTE
	c.DTE = c.TE - c.TEOld
	c.TEOld = c.TE
	c.TROld = c.TR
	c.LumRadOld = c.LumRad
}

// BandTable is an ordered list of frequency band edges. A table with
// edges f[0] < f[1] < ... < f[B] defines B bands; band b covers
// [f[b], f[b+1]). The table is immutable after creation.
type BandTable struct {
	F []float64 // band edges [Hz]
}

// NewBandTable creates a band table from the given edges, which must be
// positive and strictly increasing.
func NewBandTable(edges []float64) (*BandTable, error) {
	if len(edges) < 2 {
		return nil, fmt.Errorf("ionmc: band table needs at least 2 edges, got %d", len(edges))
	}
	if edges[0] <= 0 {
		return nil, fmt.Errorf("ionmc: band edges must be positive, got %g", edges[0])
	}
	if !sort.Float64sAreSorted(edges) {
		return nil, fmt.Errorf("ionmc: band edges must be sorted: %v", edges)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] == edges[i-1] {
			return nil, fmt.Errorf("ionmc: duplicate band edge %g", edges[i])
		}
	}
	f := make([]float64, len(edges))
	copy(f, edges)
	return &BandTable{F: f}, nil
}

// NBands returns the number of bands in the table.
func (b *BandTable) NBands() int { return len(b.F) - 1 }

// Edges returns the lower and upper edge of band i.
func (b *BandTable) Edges(i int) (numin, numax float64) {
	return b.F[i], b.F[i+1]
}

// Coarse returns the edges of the single coarse band covering the whole
// table.
func (b *BandTable) Coarse() (numin, numax float64) {
	return b.F[0], b.F[len(b.F)-1]
}

// SaneCheck reports whether x is non-finite or otherwise unusable.
func SaneCheck(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}
