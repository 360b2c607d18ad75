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

	"github.com/spectralmodel/ionmc/parallel"
	"gonum.org/v1/gonum/floats"
)

// NWaveMax is the number of wavelength bins in a spectral accumulator.
const NWaveMax = 10000

// SpectrumSet holds the ray-traced spectral accumulators for one
// simulation cycle: four parallel arrays per spectrum, for the linear
// and logarithmic binnings of the total and wind-only flux.
type SpectrumSet struct {
	NSpec int
	NWave int

	F      [][]float64 // linear, total
	LF     [][]float64 // logarithmic, total
	FWind  [][]float64 // linear, wind only
	LFWind [][]float64 // logarithmic, wind only
}

// NewSpectrumSet allocates accumulators for nspec spectra of nwave
// bins. If nwave <= 0, NWaveMax is used.
func NewSpectrumSet(nspec, nwave int) *SpectrumSet {
	if nwave <= 0 {
		nwave = NWaveMax
	}
	alloc := func() [][]float64 {
		a := make([][]float64, nspec)
		for i := range a {
			a[i] = make([]float64, nwave)
		}
		return a
	}
	return &SpectrumSet{
		NSpec:  nspec,
		NWave:  nwave,
		F:      alloc(),
		LF:     alloc(),
		FWind:  alloc(),
		LFWind: alloc(),
	}
}

// quantities lists the four accumulator arrays in exchange order.
func (s *SpectrumSet) quantities() [4][][]float64 {
	return [4][][]float64{s.F, s.LF, s.FWind, s.LFWind}
}

// pack serializes the set into a single contiguous buffer with layout
// buf[k·nspec·nwave + i·nspec + j] for quantity k, wavelength bin i,
// spectrum j.
func (s *SpectrumSet) pack() []float64 {
	buf := make([]float64, 4*s.NSpec*s.NWave)
	for k, q := range s.quantities() {
		off := k * s.NSpec * s.NWave
		for i := 0; i < s.NWave; i++ {
			for j := 0; j < s.NSpec; j++ {
				buf[off+i*s.NSpec+j] = q[j][i]
			}
		}
	}
	return buf
}

// unpack replaces the accumulator contents with those in buf.
func (s *SpectrumSet) unpack(buf []float64) {
	for k, q := range s.quantities() {
		off := k * s.NSpec * s.NWave
		for i := 0; i < s.NWave; i++ {
			for j := 0; j < s.NSpec; j++ {
				q[j][i] = buf[off+i*s.NSpec+j]
			}
		}
	}
}

// Gather averages the spectral accumulators across the ranks of group,
// leaving the identical averaged result on every rank. Every rank of
// the group must call Gather; the call is a barrier.
//
// Each rank's contribution is divided by the group size before the
// sum-reduction rather than after it, keeping the reduction numerically
// in range.
func (s *SpectrumSet) Gather(group parallel.Group) error {
	send := s.pack()
	floats.Scale(1/float64(group.Size()), send)

	recv := make([]float64, len(send))
	if err := group.ReduceSum(send, recv); err != nil {
		return fmt.Errorf("ionmc: gathering spectra: %v", err)
	}
	if err := group.Bcast(recv); err != nil {
		return fmt.Errorf("ionmc: broadcasting spectra: %v", err)
	}
	s.unpack(recv)
	return nil
}
