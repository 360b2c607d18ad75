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
	"sync"
	"testing"

	"github.com/spectralmodel/ionmc/parallel"
)

func TestSpectrumSetPackLayout(t *testing.T) {
	s := NewSpectrumSet(2, 3)
	s.F[1][2] = 7      // quantity 0, bin 2, spectrum 1
	s.LF[0][1] = 11    // quantity 1, bin 1, spectrum 0
	s.FWind[1][0] = 13 // quantity 2, bin 0, spectrum 1
	s.LFWind[0][0] = 17

	buf := s.pack()
	if len(buf) != 4*2*3 {
		t.Fatalf("len = %d, want 24", len(buf))
	}
	// buf[k·nspec·nwave + i·nspec + j]
	if buf[0*6+2*2+1] != 7 {
		t.Errorf("F[1][2] packed at %g", buf[0*6+2*2+1])
	}
	if buf[1*6+1*2+0] != 11 {
		t.Errorf("LF[0][1] packed at %g", buf[1*6+1*2+0])
	}
	if buf[2*6+0*2+1] != 13 {
		t.Errorf("FWind[1][0] packed at %g", buf[2*6+0*2+1])
	}
	if buf[3*6+0*2+0] != 17 {
		t.Errorf("LFWind[0][0] packed at %g", buf[3*6+0*2+0])
	}

	s2 := NewSpectrumSet(2, 3)
	s2.unpack(buf)
	if s2.F[1][2] != 7 || s2.LF[0][1] != 11 || s2.FWind[1][0] != 13 || s2.LFWind[0][0] != 17 {
		t.Error("unpack does not invert pack")
	}
}

func TestGatherSerial(t *testing.T) {
	// A single-rank gather must leave the accumulators untouched.
	s := NewSpectrumSet(2, 4)
	for i := 0; i < s.NWave; i++ {
		s.F[0][i] = float64(i)
		s.LFWind[1][i] = float64(2 * i)
	}
	if err := s.Gather(parallel.Serial{}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < s.NWave; i++ {
		if s.F[0][i] != float64(i) || s.LFWind[1][i] != float64(2*i) {
			t.Fatalf("bin %d changed: %g %g", i, s.F[0][i], s.LFWind[1][i])
		}
	}
}

func TestGatherAverages(t *testing.T) {
	// Each rank contributes a different constant; every rank must end up
	// with the across-rank average in every bin.
	const size = 3
	hub := parallel.NewLocalHub(size)
	sets := make([]*SpectrumSet, size)
	var wg sync.WaitGroup
	errs := make([]error, size)
	for rank := 0; rank < size; rank++ {
		s := NewSpectrumSet(2, 5)
		for i := 0; i < s.NWave; i++ {
			s.F[0][i] = float64(3 * (rank + 1)) // averages to 6
			s.FWind[1][i] = float64(3 * rank)   // averages to 3
		}
		sets[rank] = s
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			errs[rank] = sets[rank].Gather(hub.Member(rank))
		}(rank)
	}
	wg.Wait()
	for rank, err := range errs {
		if err != nil {
			t.Fatalf("rank %d: %v", rank, err)
		}
	}

	for rank, s := range sets {
		for i := 0; i < s.NWave; i++ {
			if different(s.F[0][i], 6, 1e-12) {
				t.Fatalf("rank %d bin %d: F = %g, want 6", rank, i, s.F[0][i])
			}
			if different(s.FWind[1][i], 3, 1e-12) {
				t.Fatalf("rank %d bin %d: FWind = %g, want 3", rank, i, s.FWind[1][i])
			}
			if s.LF[0][i] != 0 || s.LFWind[0][i] != 0 {
				t.Fatalf("rank %d bin %d: untouched quantities are nonzero", rank, i)
			}
		}
	}
}

func TestGatherIdempotent(t *testing.T) {
	// Gathering a second time with every rank holding the already
	// averaged result must change nothing: the average of identical
	// inputs is the input.
	const size = 3
	hub := parallel.NewLocalHub(size)
	sets := make([]*SpectrumSet, size)
	snapshots := make([][]float64, size)
	var wg sync.WaitGroup
	errs := make([]error, size)
	for rank := 0; rank < size; rank++ {
		s := NewSpectrumSet(2, 5)
		for i := 0; i < s.NWave; i++ {
			s.F[0][i] = float64(3 * (rank + 1))
			s.FWind[1][i] = float64(3 * rank)
		}
		sets[rank] = s
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			g := hub.Member(rank)
			if errs[rank] = sets[rank].Gather(g); errs[rank] != nil {
				return
			}
			snapshots[rank] = sets[rank].pack()
			errs[rank] = sets[rank].Gather(g)
		}(rank)
	}
	wg.Wait()
	for rank, err := range errs {
		if err != nil {
			t.Fatalf("rank %d: %v", rank, err)
		}
	}

	for rank, s := range sets {
		after := s.pack()
		for i := range after {
			if after[i] != snapshots[rank][i] {
				t.Fatalf("rank %d: element %d changed from %g to %g on the second exchange",
					rank, i, snapshots[rank][i], after[i])
			}
		}
	}
}

func TestNewSpectrumSetDefaults(t *testing.T) {
	s := NewSpectrumSet(1, 0)
	if s.NWave != NWaveMax {
		t.Errorf("NWave = %d, want %d", s.NWave, NWaveMax)
	}
	if len(s.F) != 1 || len(s.F[0]) != NWaveMax {
		t.Errorf("allocation %d×%d", len(s.F), len(s.F[0]))
	}
}
