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

package parallel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Group is a flat group of ranks supporting the two collectives the
// estimator exchange is built from: a sum-reduction to rank 0 and a
// broadcast from rank 0. Both are barriers: every rank of the group
// must enter each call, in the same order relative to its other
// collective calls.
type Group interface {
	// Rank returns this member's rank, in [0, Size).
	Rank() int
	// Size returns the number of ranks in the group.
	Size() int
	// ReduceSum element-wise sums send across all ranks into recv on
	// rank 0. recv is ignored on other ranks. len(recv) must equal
	// len(send) on rank 0, and len(send) must match across ranks.
	ReduceSum(send, recv []float64) error
	// Bcast replaces buf on every rank with rank 0's buf.
	Bcast(buf []float64) error
}

// Serial is the trivial group with a single rank. Collectives degrade
// to copies.
type Serial struct{}

// Rank returns 0.
func (Serial) Rank() int { return 0 }

// Size returns 1.
func (Serial) Size() int { return 1 }

// ReduceSum copies send into recv.
func (Serial) ReduceSum(send, recv []float64) error {
	if len(send) != len(recv) {
		return fmt.Errorf("parallel: reduce buffer length mismatch: %d != %d", len(send), len(recv))
	}
	copy(recv, send)
	return nil
}

// Bcast does nothing.
func (Serial) Bcast(buf []float64) error { return nil }

// LocalHub connects a group of ranks running as goroutines within one
// process. It exists so that multi-rank behavior can be exercised in
// tests without spawning processes.
type LocalHub struct {
	size     int
	reduceCh chan []float64
	bcastChs []chan []float64
}

// NewLocalHub creates a hub for a group of size ranks.
func NewLocalHub(size int) *LocalHub {
	h := &LocalHub{
		size:     size,
		reduceCh: make(chan []float64, size),
		bcastChs: make([]chan []float64, size),
	}
	for i := range h.bcastChs {
		h.bcastChs[i] = make(chan []float64, 1)
	}
	return h
}

// Member returns the group endpoint for the given rank. Each rank must
// run on its own goroutine.
func (h *LocalHub) Member(rank int) Group {
	return &localMember{hub: h, rank: rank}
}

type localMember struct {
	hub  *LocalHub
	rank int
}

func (m *localMember) Rank() int { return m.rank }
func (m *localMember) Size() int { return m.hub.size }

func (m *localMember) ReduceSum(send, recv []float64) error {
	if m.rank != 0 {
		// Hand a copy to rank 0; the caller may reuse send.
		buf := make([]float64, len(send))
		copy(buf, send)
		m.hub.reduceCh <- buf
		return nil
	}
	if len(recv) != len(send) {
		return fmt.Errorf("parallel: reduce buffer length mismatch: %d != %d", len(send), len(recv))
	}
	copy(recv, send)
	for i := 1; i < m.hub.size; i++ {
		buf := <-m.hub.reduceCh
		if len(buf) != len(recv) {
			return fmt.Errorf("parallel: reduce buffer length mismatch between ranks: %d != %d",
				len(buf), len(recv))
		}
		floats.Add(recv, buf)
	}
	return nil
}

func (m *localMember) Bcast(buf []float64) error {
	if m.rank == 0 {
		for i := 1; i < m.hub.size; i++ {
			out := make([]float64, len(buf))
			copy(out, buf)
			m.hub.bcastChs[i] <- out
		}
		return nil
	}
	in := <-m.hub.bcastChs[m.rank]
	if len(in) != len(buf) {
		return fmt.Errorf("parallel: broadcast buffer length mismatch: %d != %d", len(in), len(buf))
	}
	copy(buf, in)
	return nil
}
