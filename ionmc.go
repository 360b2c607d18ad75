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

// Package ionmc models the ionization state and thermal balance of an
// astrophysical plasma discretized into cells. Monte Carlo radiation
// field estimators deposited into each cell drive a nested root-finding
// and damped fixed-point iteration that updates electron temperatures,
// ion abundances and spectral-model parameters until each cell
// converges. Spectral estimators can be averaged across a group of
// distributed ranks between cycles.
package ionmc

import (
	"fmt"
	"io"
	"time"

	"github.com/spectralmodel/ionmc/parallel"
)

// Version gives the version number.
const Version = "0.9.0"

// IonMC holds the current state of the model.
type IonMC struct {
	// InitFuncs are functions to be called in the given order at the
	// beginning of the simulation.
	InitFuncs []DomainManipulator

	// RunFuncs are functions to be called in the given order each
	// cycle of the simulation. They are run until Done is true.
	RunFuncs []DomainManipulator

	// CleanupFuncs are functions to be run after the simulation has
	// completed.
	CleanupFuncs []DomainManipulator

	// Done specifies whether the simulation is finished.
	Done bool

	// Cycle is the number of completed simulation cycles.
	Cycle int

	// Bands is the frequency band table shared by all cells.
	Bands *BandTable

	// Spectra are the cycle spectral accumulators, if any.
	Spectra *SpectrumSet

	cells []*Cell
	group parallel.Group
}

// DomainManipulator is a class of functions that operate on the entire
// model domain.
type DomainManipulator func(d *IonMC) error

// CellManipulator is a class of functions that operate on a single cell.
type CellManipulator func(c *Cell)

// Init initializes the simulation by running the InitFuncs.
func (d *IonMC) Init() error {
	if d.group == nil {
		d.group = parallel.Serial{}
	}
	for _, f := range d.InitFuncs {
		if err := f(d); err != nil {
			return fmt.Errorf("ionmc: initializing: %v", err)
		}
	}
	return nil
}

// Run runs the simulation by running the RunFuncs until Done is true.
func (d *IonMC) Run() error {
	for !d.Done {
		d.Cycle++
		for _, f := range d.RunFuncs {
			if err := f(d); err != nil {
				return fmt.Errorf("ionmc: cycle %d: %v", d.Cycle, err)
			}
		}
	}
	return nil
}

// Cleanup finishes the simulation by running the CleanupFuncs.
func (d *IonMC) Cleanup() error {
	for _, f := range d.CleanupFuncs {
		if err := f(d); err != nil {
			return fmt.Errorf("ionmc: cleaning up: %v", err)
		}
	}
	return nil
}

// Cells returns all cells in the domain.
func (d *IonMC) Cells() []*Cell { return d.cells }

// Group returns the rank group the domain is attached to.
func (d *IonMC) Group() parallel.Group { return d.group }

// OwnRange returns the half-open interval of cell indices this rank is
// responsible for updating.
func (d *IonMC) OwnRange() (lo, hi int) {
	return parallel.Range(d.group.Rank(), len(d.cells), d.group.Size())
}

// NewDomain returns a function that creates ncells cells with nions ion
// slots each and seeds their state with seed, which may be nil.
func NewDomain(ncells, nions int, bands *BandTable, seed CellManipulator) DomainManipulator {
	return func(d *IonMC) error {
		if bands == nil {
			return fmt.Errorf("ionmc: a band table is required")
		}
		d.Bands = bands
		d.cells = make([]*Cell, ncells)
		for i := range d.cells {
			c := NewCell(i, nions, bands)
			if seed != nil {
				seed(c)
			}
			d.cells[i] = c
		}
		return nil
	}
}

// AttachGroup returns a function that attaches the domain to a rank
// group. Cell updates are then restricted to this rank's partition and
// spectral gathers become collective.
func AttachGroup(g parallel.Group) DomainManipulator {
	return func(d *IonMC) error {
		d.group = g
		return nil
	}
}

// AttachSpectra returns a function that allocates cycle spectral
// accumulators for nspec spectra of nwave bins.
func AttachSpectra(nspec, nwave int) DomainManipulator {
	return func(d *IonMC) error {
		d.Spectra = NewSpectrumSet(nspec, nwave)
		return nil
	}
}

// UpdateIonization returns a function that runs the per-cell ionization
// and thermal balance update, in partition order, on the cells this
// rank owns. Cells whose abundance iteration does not converge are
// counted but not treated as errors; an error from the update itself
// stops the simulation.
func UpdateIonization(mech Mechanism, mode Mode, auger bool) DomainManipulator {
	return func(d *IonMC) error {
		lo, hi := d.OwnRange()
		for i := lo; i < hi; i++ {
			if _, err := IonAbundances(mech, d.cells[i], mode, d.Bands, auger); err != nil {
				return err
			}
		}
		return nil
	}
}

// GatherSpectra returns a function that averages the cycle spectral
// accumulators across the rank group.
func GatherSpectra() DomainManipulator {
	return func(d *IonMC) error {
		if d.Spectra == nil {
			return nil
		}
		return d.Spectra.Gather(d.group)
	}
}

// ConvergenceCheck returns a function that checks whether the
// simulation is finished and sets the Done flag if it is. The
// simulation is finished when every cell this rank owns meets all three
// convergence criteria, or, if maxCycles > 0, after that many cycles
// have completed. Cells owned by other ranks are never updated locally,
// so they are excluded from the scan. If c is not nil, the convergence
// summary of each cycle is sent to it.
func ConvergenceCheck(maxCycles int, c chan *ConvergenceStatus) DomainManipulator {
	return func(d *IonMC) error {
		lo, hi := d.OwnRange()
		status := CheckConvergence(d.cells[lo:hi])
		if c != nil {
			c <- status
		}
		if status.NConverged == status.NTotal {
			d.Done = true
		}
		if maxCycles > 0 && d.Cycle >= maxCycles {
			d.Done = true
		}
		return nil
	}
}

// Log returns a function that writes simulation status messages,
// including the per-cycle convergence summary of the cells this rank
// owns, to w.
func Log(w io.Writer) DomainManipulator {
	startTime := time.Now()
	cycleTime := time.Now()

	return func(d *IonMC) error {
		lo, hi := d.OwnRange()
		fmt.Fprintf(w, "Cycle %-4d  walltime=%6.3gh  Δwalltime=%4.2gs  %v\n",
			d.Cycle, time.Since(startTime).Hours(),
			time.Since(cycleTime).Seconds(), CheckConvergence(d.cells[lo:hi]))
		cycleTime = time.Now()
		return nil
	}
}
