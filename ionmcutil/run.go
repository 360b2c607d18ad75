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

package ionmcutil

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spectralmodel/ionmc"
	"github.com/spectralmodel/ionmc/parallel"
)

// Run executes the simulation described by cfg. It is SPMD: rank 0 and
// the workers all call it, differing only in how they join the rank
// group.
func Run(cfg *RunConfig) error {
	log := logrus.StandardLogger()

	var group parallel.Group = parallel.Serial{}
	if cfg.Ranks > 1 {
		if cfg.Rank == 0 {
			g, err := parallel.NewRPCRoot(cfg.Ranks, cfg.RPCPort)
			if err != nil {
				return err
			}
			group = g
			log.Infof("serving collective for %d ranks on port %s", cfg.Ranks, cfg.RPCPort)
		} else {
			g, err := parallel.DialRPCGroup(cfg.Rank, cfg.Ranks, cfg.RootAddr, cfg.RPCPort)
			if err != nil {
				return err
			}
			defer g.Close()
			group = g
			log.Infof("rank %d of %d joined root at %s", cfg.Rank, cfg.Ranks, cfg.RootAddr)
		}
	}

	seed := func(c *ionmc.Cell) {
		c.TE = cfg.InitTE
		c.TR = cfg.InitTR
		c.TEOld = cfg.InitTE
		c.TROld = cfg.InitTR
		c.HeatTot = cfg.Heating
	}

	initFuncs := []ionmc.DomainManipulator{
		ionmc.AttachGroup(group),
		ionmc.NewDomain(cfg.NCells, cfg.NIons, cfg.Bands, seed),
	}
	runFuncs := []ionmc.DomainManipulator{
		ionmc.UpdateIonization(cfg.Mech, cfg.Mode, cfg.Auger),
		ionmc.ConvergenceCheck(cfg.MaxCycles, nil),
	}
	if cfg.NSpectra > 0 {
		initFuncs = append(initFuncs, ionmc.AttachSpectra(cfg.NSpectra, 0))
		runFuncs = append(runFuncs, ionmc.GatherSpectra())
	}
	if cfg.Rank == 0 {
		runFuncs = append(runFuncs, ionmc.Log(os.Stdout))
	}

	d := &ionmc.IonMC{
		InitFuncs: initFuncs,
		RunFuncs:  runFuncs,
	}

	log.WithFields(logrus.Fields{
		"cells": cfg.NCells,
		"mode":  cfg.Mode.String(),
		"bands": cfg.Bands.NBands(),
	}).Info("starting ionization calculation")

	if err := d.Init(); err != nil {
		return err
	}
	if err := d.Run(); err != nil {
		return err
	}
	if err := d.Cleanup(); err != nil {
		return err
	}

	lo, hi := d.OwnRange()
	status := ionmc.CheckConvergence(d.Cells()[lo:hi])
	log.Infof("finished after %d cycles: %v", d.Cycle, status)
	return nil
}
