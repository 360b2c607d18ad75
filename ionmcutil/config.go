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
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spectralmodel/ionmc"
	"github.com/spectralmodel/ionmc/physics/lineargas"
	"github.com/spf13/cast"
)

// RunConfig holds the fully parsed configuration of a simulation run.
type RunConfig struct {
	NCells int
	NIons  int

	Mode  ionmc.Mode
	Auger bool

	// MaxCycles bounds the number of update cycles; <= 0 means run to
	// convergence.
	MaxCycles int

	Bands *ionmc.BandTable

	// Initial cell state deposited by the (external) photon transport.
	InitTE  float64
	InitTR  float64
	Heating float64

	Mech *lineargas.Mechanism

	// Rank group configuration. Size 1 means a serial run.
	Ranks    int
	Rank     int
	RootAddr string
	RPCPort  string

	NSpectra int
}

// checkConfig extracts and validates a run configuration from cfg.
func checkConfig(cfg *viper.Viper) (*RunConfig, error) {
	mode, err := ionmc.ParseMode(cfg.GetInt("mode"))
	if err != nil {
		return nil, err
	}

	var bands *ionmc.BandTable
	if f := os.ExpandEnv(cfg.GetString("bandfile")); f != "" {
		if bands, err = loadBandFile(f); err != nil {
			return nil, err
		}
	} else {
		edges, err := toFloat64Slice(cfg.Get("bands"))
		if err != nil {
			return nil, fmt.Errorf("ionmcutil: parsing band edges: %v", err)
		}
		if bands, err = ionmc.NewBandTable(edges); err != nil {
			return nil, err
		}
	}

	c := &RunConfig{
		NCells:    cfg.GetInt("ncells"),
		NIons:     cfg.GetInt("nions"),
		Mode:      mode,
		Auger:     cfg.GetBool("auger"),
		MaxCycles: cfg.GetInt("maxcycles"),
		Bands:     bands,
		InitTE:    cfg.GetFloat64("initte"),
		InitTR:    cfg.GetFloat64("inittr"),
		Heating:   cfg.GetFloat64("heating"),
		Mech: &lineargas.Mechanism{
			CoolingRate:     cfg.GetFloat64("lineargas.coolingrate"),
			AdiabaticRate:   cfg.GetFloat64("lineargas.adiabaticrate"),
			DRRate:          cfg.GetFloat64("lineargas.drrate"),
			ComptonRate:     cfg.GetFloat64("lineargas.comptonrate"),
			NE:              cfg.GetFloat64("lineargas.ne"),
			IonizationScale: cfg.GetFloat64("lineargas.ionizationscale"),
		},
		Ranks:    cfg.GetInt("ranks"),
		Rank:     cfg.GetInt("rank"),
		RootAddr: os.ExpandEnv(cfg.GetString("rootaddr")),
		RPCPort:  cfg.GetString("rpcport"),
		NSpectra: cfg.GetInt("nspectra"),
	}
	if c.NCells <= 0 {
		return nil, fmt.Errorf("ionmcutil: ncells must be positive, got %d", c.NCells)
	}
	if c.InitTE <= 0 || c.InitTR <= 0 {
		return nil, fmt.Errorf("ionmcutil: initial temperatures must be positive, got t_e=%g t_r=%g",
			c.InitTE, c.InitTR)
	}
	if c.Ranks < 1 {
		c.Ranks = 1
	}
	return c, nil
}

// bandFile is the TOML representation of a frequency band table.
type bandFile struct {
	Edges []float64
}

// loadBandFile reads a band table from the TOML file at path.
func loadBandFile(path string) (*ionmc.BandTable, error) {
	b := new(bandFile)
	if _, err := toml.DecodeFile(path, b); err != nil {
		return nil, fmt.Errorf("ionmcutil: reading band file %s: %v", path, err)
	}
	return ionmc.NewBandTable(b.Edges)
}

// toFloat64Slice coerces a configuration value to []float64. Values may
// arrive as a typed slice from a configuration file, as strings from
// command-line flags, or as the "[a,b,c]" rendering of a string-slice
// flag.
func toFloat64Slice(s interface{}) ([]float64, error) {
	switch t := s.(type) {
	case []float64:
		return t, nil
	case string:
		parts := strings.Split(strings.Trim(t, "[]"), ",")
		o := make([]float64, len(parts))
		for i, v := range parts {
			var err error
			if o[i], err = cast.ToFloat64E(strings.TrimSpace(v)); err != nil {
				return nil, err
			}
		}
		return o, nil
	default:
		ss, err := cast.ToSliceE(s)
		if err != nil {
			ss2, err2 := cast.ToStringSliceE(s)
			if err2 != nil {
				return nil, err
			}
			o := make([]float64, len(ss2))
			for i, v := range ss2 {
				if o[i], err = cast.ToFloat64E(v); err != nil {
					return nil, err
				}
			}
			return o, nil
		}
		o := make([]float64, len(ss))
		for i, v := range ss {
			var err error
			if o[i], err = cast.ToFloat64E(v); err != nil {
				return nil, err
			}
		}
		return o, nil
	}
}
