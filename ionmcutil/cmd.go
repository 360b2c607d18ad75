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

// Package ionmcutil holds the configuration surface and commands of the
// ionmc program.
package ionmcutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spectralmodel/ionmc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to IonMC.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ncells",
			usage: `
              ncells specifies the number of plasma cells in the model
              domain.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "nions",
			usage: `
              nions specifies the number of ion species tracked per
              cell.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "mode",
			usage: `
              mode specifies the ionization mode: 0 on-the-spot,
              1 LTE(t_r), 2 fixed concentrations, 3 damped on-the-spot,
              4 LTE(t_r) with power-law correction, 5 damped power-law.`,
			shorthand:  "m",
			defaultVal: int(ionmc.ModeDampedPL),
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "auger",
			usage: `
              auger specifies whether inner-shell (Auger) ionization is
              applied after each abundance update.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "maxcycles",
			usage: `
              maxcycles bounds the number of update cycles. Zero or
              negative means run until every cell converges.`,
			defaultVal: 30,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "bands",
			usage: `
              bands specifies the frequency band edges [Hz], ordered
              and increasing.`,
			defaultVal: []string{"1.0e14", "1.0e15", "1.0e16", "1.0e17"},
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "bandfile",
			usage: `
              bandfile specifies a TOML file holding the frequency band
              table; it overrides the bands option.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "initte",
			usage: `
              initte specifies the initial electron temperature [K] of
              every cell.`,
			defaultVal: 2.0e4,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "inittr",
			usage: `
              inittr specifies the initial radiation temperature [K] of
              every cell.`,
			defaultVal: 1.0e4,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "heating",
			usage: `
              heating specifies the total heating rate [erg/s]
              deposited in every cell.`,
			defaultVal: 1.0e4,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "lineargas.coolingrate",
			usage: `
              lineargas.coolingrate is the radiative cooling per unit
              temperature [erg/s/K] of the linear mechanism.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "lineargas.adiabaticrate",
			usage: `
              lineargas.adiabaticrate is the adiabatic cooling per unit
              temperature [erg/s/K].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "lineargas.drrate",
			usage: `
              lineargas.drrate is the dielectronic recombination
              cooling per unit temperature [erg/s/K].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "lineargas.comptonrate",
			usage: `
              lineargas.comptonrate is the Compton cooling per unit
              temperature [erg/s/K].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "lineargas.ne",
			usage: `
              lineargas.ne is the electron density [1/cm3] reported by
              the linear mechanism.`,
			defaultVal: 1.0e5,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "lineargas.ionizationscale",
			usage: `
              lineargas.ionizationscale is the temperature scale [K] of
              the Boltzmann ion ladder.`,
			defaultVal: 1.0e4,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "ranks",
			usage: `
              ranks specifies the total number of ranks participating
              in the simulation, including this one.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "rank",
			usage: `
              rank specifies this worker's rank, in [1, ranks).`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{workerCmd.Flags()},
		},
		{
			name: "rootaddr",
			usage: `
              rootaddr specifies the address of rank 0 for collective
              communication.`,
			defaultVal: "localhost",
			flagsets:   []*pflag.FlagSet{workerCmd.Flags()},
		},
		{
			name: "rpcport",
			usage: `
              rpcport specifies the port to be used for RPC
              communication between ranks.`,
			defaultVal: "6061",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
		{
			name: "nspectra",
			usage: `
              nspectra specifies the number of ray-traced spectra to
              accumulate and average across ranks each cycle.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), workerCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("IONMC")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(workerCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("ionmc: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ionmc",
	Short: "A Monte Carlo plasma ionization and thermal balance model.",
	Long: `IonMC updates the ionization state and electron temperature of a
plasma discretized into cells, driven by Monte Carlo radiation field
estimators, until every cell reaches thermal and ionization balance.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'IONMC_var'
where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of IonMC.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("IonMC v%s\n", ionmc.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation as rank 0.",
	Long: `run performs the ionization and thermal balance calculation. When
ranks > 1 it acts as rank 0 of the group and serves the collective that the
workers dial.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := checkConfig(Cfg)
		if err != nil {
			return err
		}
		cfg.Rank = 0
		return Run(cfg)
	},
	DisableAutoGenTag: true,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run as a non-root rank of a distributed simulation.",
	Long: `worker joins a running simulation as the configured rank, dialing
rank 0 at rootaddr for collective communication.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := checkConfig(Cfg)
		if err != nil {
			return err
		}
		return Run(cfg)
	},
	DisableAutoGenTag: true,
}
