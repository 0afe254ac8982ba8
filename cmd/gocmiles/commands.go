/*
 * commands.go, part of gocmiles.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	chem "github.com/rmera/gocmiles"
	"github.com/rmera/gocmiles/cache"
	"github.com/rmera/gocmiles/chemplot"
	"github.com/rmera/gocmiles/toolkit"
	"github.com/spf13/cobra"
)

//app holds what the flags and the configuration file set.
type app struct {
	configPath string
	verbose    bool
	backend    string
	out        string
	conf       *Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gocmiles",
		Short:         "Load molecules, generate conformers and handle atom maps",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), a.verbose)
			conf, err := loadConfig(a.configPath)
			if err != nil {
				return err
			}
			a.conf = conf
			if a.backend == "" {
				a.backend = string(conf.Backend)
			}
			slog.Debug("configuration loaded", "path", a.configPath, "backend", a.backend)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVarP(&a.backend, "backend", "b", "", "backend: openbabel or native (default: openbabel if installed)")
	root.PersistentFlags().StringVarP(&a.out, "out", "o", "", "output file (xyz, sdf or json, optionally .gz, .zst or .xz)")
	root.AddCommand(a.loadCmd(), a.conformersCmd(), a.mapCmd())
	return root
}

func (a *app) load(ctx context.Context, input string) (*chem.Molecule, error) {
	tk := a.conf.newToolkit()
	start := time.Now()
	mol, err := tk.Load(ctx, input, toolkit.Backend(a.backend))
	if err != nil {
		return nil, err
	}
	slog.Debug("molecule loaded", "input", input, "atoms", mol.Len(), "elapsed", time.Since(start))
	return mol, nil
}

//finish writes mol to the output file if one was given, and a summary to w otherwise.
func (a *app) finish(w io.Writer, mol *chem.Molecule) error {
	if a.out != "" {
		if err := chem.WriteFile(a.out, mol); err != nil {
			return err
		}
		slog.Info("molecule written", "file", a.out, "conformers", mol.NConformers())
		return nil
	}
	summary(w, mol)
	return nil
}

func summary(w io.Writer, mol *chem.Molecule) {
	if name, ok := mol.Prop("name"); ok && name != "" {
		fmt.Fprintf(w, "name: %s\n", name)
	}
	fmt.Fprintf(w, "atoms: %d\nbonds: %d\ncharge: %d\nmultiplicity: %d\nconformers: %d\nmapped: %t\n",
		mol.Len(), mol.NBonds(), mol.Charge(), mol.Multi(), mol.NConformers(), chem.IsMapped(mol.Topology))
	for i := range mol.Energies {
		if e, ok := mol.Energy(i); ok {
			fmt.Fprintf(w, "energy %d: %.4f\n", i, e)
		}
	}
}

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <smiles|file>",
		Short: "Load a molecule and print a summary or write it to --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mol, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.finish(cmd.OutOrStdout(), mol)
		},
	}
}

func (a *app) conformersCmd() *cobra.Command {
	var (
		maxConfs     int
		ewindow      float64
		rms          float64
		strictStereo bool
		strictTypes  bool
		cachePath    string
		plotPath     string
	)
	cmd := &cobra.Command{
		Use:   "conformers <smiles|file>",
		Short: "Generate conformers for a molecule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.conf.Conformers
			flags := cmd.Flags()
			if flags.Changed("max-confs") {
				opts.MaxConfs = maxConfs
			}
			if flags.Changed("ewindow") {
				opts.EWindow = ewindow
			}
			if flags.Changed("rms") {
				opts.RMSThreshold = rms
			}
			if flags.Changed("strict-stereo") {
				opts.StrictStereo = strictStereo
			}
			if flags.Changed("strict-types") {
				opts.StrictTypes = strictTypes
			}
			opts.Backend = toolkit.Backend(a.backend)
			opts.Copy = true
			if cachePath == "" {
				cachePath = a.conf.Cache
			}
			mol, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tk := a.conf.newToolkit()
			if cachePath != "" {
				c, err := cache.Open(cachePath)
				if err != nil {
					return err
				}
				defer c.Close()
				tk.Cache = c
			}
			start := time.Now()
			confs, err := tk.GenerateConformers(cmd.Context(), mol, &opts)
			if err != nil {
				return err
			}
			slog.Info("conformers generated", "conformers", confs.NConformers(), "elapsed", time.Since(start))
			if plotPath != "" {
				name, _ := confs.Prop("name")
				if err := chemplot.EnergyPlot(confs, name, plotPath); err != nil {
					return err
				}
			}
			return a.finish(cmd.OutOrStdout(), confs)
		},
	}
	def := toolkit.DefaultOptions()
	cmd.Flags().IntVar(&maxConfs, "max-confs", def.MaxConfs, "maximum number of conformers")
	cmd.Flags().Float64Var(&ewindow, "ewindow", def.EWindow, "energy window, kcal/mol")
	cmd.Flags().Float64Var(&rms, "rms", def.RMSThreshold, "RMSD threshold for duplicates, A")
	cmd.Flags().BoolVar(&strictStereo, "strict-stereo", def.StrictStereo, "reject unassigned stereochemistry and conformers that change it")
	cmd.Flags().BoolVar(&strictTypes, "strict-types", def.StrictTypes, "require exact MMFF94 atom types (openbabel)")
	cmd.Flags().StringVar(&cachePath, "cache", "", "SQLite conformer cache")
	cmd.Flags().StringVar(&plotPath, "plot", "", "energy plot file (png, svg, pdf)")
	return cmd
}

func (a *app) mapCmd() *cobra.Command {
	var check, remove, index bool
	cmd := &cobra.Command{
		Use:   "map <smiles|file>",
		Short: "Check, remove or set atom-map indexes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mol, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			//the check reports on the input, before any change.
			mapped := chem.IsMapped(mol.Topology)
			switch {
			case remove:
				chem.RemoveMap(mol.Topology)
			case index:
				chem.MapByIndex(mol.Topology)
			}
			if check {
				fmt.Fprintf(cmd.OutOrStdout(), "mapped: %t\n", mapped)
				if a.out == "" {
					return nil
				}
			}
			return a.finish(cmd.OutOrStdout(), mol)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "report whether every atom is mapped")
	cmd.Flags().BoolVar(&remove, "remove", false, "remove all atom-map indexes")
	cmd.Flags().BoolVar(&index, "index", false, "map every atom to its index+1")
	cmd.MarkFlagsMutuallyExclusive("remove", "index")
	cmd.MarkFlagsOneRequired("check", "remove", "index")
	return cmd
}
