/*
 * config.go, part of gocmiles.
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
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rmera/gocmiles/toolkit"
	"gopkg.in/yaml.v3"
)

//Config is the content of the YAML configuration file.
type Config struct {
	//OBabel and Crest are the paths to the external programs.
	OBabel string `yaml:"obabel"`
	Crest  string `yaml:"crest"`
	//NCPU is the number of CPUs given to CREST.
	NCPU    int             `yaml:"ncpu"`
	Backend toolkit.Backend `yaml:"backend"`
	//Cache is an SQLite file for the conformer cache.
	Cache      string          `yaml:"cache"`
	Conformers toolkit.Options `yaml:"conformers"`
}

//loadConfig returns the configuration in path, with defaults for whatever it doesn't set.
//An empty path gives the defaults.
func loadConfig(path string) (*Config, error) {
	conf := &Config{Conformers: *toolkit.DefaultOptions()}
	if path == "" {
		return conf, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loadConfig: %w", err)
	}
	if err := yaml.Unmarshal(b, conf); err != nil {
		return nil, fmt.Errorf("loadConfig: %s: %w", path, err)
	}
	return conf, nil
}

//newToolkit returns a Toolkit with the programs set in the configuration.
func (C *Config) newToolkit() *toolkit.Toolkit {
	tk := toolkit.New()
	if C.OBabel != "" {
		tk.OBabel.SetCommand(C.OBabel)
	}
	if C.Crest != "" {
		tk.Crest.SetCommand(C.Crest)
	}
	if C.NCPU > 0 {
		tk.Crest.SetnCPU(C.NCPU)
	}
	return tk
}

//setupLogging sends structured logs to w. The standard log package, used by the
//library, goes through the same handler.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
