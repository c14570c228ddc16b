/*
   Copyright 2025 The DIRPX Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/catalogfile"
)

type rootOptions struct {
	logLevel string
	file     string
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "backstop",
		Short:         "Error catalog tooling",
		Long:          `backstop validates error catalogs, lists their entries and serves demo endpoints for every failure kind.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			l, err := newLogger(o.logLevel)
			if err != nil {
				return err
			}
			o.logger = l
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&o.file, "file", "", "Catalog file (YAML); the built-in demo catalog when empty")

	cmd.AddCommand(newValidateCmd(o), newListCmd(o), newServeCmd(o))
	return cmd
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})), nil
}

// loadCatalog reads o.file, or builds the demo catalog.
func (o *rootOptions) loadCatalog() (*apierror.Catalog, error) {
	if o.file == "" {
		return apierror.NewCatalog(demoConfig())
	}
	return catalogfile.LoadCatalog(o.file)
}
