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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dirpx.dev/backstop/apierror"
)

func newListCmd(o *rootOptions) *cobra.Command {
	var status int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog errors ordered by code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := o.loadCatalog()
			if err != nil {
				return err
			}
			errs := apierror.NewSortedSet(cat.All()...).All()
			if status != 0 {
				errs = cat.FilterByStatus(errs, status)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tSTATUS\tMESSAGE")
			for _, e := range errs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Code(), e.Name(), e.HTTPStatus(), e.Message())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&status, "status", 0, "Only list errors with this HTTP status")
	return cmd
}
