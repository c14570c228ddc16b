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

// Package apierrortest provides a reusable verification helper for project
// error catalogs. Call it from one test in every service that defines a
// catalog so that misconfiguration fails the build, not a request.
package apierrortest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/backstop/apierror"
)

// VerifyConfig builds cfg and reports every validation problem as a
// separate test failure. It returns the catalog for further assertions.
func VerifyConfig(t testing.TB, cfg apierror.Config) *apierror.Catalog {
	t.Helper()

	c, err := apierror.NewCatalog(cfg)
	var ve *apierror.ValidationError
	if errors.As(err, &ve) {
		for _, p := range ve.Problems {
			t.Errorf("catalog problem: %s", p)
		}
		t.FailNow()
	}
	require.NoError(t, err)

	VerifyCatalog(t, c)
	return c
}

// VerifyCatalog checks properties of a built catalog that construction
// does not enforce: every entry has a client message, priority resolution
// of any single entry yields that entry's own status, and the filtered
// sublist for the whole catalog is never empty.
func VerifyCatalog(t testing.TB, c *apierror.Catalog) {
	t.Helper()

	all := c.All()
	require.NotEmpty(t, all, "catalog has no errors")

	for _, e := range all {
		assert.NotEmpty(t, e.Message(), "error %s has no message", e.Name())

		status, err := c.HighestPriorityStatus([]apierror.Error{e})
		if assert.NoError(t, err, "error %s", e.Name()) {
			assert.Equal(t, e.HTTPStatus(), status, "error %s", e.Name())
		}

		got, ok := c.ByName(e.Name())
		assert.True(t, ok, "error %s not reachable by name", e.Name())
		assert.True(t, got.Equal(e), "error %s resolves to a different entry", e.Name())
	}

	status, err := c.HighestPriorityStatus(all)
	require.NoError(t, err)
	assert.NotEmpty(t, c.FilterByStatus(all, status))
}
