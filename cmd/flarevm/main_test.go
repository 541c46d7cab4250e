// Copyright 2024 The flarevm Authors
// This file is part of the flarevm library.
//
// The flarevm library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The flarevm library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the flarevm library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/flarevm/flarevm/core/vm"
)

func testContext(t *testing.T, args map[string]string) *cli.Context {
	t.Helper()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		require.NoError(t, f.Apply(set))
	}
	ctx := cli.NewContext(app, set, nil)
	for name, value := range args {
		require.NoError(t, ctx.Set(name, value))
	}
	return ctx
}

func TestLoadCodeFromFlag(t *testing.T) {
	ctx := testContext(t, map[string]string{"code": "0x6001600201"})
	code, err := loadCode(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x01, 0x60, 0x02, 0x01}, code)

	// The 0x prefix is optional.
	ctx = testContext(t, map[string]string{"code": "6001"})
	code, err = loadCode(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x01}, code)
}

func TestLoadCodeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code.hex")
	require.NoError(t, os.WriteFile(path, []byte("0x600100\n"), 0o644))

	ctx := testContext(t, map[string]string{"codefile": path})
	code, err := loadCode(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x01, 0x00}, code)
}

func TestLoadCodeErrors(t *testing.T) {
	_, err := loadCode(testContext(t, nil))
	require.Error(t, err)

	_, err = loadCode(testContext(t, map[string]string{"code": "0xzz"}))
	require.Error(t, err)
}

func TestRevisionNames(t *testing.T) {
	// Every revision the interpreter knows must be reachable by name.
	seen := make(map[vm.Revision]bool)
	for name, rev := range revisions {
		require.NotNil(t, vm.Table(rev), "revision %s has no table", name)
		seen[rev] = true
	}
	for rev := vm.Frontier; rev <= vm.LatestRevision; rev++ {
		require.True(t, seen[rev], "revision %v has no CLI name", rev)
	}
}
