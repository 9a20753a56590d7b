// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	trn := filepath.Join(dir, "trn.txt")
	require.NoError(t, os.WriteFile(trn, []byte("a b\tc d\n"), 0o644))

	got, err := Check(trn)
	require.NoError(t, err)
	require.Equal(t, trn, got)

	_, err = Check(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = Check(dir)
	require.ErrorContains(t, err, "not a regular file")

	_, err = Check("")
	require.Error(t, err)
}
