// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dataset validates the parallel data files given to simalign before any model directory state is touched.
package dataset

import (
	"os"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/pkg/errors"
)

// ErrNotFound is returned (wrapped) by Check when the data file doesn't exist.
var ErrNotFound = errors.New("dataset file not found")

// Check that the data file in path exists, is a regular file and can be opened for reading.
// It returns the path with a leading "~" expanded.
func Check(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty dataset path")
	}
	path, err := fsutil.ReplaceTildeInDir(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrNotFound, "cannot find dataset %q", path)
		}
		return "", errors.Wrapf(err, "failed to stat dataset %q", path)
	}
	if !fi.Mode().IsRegular() {
		return "", errors.Errorf("dataset %q is not a regular file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read dataset %q", path)
	}
	_ = f.Close()
	return path, nil
}
