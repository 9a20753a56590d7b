// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package modeldir manages the files of a simalign model directory.
//
// A model directory holds:
//
//   - "topology": the architecture manifest, see package topology.
//   - "vocab_src", "vocab_tgt": the vocabularies, when no tokenization options are used.
//   - "tokenization_src.json", "tokenization_tgt.json": the tokenization options, if used. Their vocabulary
//     is stored under the file name the options declare.
//   - "checkpoint": written by the trainer once a model is saved.
//   - "epoch<N>.index": written by the trainer at the end of each epoch N.
//   - "epoch<N>.config": the settings used for epoch N.
package modeldir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/simalign/pkg/topology"
)

// Side of the model: source or target.
type Side string

const (
	Source Side = "src"
	Target Side = "tgt"
)

const (
	// CheckpointFile marks a model directory with a saved model.
	CheckpointFile = "checkpoint"

	// MaxEpoch is the largest epoch number searched for by Dir.LatestEpoch.
	MaxEpoch = 999
)

// DirPermMode is the default directory creation permission (before umask) used.
var DirPermMode = os.FileMode(0o770)

// Dir is a model directory. It may not exist yet.
type Dir struct {
	path string
}

// New returns the model directory at path. A leading "~" is expanded to the user home directory.
// It doesn't create the directory, see Dir.Create.
func New(path string) (*Dir, error) {
	if path == "" {
		return nil, errors.New("model directory path not given")
	}
	path, err := fsutil.ReplaceTildeInDir(path)
	if err != nil {
		return nil, err
	}
	return &Dir{path: path}, nil
}

// String implements fmt.Stringer.
func (d *Dir) String() string { return d.path }

// Path of the directory, or of the file name inside it if name is given.
func (d *Dir) Path(name ...string) string {
	return filepath.Join(append([]string{d.path}, name...)...)
}

// Exists returns whether the model directory exists.
func (d *Dir) Exists() (bool, error) {
	return fsutil.FileExists(d.path)
}

// Create the model directory, with any missing parents. It is not an error if it already exists.
func (d *Dir) Create() error {
	if err := os.MkdirAll(d.path, DirPermMode); err != nil {
		return errors.Wrapf(err, "failed to create model directory %q", d.path)
	}
	return nil
}

// Has returns whether the file name exists in the model directory.
func (d *Dir) Has(name string) (bool, error) {
	return fsutil.FileExists(d.Path(name))
}

// HasTopology returns whether the topology manifest exists.
func (d *Dir) HasTopology() (bool, error) { return d.Has(topology.FileName) }

// HasCheckpoint returns whether a model checkpoint was saved.
func (d *Dir) HasCheckpoint() (bool, error) { return d.Has(CheckpointFile) }

// EpochIndexFile is the name of the file written when epoch finishes.
func EpochIndexFile(epoch int) string { return fmt.Sprintf("epoch%d.index", epoch) }

// EpochConfigFile is the name of the file holding the settings used to train epoch.
func EpochConfigFile(epoch int) string { return fmt.Sprintf("epoch%d.config", epoch) }

// HasEpoch returns whether the given epoch was saved.
func (d *Dir) HasEpoch(epoch int) (bool, error) { return d.Has(EpochIndexFile(epoch)) }

// LatestEpoch returns the largest saved epoch, searching from MaxEpoch down to 1.
// It returns 0 if no epoch was saved.
func (d *Dir) LatestEpoch() (int, error) {
	for epoch := MaxEpoch; epoch > 0; epoch-- {
		found, err := d.HasEpoch(epoch)
		if err != nil {
			return 0, err
		}
		if found {
			return epoch, nil
		}
	}
	return 0, nil
}

// TokenizationFile is the name of the tokenization options file for the side.
func TokenizationFile(side Side) string { return fmt.Sprintf("tokenization_%s.json", side) }

// DefaultVocabFile is the name of the vocabulary file for the side, when no tokenization options are used.
func DefaultVocabFile(side Side) string { return fmt.Sprintf("vocab_%s", side) }

// TopologyPath is the path to the topology manifest.
func (d *Dir) TopologyPath() string { return d.Path(topology.FileName) }

// ReadTopology reads the topology manifest.
func (d *Dir) ReadTopology() (topology.Manifest, error) {
	return topology.Read(d.TopologyPath())
}

// WriteTopology writes the topology manifest.
func (d *Dir) WriteTopology(m topology.Manifest) error {
	return m.Write(d.TopologyPath())
}

// CopyFile copies the file in src to the file name inside the model directory, overwriting it if it exists.
func (d *Dir) CopyFile(src, name string) error {
	dst := d.Path(name)
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %q to copy to model directory", src)
	}
	defer func() { _ = in.Close() }()
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", dst)
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "failed to copy %q to %q", src, dst)
	}
	if err = out.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %q", dst)
	}
	klog.V(1).Infof("copied %q to %q", src, dst)
	return nil
}
