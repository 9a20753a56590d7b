// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package config parses simalign's command line and prepares the model directory for learning or inference.
//
// New parses the options and then, depending on the mode:
//
//   - Inference (-tst): resolves the epoch to use, checks the model directory files, re-applies the stored
//     topology and loads the stored vocabularies.
//   - Learning (-trn): if the model directory exists, training continues from the last saved epoch: the
//     stored topology is re-applied (overriding the command line) and the stored vocabularies are loaded.
//     Otherwise, the vocabularies, tokenization options and embeddings are loaded (or synthesized), the
//     model directory is created with copies of them, and the topology manifest is written.
//
// The resulting Config is consumed by the trainer or the inference driver.
package config

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/simalign/pkg/dataset"
	"github.com/gomlx/simalign/pkg/embeddings"
	"github.com/gomlx/simalign/pkg/modeldir"
	"github.com/gomlx/simalign/pkg/tokenization"
	"github.com/gomlx/simalign/pkg/topology"
	"github.com/gomlx/simalign/pkg/vocab"
)

// Config is the resolved configuration of a learning or inference session.
type Config struct {
	Settings

	// Dir is the model directory (-mdir).
	Dir *modeldir.Dir

	// Learning is true for learning (-trn) sessions, false for inference (-tst).
	Learning bool

	// Continuation is true if learning continues on an existing model directory.
	Continuation bool

	// LastEpoch is the number of epochs already trained: 0 when learning from scratch.
	LastEpoch int

	SrcVocab, TgtVocab *vocab.Vocab

	// SrcTokenization and TgtTokenization are nil if no tokenization options are used.
	SrcTokenization, TgtTokenization *tokenization.Options

	// SrcEmbeddings and TgtEmbeddings are the initial embeddings, only set when learning from scratch.
	// When continuing or in inference, the embeddings are part of the saved model.
	SrcEmbeddings, TgtEmbeddings *embeddings.Embeddings

	// Out is where inference results are written (-output). Only set for inference.
	Out     io.Writer
	outFile *os.File
}

// New parses the command line arguments (without the program name) and prepares the session.
//
// It returns ErrHelp if "-h" was given. Errors wrapping ErrUnparsed, ErrMissingModelDir, ErrNoMode or
// ErrBothModes indicate a misuse of the command line, for which the caller will want to print Usage.
func New(args []string) (*Config, error) {
	c := &Config{Settings: *NewSettings()}
	if err := c.Parse(args); err != nil {
		return nil, err
	}
	if c.ModelDir == "" {
		return nil, ErrMissingModelDir
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var err error
	c.Dir, err = modeldir.New(c.ModelDir)
	if err != nil {
		return nil, err
	}

	switch {
	case c.Train != "" && c.Test != "":
		return nil, ErrBothModes
	case c.Test != "":
		err = c.inference()
	case c.Train != "":
		err = c.learn()
	default:
		return nil, ErrNoMode
	}
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// side groups the settings and state of the source or target side of the model.
type side struct {
	name             modeldir.Side
	tok, voc, emb    *string
	vocSize, embSize *int
	vocab            **vocab.Vocab
	tokenization     **tokenization.Options
	embeddings       **embeddings.Embeddings
}

func (c *Config) sides() []side {
	return []side{
		{
			name: modeldir.Source, tok: &c.SrcTok, voc: &c.SrcVoc, emb: &c.SrcEmb,
			vocSize: &c.SrcVocSize, embSize: &c.SrcEmbSize,
			vocab: &c.SrcVocab, tokenization: &c.SrcTokenization, embeddings: &c.SrcEmbeddings,
		},
		{
			name: modeldir.Target, tok: &c.TgtTok, voc: &c.TgtVoc, emb: &c.TgtEmb,
			vocSize: &c.TgtVocSize, embSize: &c.TgtEmbSize,
			vocab: &c.TgtVocab, tokenization: &c.TgtTokenization, embeddings: &c.TgtEmbeddings,
		},
	}
}

func (c *Config) inference() error {
	c.Dropout = 0
	c.SeqSize = 0

	if c.Epoch == 0 {
		latest, err := c.Dir.LatestEpoch()
		if err != nil {
			return err
		}
		if latest == 0 {
			return errors.Errorf("cannot find any epoch in model directory %q", c.Dir)
		}
		c.Epoch = latest
	}
	var err error
	if c.Test, err = dataset.Check(c.Test); err != nil {
		return err
	}
	found, err := c.Dir.HasEpoch(c.Epoch)
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("-epoch file %q cannot be found", c.Dir.Path(modeldir.EpochIndexFile(c.Epoch)))
	}
	if err = c.requireTopology(); err != nil {
		return err
	}
	vocabPaths, err := c.storedVocabularies()
	if err != nil {
		return err
	}
	if err = c.applyTopology(); err != nil {
		return err
	}
	if err = c.loadVocabularies(vocabPaths); err != nil {
		return err
	}
	if err = c.openOutput(); err != nil {
		return err
	}
	klog.V(1).Infof("inference with epoch %d of %q", c.Epoch, c.Dir)
	return nil
}

func (c *Config) learn() error {
	c.Learning = true
	var err error
	if c.Train, err = dataset.Check(c.Train); err != nil {
		return err
	}
	if c.Dev != "" {
		if c.Dev, err = dataset.Check(c.Dev); err != nil {
			return err
		}
	}
	exists, err := c.Dir.Exists()
	if err != nil {
		return err
	}
	if exists {
		return c.continueLearning()
	}
	return c.learnFromScratch()
}

func (c *Config) continueLearning() error {
	if err := c.requireTopology(); err != nil {
		return err
	}
	vocabPaths, err := c.storedVocabularies()
	if err != nil {
		return err
	}
	found, err := c.Dir.HasCheckpoint()
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("checkpoint file %q cannot be found: delete model directory %q to learn from scratch?",
			c.Dir.Path(modeldir.CheckpointFile), c.Dir)
	}
	if err = c.applyTopology(); err != nil {
		return err
	}
	if err = c.loadVocabularies(vocabPaths); err != nil {
		return err
	}
	if c.LastEpoch, err = c.Dir.LatestEpoch(); err != nil {
		return err
	}
	c.Continuation = true
	klog.Infof("learning continuation: last epoch is %d", c.LastEpoch)
	return nil
}

func (c *Config) learnFromScratch() error {
	// Everything is loaded before the model directory is created, so a failure doesn't leave behind
	// a partially initialized directory.
	for ii, s := range c.sides() {
		if *s.tok != "" {
			path, err := fsutil.ReplaceTildeInDir(*s.tok)
			if err != nil {
				return err
			}
			found, err := fsutil.FileExists(path)
			if err != nil {
				return err
			}
			if !found {
				return errors.Errorf("cannot find -%s_tok file %q", s.name, path)
			}
			opts, err := tokenization.Load(path)
			if err != nil {
				return err
			}
			*s.tok = path
			*s.tokenization = opts
			if *s.voc == "" {
				*s.voc = opts.Vocabulary()
			}
		}
		if *s.voc == "" {
			return errors.Errorf("-%s_voc (or -%s_tok) is required to learn from scratch", s.name, s.name)
		}
		v, err := vocab.Load(*s.voc)
		if err != nil {
			return err
		}
		*s.vocab = v
		*s.voc = v.Path()
		*s.vocSize = v.Size()

		emb, err := embeddings.Build(v).
			FromFile(*s.emb).
			Dim(*s.embSize).
			Seed(c.Seed + int64(ii)).
			WithProgressBar(!c.Quiet).
			Done()
		if err != nil {
			return errors.WithMessagef(err, "%s embeddings", s.name)
		}
		*s.embeddings = emb
		*s.embSize = emb.Dim()
	}

	// Files to copy into the model directory, keyed by their name there.
	type fileCopy struct{ src, name string }
	var copies []fileCopy
	sources := make(map[string]string)
	addCopy := func(src, name string) error {
		if prev, found := sources[name]; found {
			if prev == src {
				return nil
			}
			return errors.Errorf("both %q and %q would be copied to %q in the model directory", prev, src, name)
		}
		sources[name] = src
		copies = append(copies, fileCopy{src: src, name: name})
		return nil
	}
	for _, s := range c.sides() {
		if *s.tokenization != nil {
			if err := addCopy(*s.voc, filepath.Base((*s.tokenization).Vocabulary())); err != nil {
				return err
			}
			if err := addCopy(*s.tok, modeldir.TokenizationFile(s.name)); err != nil {
				return err
			}
		} else {
			if err := addCopy(*s.voc, modeldir.DefaultVocabFile(s.name)); err != nil {
				return err
			}
		}
	}
	m := c.Topology()
	if err := m.Validate(); err != nil {
		return err
	}

	if err := c.Dir.Create(); err != nil {
		return err
	}
	err := func() error {
		for _, fc := range copies {
			if err := c.Dir.CopyFile(fc.src, fc.name); err != nil {
				return err
			}
		}
		return c.Dir.WriteTopology(m)
	}()
	if err != nil {
		// Created above: a leftover directory would be taken for a model to continue.
		if rmErr := os.RemoveAll(c.Dir.String()); rmErr != nil {
			klog.Warningf("failed to remove partially initialized model directory %q: %v", c.Dir, rmErr)
		}
		return err
	}
	klog.Infof("learning from scratch")
	return nil
}

// Topology returns the architecture settings recorded in the topology manifest.
func (c *Config) Topology() topology.Manifest {
	m := make(topology.Manifest)
	for name, value := range c.Values() {
		if topology.IsTopologyOption(name) {
			m[name] = value
		}
	}
	return m
}

func (c *Config) requireTopology() error {
	found, err := c.Dir.HasTopology()
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("topology file %q cannot be found", c.Dir.TopologyPath())
	}
	return nil
}

// storedVocabularies loads the tokenization options saved in the model directory, if any, and returns
// the paths to the saved vocabularies, checking that they exist.
func (c *Config) storedVocabularies() (map[modeldir.Side]string, error) {
	paths := make(map[modeldir.Side]string)
	for _, s := range c.sides() {
		name := modeldir.DefaultVocabFile(s.name)
		tokFile := modeldir.TokenizationFile(s.name)
		found, err := c.Dir.Has(tokFile)
		if err != nil {
			return nil, err
		}
		if found {
			opts, err := tokenization.Load(c.Dir.Path(tokFile))
			if err != nil {
				return nil, err
			}
			*s.tokenization = opts
			name = filepath.Base(opts.Vocabulary())
		}
		found, err = c.Dir.Has(name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.Errorf("vocab %s file %q cannot be found", s.name, c.Dir.Path(name))
		}
		paths[s.name] = c.Dir.Path(name)
	}
	return paths, nil
}

// applyTopology parses the topology manifest over the current settings: the stored architecture
// has priority over the command line.
func (c *Config) applyTopology() error {
	stored, err := c.Dir.ReadTopology()
	if err != nil {
		return err
	}
	// Topology options missing from the manifest had empty values when it was written: they are reset
	// to their defaults, so the command line can't set them either.
	m := make(topology.Manifest)
	for name, value := range NewSettings().Values() {
		if topology.IsTopologyOption(name) {
			m[name] = value
		}
	}
	maps.Copy(m, stored)
	if klog.V(1).Enabled() {
		current := c.Values()
		for _, name := range m.Names() {
			if current[name] != m[name] {
				klog.Infof("-%s=%q overridden by the topology of %q: %q", name, current[name], c.Dir, m[name])
			}
		}
	}
	if err = c.Parse(m.Args()); err != nil {
		return errors.WithMessagef(err, "topology %q", c.Dir.TopologyPath())
	}
	return c.Validate()
}

func (c *Config) loadVocabularies(paths map[modeldir.Side]string) error {
	for _, s := range c.sides() {
		v, err := vocab.Load(paths[s.name])
		if err != nil {
			return err
		}
		*s.vocab = v
	}
	return nil
}

func (c *Config) openOutput() error {
	if c.Output == OutputStdout {
		c.Out = os.Stdout
		return nil
	}
	path, err := fsutil.ReplaceTildeInDir(c.Output)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create -output file %q", path)
	}
	c.Out = f
	c.outFile = f
	return nil
}

// Close the inference output file, if one was opened.
func (c *Config) Close() error {
	if c.outFile == nil {
		return nil
	}
	err := c.outFile.Close()
	c.outFile = nil
	if err != nil {
		return errors.Wrapf(err, "failed to close -output file %q", c.Output)
	}
	return nil
}

// WriteEpochConfig writes the settings to "epoch<LastEpoch>.config" in the model directory, one "name value"
// per line sorted by name. Options with empty values are omitted.
func (c *Config) WriteEpochConfig() error {
	if err := c.Dir.Create(); err != nil {
		return err
	}
	values := c.Values()
	values["last_epoch"] = fmt.Sprint(c.LastEpoch)
	names := make([]string, 0, len(values))
	for name, value := range values {
		if value != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	var buf bytes.Buffer
	for _, name := range names {
		_, _ = fmt.Fprintf(&buf, "%s %s\n", name, values[name])
	}
	path := c.Dir.Path(modeldir.EpochConfigFile(c.LastEpoch))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %q", path)
	}
	return nil
}

// Hyperparameters stored in the context returned by Config.Context, besides the gomlx ones
// (optimizers.ParamLearningRate, optimizers.ParamOptimizer and context.ParamInitialSeed).
const (
	ParamLRMethod     = "lr_method"
	ParamLRDecay      = "lr_decay"
	ParamBatchSize    = "batch_size"
	ParamSeqSize      = "seq_size"
	ParamMaxSents     = "max_sents"
	ParamNumEpochs    = "n_epochs"
	ParamDropoutRate  = "dropout"
	ParamAggregation  = "aggr"
	ParamLSESharpness = "r"
	ParamMode         = "mode"
	ParamSrcVocSize   = "src_voc_size"
	ParamTgtVocSize   = "tgt_voc_size"
	ParamSrcEmbSize   = "src_emb_size"
	ParamTgtEmbSize   = "tgt_emb_size"
	ParamSrcLSTMSize  = "src_lstm_size"
	ParamTgtLSTMSize  = "tgt_lstm_size"
)

// Context returns a new context holding the hyperparameters of the session, to build the model and
// the trainer with.
//
// The gomlx optimizer (optimizers.ParamOptimizer) is only set if -lr_method names one of
// optimizers.KnownOptimizers: otherwise the trainer builds the optimizer from ParamLRMethod.
func (c *Config) Context() *context.Context {
	ctx := context.New()
	ctx.SetParams(map[string]any{
		context.ParamInitialSeed:     c.Seed,
		optimizers.ParamLearningRate: c.LR,
		ParamLRMethod:                c.LRMethod,
		ParamLRDecay:                 c.LRDecay,
		ParamBatchSize:               c.BatchSize,
		ParamSeqSize:                 c.SeqSize,
		ParamMaxSents:                c.MaxSents,
		ParamNumEpochs:               c.NumEpochs,
		ParamDropoutRate:             c.Dropout,
		ParamAggregation:             c.Aggregation,
		ParamLSESharpness:            c.R,
		ParamMode:                    c.Mode,
		ParamSrcVocSize:              c.SrcVocSize,
		ParamTgtVocSize:              c.TgtVocSize,
		ParamSrcEmbSize:              c.SrcEmbSize,
		ParamTgtEmbSize:              c.TgtEmbSize,
		ParamSrcLSTMSize:             c.SrcLSTMSize,
		ParamTgtLSTMSize:             c.TgtLSTMSize,
	})
	if _, found := optimizers.KnownOptimizers[c.LRMethod]; found {
		ctx.SetParam(optimizers.ParamOptimizer, c.LRMethod)
	}
	return ctx
}
