// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package embeddings builds the initial word embeddings table for one side of the model.
//
// The table has one row per vocabulary entry. It is either read from a text embeddings file (the word2vec / fastText
// ".vec" format) or synthesized with random values for a given dimension. Vocabulary entries not covered by the file
// are randomly initialized.
//
// Example:
//
//	emb, err := embeddings.Build(srcVocab).FromFile(*flagSrcEmb).Seed(1234).Done()
//	if err != nil { ... }
//	fmt.Printf("embeddings: %d x %d\n", emb.Size(), emb.Dim())
package embeddings

import (
	"bufio"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/gomlx/simalign/pkg/vocab"
)

// InitScale is the limit of the uniform distribution [-InitScale, InitScale] used to randomly initialize
// vectors not given by an embeddings file.
var InitScale = 0.1

// Embeddings is a dense [vocabSize, dim] table of float32 values.
type Embeddings struct {
	vocab *vocab.Vocab
	dim   int
	data  []float32

	// fromFile is the number of vectors read from a file, the rest were randomly initialized.
	fromFile int
}

// Config for building Embeddings, created with Build. Call Config.Done once configured.
type Config struct {
	vocab       *vocab.Vocab
	path        string
	dim         int
	seed        int64
	progressBar bool
}

// Build configures the embeddings for the given vocabulary. Either Config.FromFile or Config.Dim
// (or both) must be set before calling Config.Done.
func Build(v *vocab.Vocab) *Config {
	return &Config{vocab: v}
}

// FromFile reads the vectors from the given text embeddings file. An empty path is ignored.
func (c *Config) FromFile(path string) *Config {
	c.path = path
	return c
}

// Dim sets the embedding dimension. If an embeddings file is also given, its dimension must match.
// A value <= 0 means not set.
func (c *Config) Dim(dim int) *Config {
	c.dim = dim
	return c
}

// Seed for the random initialization of vectors not read from a file. Default is 0.
func (c *Config) Seed(seed int64) *Config {
	c.seed = seed
	return c
}

// WithProgressBar displays a progress bar (on stderr) while reading the embeddings file.
func (c *Config) WithProgressBar(show bool) *Config {
	c.progressBar = show
	return c
}

// Done builds the Embeddings.
func (c *Config) Done() (*Embeddings, error) {
	if c.vocab == nil {
		return nil, errors.New("embeddings require a vocabulary")
	}
	if c.path == "" {
		if c.dim <= 0 {
			return nil, errors.Errorf("embeddings dimension must be > 0 when no embeddings file is given, got %d", c.dim)
		}
		e := c.newTable(c.dim)
		klog.V(1).Infof("synthesized %s embeddings of dimension %d", humanize.Comma(int64(e.Size())), e.dim)
		return e, nil
	}
	return c.load()
}

func (c *Config) newTable(dim int) *Embeddings {
	e := &Embeddings{
		vocab: c.vocab,
		dim:   dim,
		data:  make([]float32, c.vocab.Size()*dim),
	}
	rng := rand.New(rand.NewPCG(uint64(c.seed), uint64(dim)))
	for ii := range e.data {
		e.data[ii] = float32((2*rng.Float64() - 1) * InitScale)
	}
	return e
}

func (c *Config) load() (*Embeddings, error) {
	path, err := fsutil.ReplaceTildeInDir(c.path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open embeddings %q", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if c.progressBar {
		if fi, err := f.Stat(); err == nil {
			bar := progressbar.NewOptions64(fi.Size(),
				progressbar.OptionSetDescription("embeddings"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetTheme(progressbar.ThemeASCII),
				progressbar.OptionClearOnFinish(),
			)
			defer func() { _ = bar.Finish() }()
			r = io.TeeReader(f, bar)
		}
	}

	e, err := c.parse(path, r)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("embeddings %q: %s of %s vocabulary entries found, dimension %d",
		path, humanize.Comma(int64(e.fromFile)), humanize.Comma(int64(e.Size())), e.dim)
	return e, nil
}

// parse the text embeddings format: an optional "<count> <dim>" header line followed by lines with
// "<token> <v_1> ... <v_dim>".
//
// A first line with two integers is only taken as a header if dim > 1: a one-dimensional file whose
// first token is a number would otherwise be ambiguous.
func (c *Config) parse(path string, r io.Reader) (*Embeddings, error) {
	var e *Embeddings
	headerDim := 0
	seen := make([]bool, c.vocab.Size())
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNum == 1 && len(fields) == 2 {
			if dim, ok := parseHeader(fields); ok {
				if err := c.checkDim(path, dim); err != nil {
					return nil, err
				}
				headerDim = dim
				e = c.newTable(dim)
				continue
			}
		}
		if headerDim > 0 {
			// First vector after the header.
			if len(fields)-1 != headerDim {
				return nil, errors.Errorf("embeddings %q: header declares dimension %d, but line %d has %d values",
					path, headerDim, lineNum, len(fields)-1)
			}
			headerDim = 0
		}
		if e == nil {
			if err := c.checkDim(path, len(fields)-1); err != nil {
				return nil, err
			}
			e = c.newTable(len(fields) - 1)
		}
		if len(fields)-1 != e.dim {
			klog.Warningf("embeddings %q line %d: expected %d values, got %d, skipping", path, lineNum, e.dim, len(fields)-1)
			continue
		}
		token := fields[0]
		if !c.vocab.Contains(token) {
			continue
		}
		id := c.vocab.ID(token)
		if seen[id] {
			klog.V(2).Infof("embeddings %q line %d: token %q repeated, keeping first vector", path, lineNum, token)
			continue
		}
		row := e.data[id*e.dim : (id+1)*e.dim]
		for ii, field := range fields[1:] {
			value, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "embeddings %q line %d: invalid value %q", path, lineNum, field)
			}
			row[ii] = float32(value)
		}
		seen[id] = true
		e.fromFile++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed reading embeddings %q", path)
	}
	if e == nil {
		return nil, errors.Errorf("embeddings %q has no vectors", path)
	}
	return e, nil
}

func (c *Config) checkDim(path string, fileDim int) error {
	if fileDim <= 0 {
		return errors.Errorf("embeddings %q: invalid dimension %d", path, fileDim)
	}
	if c.dim > 0 && c.dim != fileDim {
		return errors.Errorf("embeddings %q have dimension %d, but dimension %d was requested", path, fileDim, c.dim)
	}
	return nil
}

func parseHeader(fields []string) (dim int, ok bool) {
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return 0, false
	}
	dim, err := strconv.Atoi(fields[1])
	if err != nil || dim <= 1 {
		return 0, false
	}
	return dim, true
}

// Dim is the size of each vector.
func (e *Embeddings) Dim() int { return e.dim }

// Size is the number of vectors, the same as the vocabulary size.
func (e *Embeddings) Size() int { return e.vocab.Size() }

// Vocab the embeddings are indexed by.
func (e *Embeddings) Vocab() *vocab.Vocab { return e.vocab }

// NumFromFile is the number of vectors read from the embeddings file. The others were randomly initialized.
func (e *Embeddings) NumFromFile() int { return e.fromFile }

// Vector for the given vocabulary id. The returned slice shares the table memory and must not be modified.
func (e *Embeddings) Vector(id int) []float32 {
	return e.data[id*e.dim : (id+1)*e.dim]
}

// Tensor returns the table as a tensor shaped [vocabSize, dim], to initialize the embedding variable of the model.
func (e *Embeddings) Tensor() *tensors.Tensor {
	return tensors.FromFlatDataAndDimensions(e.data, e.Size(), e.dim)
}
