// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tokenization holds the JSON tokenization options given with -src_tok/-tgt_tok.
//
// The options are consumed by the external tokenizer. simalign itself only needs the "vocabulary" entry,
// which names the vocabulary file associated with the tokenizer. All other entries are kept as they were read.
package tokenization

import (
	"encoding/json"
	"os"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/pkg/errors"
)

// VocabularyKey is the JSON key holding the vocabulary file name.
const VocabularyKey = "vocabulary"

// Options read from a tokenization JSON file.
type Options struct {
	path   string
	values map[string]any
}

// Load the tokenization options from the JSON file in path. The file must hold a JSON object with a
// non-empty string VocabularyKey entry.
func Load(path string) (*Options, error) {
	path, err := fsutil.ReplaceTildeInDir(path)
	if err != nil {
		return nil, err
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read tokenization options %q", path)
	}
	return Parse(path, contents)
}

// Parse the JSON tokenization options in contents. The path is only used for error messages.
func Parse(path string, contents []byte) (*Options, error) {
	opts := &Options{path: path}
	if err := json.Unmarshal(contents, &opts.values); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenization options %q", path)
	}
	if opts.values == nil {
		return nil, errors.Errorf("tokenization options %q: expected a JSON object", path)
	}
	vocab, ok := opts.values[VocabularyKey].(string)
	if !ok || vocab == "" {
		return nil, errors.Errorf("tokenization options %q: missing string entry %q", path, VocabularyKey)
	}
	return opts, nil
}

// Path from where the options were read.
func (o *Options) Path() string { return o.path }

// Vocabulary file named by the options.
func (o *Options) Vocabulary() string {
	return o.values[VocabularyKey].(string)
}

// Get the raw value of an option.
func (o *Options) Get(key string) (value any, found bool) {
	value, found = o.values[key]
	return
}

// MarshalJSON implements json.Marshaler, returning the options as they were read.
func (o *Options) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.values)
}
