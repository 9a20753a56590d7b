// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tokenization

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tok.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"mode": "aggressive", "joiner_annotate": true, "vocabulary": "bpe.voc"}`), 0o644))
	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bpe.voc", opts.Vocabulary())
	assert.Equal(t, path, opts.Path())
	mode, found := opts.Get("mode")
	require.True(t, found)
	assert.Equal(t, "aggressive", mode)
	_, found = opts.Get("bpe_model_path")
	assert.False(t, found)

	encoded, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode": "aggressive", "joiner_annotate": true, "vocabulary": "bpe.voc"}`, string(encoded))
}

func TestParseErrors(t *testing.T) {
	for _, contents := range []string{`not json`, `null`, `{"mode": "space"}`, `{"vocabulary": 3}`, `{"vocabulary": ""}`} {
		_, err := Parse("tok.json", []byte(contents))
		assert.Errorf(t, err, "contents %q should fail", contents)
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "cannot read tokenization options")
}
