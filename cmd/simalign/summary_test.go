// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/simalign/pkg/config"
)

func TestSummary(t *testing.T) {
	dataDir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dataDir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
		return path
	}
	trn := write("trn.txt", "a\tx\n")
	srcVoc := write("src.voc", "a\n")
	tgtVoc := write("tgt.voc", "x\n")
	mdir := filepath.Join(t.TempDir(), "model")

	cfg, err := config.New([]string{
		"-mdir", mdir, "-trn", trn, "-q",
		"-src_voc", srcVoc, "-tgt_voc", tgtVoc, "-src_emb_size", "8", "-tgt_emb_size", "8",
	})
	require.NoError(t, err)
	summary := Summary(cfg)
	assert.Contains(t, summary, "Learning (from scratch)")
	assert.Contains(t, summary, "lse (r=1)")
	assert.Contains(t, summary, "vocab=3")
	assert.Contains(t, summary, "emb_memory=96 B")
}

func TestIsUsageError(t *testing.T) {
	_, err := config.New([]string{"-mdir"})
	assert.True(t, isUsageError(err))
	_, err = config.New([]string{"-mdir", t.TempDir()})
	assert.True(t, isUsageError(err))
	_, err = config.New([]string{"-mdir", t.TempDir(), "-trn", filepath.Join(t.TempDir(), "missing")})
	assert.False(t, isUsageError(err))
}

func TestDebugRequested(t *testing.T) {
	for _, args := range [][]string{
		{"-debug"},
		{"-mdir", "m", "-debug=true", "-trn", "t"},
		{"--debug"},
	} {
		assert.Truef(t, debugRequested(args), "args=%q", args)
	}
	for _, args := range [][]string{
		nil,
		{"-debug=false"},
		{"-mdir", "m", "-trn", "t"},
	} {
		assert.Falsef(t, debugRequested(args), "args=%q", args)
	}
}
