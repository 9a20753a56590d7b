// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package vocab maps the tokens of one side (source or target) of the parallel data to integer ids.
//
// A vocabulary file holds one entry per line. The first white-space separated field of a line is the token,
// any other fields (typically frequencies) are ignored. Blank lines are skipped, and a token repeated in the
// file keeps the id of its first occurrence.
//
// The reserved tokens PadToken and UnknownToken are always part of the vocabulary: if the file doesn't list them
// they are appended at the end, in that order.
package vocab

import (
	"bufio"
	"os"
	"strings"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// PadToken is used to pad sequences in a batch to the same length.
	PadToken = "<pad>"

	// UnknownToken is the id returned for tokens not in the vocabulary.
	UnknownToken = "<unk>"
)

// Vocab maps tokens to ids and back. It is immutable once loaded and safe for concurrent use.
type Vocab struct {
	path         string
	tokens       []string
	tokenToID    map[string]int
	unkID, padID int
}

// Load reads the vocabulary file in path.
func Load(path string) (*Vocab, error) {
	if path == "" {
		return nil, errors.New("vocabulary path not given")
	}
	path, err := fsutil.ReplaceTildeInDir(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open vocabulary %q", path)
	}
	defer func() { _ = f.Close() }()

	v := &Vocab{path: path, tokenToID: make(map[string]int)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		token := fields[0]
		if _, found := v.tokenToID[token]; found {
			klog.Warningf("vocabulary %q: token %q repeated in line %d, keeping its first id", path, token, lineNum)
			continue
		}
		v.add(token)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed reading vocabulary %q", path)
	}
	v.addReserved()
	klog.V(1).Infof("vocabulary %q: %d tokens", path, len(v.tokens))
	return v, nil
}

// FromTokens creates a vocabulary from a list of tokens, with the same rules used by Load.
func FromTokens(tokens []string) *Vocab {
	v := &Vocab{tokenToID: make(map[string]int, len(tokens)+2)}
	for _, token := range tokens {
		if _, found := v.tokenToID[token]; !found {
			v.add(token)
		}
	}
	v.addReserved()
	return v
}

func (v *Vocab) add(token string) {
	v.tokenToID[token] = len(v.tokens)
	v.tokens = append(v.tokens, token)
}

// addReserved appends the reserved tokens missing from the vocabulary and records their ids.
func (v *Vocab) addReserved() {
	for _, reserved := range []string{PadToken, UnknownToken} {
		if _, found := v.tokenToID[reserved]; !found {
			v.add(reserved)
		}
	}
	v.padID = v.tokenToID[PadToken]
	v.unkID = v.tokenToID[UnknownToken]
}

// Path from where the vocabulary was loaded. Empty if it was created with FromTokens.
func (v *Vocab) Path() string { return v.path }

// Size is the number of tokens, including the reserved ones.
func (v *Vocab) Size() int { return len(v.tokens) }

// ID of the token, or the id of UnknownToken if token is not in the vocabulary.
func (v *Vocab) ID(token string) int {
	if id, found := v.tokenToID[token]; found {
		return id
	}
	return v.unkID
}

// Contains returns whether token is in the vocabulary.
func (v *Vocab) Contains(token string) bool {
	_, found := v.tokenToID[token]
	return found
}

// Token for the given id. It returns UnknownToken for ids out of range.
func (v *Vocab) Token(id int) string {
	if id < 0 || id >= len(v.tokens) {
		return UnknownToken
	}
	return v.tokens[id]
}

// Tokens returns the tokens in id order. The returned slice must not be modified.
func (v *Vocab) Tokens() []string { return v.tokens }

// UnknownID is the id of UnknownToken.
func (v *Vocab) UnknownID() int { return v.unkID }

// PadID is the id of PadToken.
func (v *Vocab) PadID() int { return v.padID }

// Encode converts tokens to ids.
func (v *Vocab) Encode(tokens []string) []int {
	ids := make([]int, len(tokens))
	for ii, token := range tokens {
		ids[ii] = v.ID(token)
	}
	return ids
}
