// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package topology reads and writes the topology manifest of a model directory.
//
// The manifest records the settings that define the model architecture, one "name value" pair per line,
// so that inference and further training sessions rebuild exactly the architecture that was trained.
// Once written it is the source of truth for those settings: when a model directory is reused,
// the manifest is re-applied over the command line.
package topology

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// FileName of the manifest inside the model directory.
const FileName = "topology"

// Manifest holds the architecture settings, keyed by option name (without the leading "-").
type Manifest map[string]string

// IsTopologyOption returns whether the option name is recorded in the manifest: every source ("src") and
// target ("tgt") option, the aggregation operation and the model mode.
func IsTopologyOption(name string) bool {
	return strings.HasPrefix(name, "src") || strings.HasPrefix(name, "tgt") ||
		name == "aggr" || name == "mode"
}

// Validate returns an error if some entry can't be written: values can't hold white spaces.
func (m Manifest) Validate() error {
	for _, name := range m.Names() {
		if value := m[name]; strings.ContainsAny(value, " \t\n\r") {
			return errors.Errorf("topology entry %q has a value with white spaces (%q), it can't be saved", name, value)
		}
	}
	return nil
}

// Write the manifest to path, one "name value" line per entry sorted by name.
// Entries with empty values are not written.
func (m Manifest) Write(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, name := range m.Names() {
		if value := m[name]; value != "" {
			_, _ = fmt.Fprintf(&buf, "%s %s\n", name, value)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write topology %q", path)
	}
	return nil
}

// Read the manifest in path.
func Read(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot find topology file %q", path)
	}
	defer func() { _ = f.Close() }()

	m := make(Manifest)
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, errors.Errorf("topology %q line %d: expected \"<name> <value>\", got %q",
				path, lineNum, scanner.Text())
		}
		m[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed reading topology %q", path)
	}
	return m, nil
}

// Names of the entries, sorted.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Args returns the manifest as command-line arguments ("-name", "value", ...), in sorted order, to be
// parsed over the current settings.
func (m Manifest) Args() []string {
	args := make([]string, 0, 2*len(m))
	for _, name := range m.Names() {
		args = append(args, "-"+name, m[name])
	}
	return args
}
