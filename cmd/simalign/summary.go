// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/gomlx/simalign/pkg/config"
	"github.com/gomlx/simalign/pkg/embeddings"
	"github.com/gomlx/simalign/pkg/vocab"
)

var (
	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 0, 4)
)

func newPlainTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

// Summary renders the resolved configuration as a table.
func Summary(cfg *config.Config) string {
	var title string
	switch {
	case !cfg.Learning:
		title = "Inference"
	case cfg.Continuation:
		title = "Learning (continuation)"
	default:
		title = "Learning (from scratch)"
	}

	table := newPlainTable()
	table.Row("model dir", cfg.Dir.String())
	if cfg.Learning {
		table.Row("training data", cfg.Train)
		if cfg.Dev != "" {
			table.Row("validation data", cfg.Dev)
		}
		table.Row("last epoch", fmt.Sprint(cfg.LastEpoch))
		table.Row("epochs to train", fmt.Sprint(cfg.NumEpochs))
		table.Row("optimizer", fmt.Sprintf("%s (lr=%g, decay=%g)", cfg.LRMethod, cfg.LR, cfg.LRDecay))
	} else {
		table.Row("test data", cfg.Test)
		table.Row("epoch", fmt.Sprint(cfg.Epoch))
		table.Row("output", cfg.Output)
	}
	table.Row("mode", cfg.Mode)
	aggr := cfg.Aggregation
	if aggr == config.AggregationLSE {
		aggr = fmt.Sprintf("%s (r=%g)", aggr, cfg.R)
	}
	table.Row("aggregation", aggr)
	table.Row("src", sideSummary(cfg.SrcVocab, cfg.SrcEmbeddings, cfg.SrcEmbSize, cfg.SrcLSTMSize))
	table.Row("tgt", sideSummary(cfg.TgtVocab, cfg.TgtEmbeddings, cfg.TgtEmbSize, cfg.TgtLSTMSize))
	return titleStyle.Render(title) + "\n" + table.Render()
}

func sideSummary(v *vocab.Vocab, emb *embeddings.Embeddings, embSize, lstmSize int) string {
	parts := []string{
		fmt.Sprintf("vocab=%s", humanize.Comma(int64(v.Size()))),
		fmt.Sprintf("emb_size=%d", embSize),
		fmt.Sprintf("lstm_size=%d", lstmSize),
	}
	if emb != nil {
		parts = append(parts, fmt.Sprintf("emb_from_file=%s", humanize.Comma(int64(emb.NumFromFile()))),
			fmt.Sprintf("emb_memory=%s", humanize.Bytes(uint64(emb.Size()*emb.Dim()*4))))
	}
	return strings.Join(parts, ", ")
}
