// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package config

import (
	"flag"
	"io"
	"slices"

	"github.com/pkg/errors"
)

// Settings holds every command-line option. Field comments give the option name.
//
// Settings are mutated in place by Settings.Parse: options parsed later override earlier values.
type Settings struct {
	ModelDir    string // -mdir
	SeqSize     int    // -seq_size
	BatchSize   int    // -batch_size
	Seed        int64  // -seed
	Debug       bool   // -debug
	MaxSents    int    // -max_sents
	NumEpochs   int    // -n_epochs
	ReportEvery int    // -report_every

	// Learning.
	Train       string  // -trn
	Dev         string  // -dev
	SrcTok      string  // -src_tok
	TgtTok      string  // -tgt_tok
	SrcVoc      string  // -src_voc
	TgtVoc      string  // -tgt_voc
	SrcEmb      string  // -src_emb
	TgtEmb      string  // -tgt_emb
	SrcVocSize  int     // -src_voc_size
	TgtVocSize  int     // -tgt_voc_size
	SrcEmbSize  int     // -src_emb_size
	TgtEmbSize  int     // -tgt_emb_size
	SrcLSTMSize int     // -src_lstm_size
	TgtLSTMSize int     // -tgt_lstm_size
	LR          float64 // -lr
	LRDecay     float64 // -lr_decay
	LRMethod    string  // -lr_method
	Aggregation string  // -aggr
	R           float64 // -r
	Dropout     float64 // -dropout
	Mode        string  // -mode

	// Inference.
	Epoch      int    // -epoch
	Test       string // -tst
	Output     string // -output
	Quiet      bool   // -q
	ShowMatrix bool   // -show_matrix
	ShowSVG    bool   // -show_svg
	ShowAlign  bool   // -show_align
	ShowLast   bool   // -show_last
	ShowAggr   bool   // -show_aggr
}

const (
	AggregationSum = "sum"
	AggregationMax = "max"
	AggregationLSE = "lse"

	ModeAlignment = "alignment"
	ModeSentence  = "sentence"

	// OutputStdout is the -output value to write to the standard output.
	OutputStdout = "-"
)

var (
	// ValidAggregations are the accepted values of -aggr.
	ValidAggregations = []string{AggregationSum, AggregationMax, AggregationLSE}

	// ValidLRMethods are the accepted values of -lr_method.
	ValidLRMethods = []string{"adam", "adagrad", "adadelta", "sgd", "rmsprop"}

	// ValidModes are the accepted values of -mode.
	ValidModes = []string{ModeAlignment, ModeSentence}
)

// NewSettings returns the default settings.
func NewSettings() *Settings {
	return &Settings{
		SeqSize:     50,
		BatchSize:   32,
		Seed:        1234,
		ReportEvery: 1000,
		NumEpochs:   1,
		SrcLSTMSize: 256,
		TgtLSTMSize: 256,
		LR:          1.0,
		LRDecay:     0.9,
		LRMethod:    "adagrad",
		Aggregation: AggregationLSE,
		R:           1.0,
		Dropout:     0.3,
		Mode:        ModeAlignment,
		Output:      OutputStdout,
	}
}

// flagSet binds every option to the corresponding field of s, with the current value as default.
func (s *Settings) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("simalign", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	fs.StringVar(&s.ModelDir, "mdir", s.ModelDir, "directory to save/restore models")
	fs.IntVar(&s.SeqSize, "seq_size", s.SeqSize, "sentences larger than this number of src/tgt words are filtered out")
	fs.IntVar(&s.BatchSize, "batch_size", s.BatchSize, "number of examples per batch")
	fs.Int64Var(&s.Seed, "seed", s.Seed, "seed for randomness")
	fs.BoolVar(&s.Debug, "debug", s.Debug, "debug mode")
	fs.IntVar(&s.MaxSents, "max_sents", s.MaxSents, "consider this number of sentences per batch (0 for all)")
	fs.IntVar(&s.NumEpochs, "n_epochs", s.NumEpochs, "train for this number of epochs")
	fs.IntVar(&s.ReportEvery, "report_every", s.ReportEvery, "report every this many batches")

	fs.StringVar(&s.Train, "trn", s.Train, "training data")
	fs.StringVar(&s.Dev, "dev", s.Dev, "validation data")
	fs.StringVar(&s.SrcTok, "src_tok", s.SrcTok, "json tokenization options for src")
	fs.StringVar(&s.TgtTok, "tgt_tok", s.TgtTok, "json tokenization options for tgt")
	fs.StringVar(&s.SrcVoc, "src_voc", s.SrcVoc, "vocabulary of src words")
	fs.StringVar(&s.TgtVoc, "tgt_voc", s.TgtVoc, "vocabulary of tgt words")
	fs.StringVar(&s.SrcEmb, "src_emb", s.SrcEmb, "embeddings of src words")
	fs.StringVar(&s.TgtEmb, "tgt_emb", s.TgtEmb, "embeddings of tgt words")
	fs.IntVar(&s.SrcVocSize, "src_voc_size", s.SrcVocSize, "size of the src vocabulary")
	fs.IntVar(&s.TgtVocSize, "tgt_voc_size", s.TgtVocSize, "size of the tgt vocabulary")
	fs.IntVar(&s.SrcEmbSize, "src_emb_size", s.SrcEmbSize, "size of src embeddings if -src_emb not used")
	fs.IntVar(&s.TgtEmbSize, "tgt_emb_size", s.TgtEmbSize, "size of tgt embeddings if -tgt_emb not used")
	fs.IntVar(&s.SrcLSTMSize, "src_lstm_size", s.SrcLSTMSize, "hidden units for src bi-lstm")
	fs.IntVar(&s.TgtLSTMSize, "tgt_lstm_size", s.TgtLSTMSize, "hidden units for tgt bi-lstm")
	fs.Float64Var(&s.LR, "lr", s.LR, "initial learning rate")
	fs.Float64Var(&s.LRDecay, "lr_decay", s.LRDecay, "learning rate decay")
	fs.StringVar(&s.LRMethod, "lr_method", s.LRMethod, "GD method")
	fs.StringVar(&s.Aggregation, "aggr", s.Aggregation, "aggregation operation")
	fs.Float64Var(&s.R, "r", s.R, "r for lse")
	fs.Float64Var(&s.Dropout, "dropout", s.Dropout, "dropout ratio")
	fs.StringVar(&s.Mode, "mode", s.Mode, "mode")

	fs.IntVar(&s.Epoch, "epoch", s.Epoch, "epoch to use, by default the latest one in mdir")
	fs.StringVar(&s.Test, "tst", s.Test, "testing data")
	fs.StringVar(&s.Output, "output", s.Output, "output file")
	fs.BoolVar(&s.Quiet, "q", s.Quiet, "quiet mode, just output similarity score")
	fs.BoolVar(&s.ShowMatrix, "show_matrix", s.ShowMatrix, "output formatted alignment matrix")
	fs.BoolVar(&s.ShowSVG, "show_svg", s.ShowSVG, "output alignment matrix using svg-like html format")
	fs.BoolVar(&s.ShowAlign, "show_align", s.ShowAlign, "output source/target alignment matrix")
	fs.BoolVar(&s.ShowLast, "show_last", s.ShowLast, "output source/target last vectors")
	fs.BoolVar(&s.ShowAggr, "show_aggr", s.ShowAggr, "output source/target aggr vectors")
	return fs
}

// Parse the argument tokens (without the program name) over the current settings.
//
// It returns ErrHelp if "-h" is given, and an error wrapping ErrUnparsed for unknown options, options missing
// their value, values that don't parse to the option type, or stray positional arguments.
func (s *Settings) Parse(args []string) error {
	fs := s.flagSet()
	err := fs.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ErrHelp
		}
		return errors.Wrapf(ErrUnparsed, "%v", err)
	}
	if fs.NArg() > 0 {
		return errors.Wrapf(ErrUnparsed, "unexpected argument %q", fs.Arg(0))
	}
	return nil
}

// Values returns every option (by name, without the leading "-") with its value formatted as it would be given
// in the command line.
func (s *Settings) Values() map[string]string {
	values := make(map[string]string)
	s.flagSet().VisitAll(func(f *flag.Flag) {
		values[f.Name] = f.Value.String()
	})
	return values
}

// Validate the option values.
func (s *Settings) Validate() error {
	if !slices.Contains(ValidAggregations, s.Aggregation) {
		return errors.Errorf("-aggr must be one of %q, got %q", ValidAggregations, s.Aggregation)
	}
	if !slices.Contains(ValidLRMethods, s.LRMethod) {
		return errors.Errorf("-lr_method must be one of %q, got %q", ValidLRMethods, s.LRMethod)
	}
	if !slices.Contains(ValidModes, s.Mode) {
		return errors.Errorf("-mode must be one of %q, got %q", ValidModes, s.Mode)
	}
	for _, opt := range []struct {
		name     string
		value    int
		positive bool
	}{
		{"seq_size", s.SeqSize, false},
		{"batch_size", s.BatchSize, true},
		{"max_sents", s.MaxSents, false},
		{"n_epochs", s.NumEpochs, false},
		{"report_every", s.ReportEvery, true},
		{"src_voc_size", s.SrcVocSize, false},
		{"tgt_voc_size", s.TgtVocSize, false},
		{"src_emb_size", s.SrcEmbSize, false},
		{"tgt_emb_size", s.TgtEmbSize, false},
		{"src_lstm_size", s.SrcLSTMSize, true},
		{"tgt_lstm_size", s.TgtLSTMSize, true},
		{"epoch", s.Epoch, false},
	} {
		if opt.value < 0 || (opt.positive && opt.value == 0) {
			return errors.Errorf("invalid -%s %d", opt.name, opt.value)
		}
	}
	if s.Dropout < 0 || s.Dropout >= 1 {
		return errors.Errorf("-dropout must be in [0, 1), got %g", s.Dropout)
	}
	if s.R <= 0 {
		return errors.Errorf("-r must be > 0, got %g", s.R)
	}
	if s.LR <= 0 {
		return errors.Errorf("-lr must be > 0, got %g", s.LR)
	}
	if s.Mode != ModeAlignment {
		for _, show := range []struct {
			name string
			set  bool
		}{{"show_matrix", s.ShowMatrix}, {"show_svg", s.ShowSVG}, {"show_align", s.ShowAlign}} {
			if show.set {
				return errors.Errorf("-%s requires -mode %s, got -mode %s", show.name, ModeAlignment, s.Mode)
			}
		}
	}
	return nil
}
