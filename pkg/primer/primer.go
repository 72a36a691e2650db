// Package primer reads the primer pair of a run and resolves the reverse-complement of
// the reverse primer with the revcomp helper.
package primer

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/askiada/amplicon-pipeline/pkg/config"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
)

// Helper is the script computing reverse-complements, looked up in the util path.
// Subcommand is its amplicon-util counterpart.
const (
	Helper     = "reverse_complement.py"
	Subcommand = "revcomp"
)

var (
	ErrMissingPrimer       = errors.New("primers file must hold a forward and a reverse primer")
	ErrNoReverseComplement = errors.New("reverse-complement helper printed no result")
	ErrStepperMustBeSet    = errors.New("stepper must be set")
)

// Pair holds the primers of a run.
type Pair struct {
	Forward string
	Reverse string
	// ReverseComplement is the reverse-complement of Reverse.
	ReverseComplement string
}

// Stepper runs one stage.
type Stepper interface {
	Step(ctx context.Context, st pipeline.Stage) (pipeline.StepResult, error)
}

// Read returns the first two records of a FASTA file as forward and reverse primers.
// Record names are ignored.
func Read(path string) (Pair, error) {
	reader, err := fastx.NewReader(seq.Unlimit, path, fastx.DefaultIDRegexp)
	if err != nil {
		return Pair{}, errors.Wrapf(err, "unable to read primers file %s", path)
	}
	defer reader.Close()

	var found []string
	for len(found) < 2 {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return Pair{}, errors.Wrapf(err, "unable to parse primers file %s", path)
		}

		found = append(found, string(record.Seq.Seq))
	}

	if len(found) < 2 {
		return Pair{}, errors.Wrapf(ErrMissingPrimer, "%s has %d record(s)", path, len(found))
	}

	return Pair{Forward: found[0], Reverse: found[1]}, nil
}

// ReverseComplementStage is the helper invocation computing the reverse-complement of seq.
func ReverseComplementStage(cfg config.Config, sequence string) pipeline.Stage {
	cmd := cfg.Helper(Helper, Subcommand).With(sequence)

	program := Helper
	if cfg.NativeHelpers() {
		program = config.UtilBinary
	}

	return pipeline.Stage{
		Name:        "Reverse-complement of the reverse primer",
		Description: "Reverse-complement of the reverse primer",
		Program:     program,
		Path:        cmd.Program,
		Args:        cmd.Args,
		Classifier: pipeline.Classifier{
			Marker:  "Reverse-complement",
			Extract: pipeline.SecondField,
		},
	}
}

// Resolve reads the primers of cfg and resolves the reverse-complement of the reverse one.
func Resolve(ctx context.Context, stepper Stepper, cfg config.Config) (Pair, error) {
	if stepper == nil {
		return Pair{}, ErrStepperMustBeSet
	}

	pair, err := Read(cfg.PrimersFile)
	if err != nil {
		return Pair{}, err
	}

	res, err := stepper.Step(ctx, ReverseComplementStage(cfg, pair.Reverse))
	if err != nil {
		return Pair{}, errors.Wrap(err, "unable to resolve reverse primer")
	}

	if res.Value == "" {
		return Pair{}, ErrNoReverseComplement
	}

	pair.ReverseComplement = res.Value

	return pair, nil
}
