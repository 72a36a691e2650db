package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/liserjrqlxue/goUtil/fmtUtil"
	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

// label is the sequence label without its ;key=value annotations.
func label(header string) string {
	return strings.SplitN(header, ";", 2)[0]
}

func empty(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Wrapf(err, "unable to stat %s", path)
	}

	return info.Size() == 0, nil
}

func readLabels(path string) (map[string]struct{}, error) {
	labels := map[string]struct{}{}

	none, err := empty(path)
	if err != nil || none {
		return labels, err
	}

	reader, err := fastx.NewReader(seq.Unlimit, path, fastx.DefaultIDRegexp)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return labels, nil
		}

		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse %s", path)
		}

		labels[label(string(record.Name))] = struct{}{}
	}
}

// addHits adds the query of every hit (H) record of a uc file whose target is already kept.
func addHits(path string, keep map[string]struct{}) error {
	none, err := empty(path)
	if err != nil || none {
		return err
	}

	in, err := xopen.Ropen(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", path)
	}
	defer in.Close()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(fields) < 10 || label(fields[0]) != "H" {
			continue
		}

		if _, ok := keep[label(fields[9])]; ok {
			keep[label(fields[8])] = struct{}{}
		}
	}

	return errors.Wrapf(scanner.Err(), "unable to read %s", path)
}

// MapSequences writes to output the records of fasta1 whose label is found in fasta2,
// directly or as the query of a uc hit whose target is in fasta2. It returns the number
// of records written.
func MapSequences(fasta1, uc, fasta2, output string) (int, error) {
	keep, err := readLabels(fasta2)
	if err != nil {
		return 0, err
	}

	err = addHits(uc, keep)
	if err != nil {
		return 0, err
	}

	out, err := xopen.Wopen(output)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to create %s", output)
	}
	defer simpleUtil.DeferClose(out)

	none, err := empty(fasta1)
	if err != nil || none {
		return 0, err
	}

	reader, err := fastx.NewReader(seq.Unlimit, fasta1, fastx.DefaultIDRegexp)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to read %s", fasta1)
	}
	defer reader.Close()

	n := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		if err != nil {
			return n, errors.Wrapf(err, "unable to parse %s", fasta1)
		}

		if _, ok := keep[label(string(record.Name))]; !ok {
			continue
		}

		fmtUtil.Fprintf(out, ">%s\n%s\n", record.Name, record.Seq.Seq)
		n++
	}
}

func mapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "map FASTA1 UC FASTA2 OUTPUT",
		Short: "Extract the sequences of FASTA1 mapped to FASTA2 through a uc file",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := MapSequences(args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}

			fmtUtil.Fprintf(cmd.OutOrStdout(), "Mapped sequences: %d\n", n)

			return nil
		},
	}
}
