package main

import (
	"strings"

	"github.com/liserjrqlxue/goUtil/fmtUtil"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"
)

// ReverseComplement returns the reverse-complement of an IUPAC nucleotide sequence.
// The result is upper case and U is read as T.
func ReverseComplement(sequence string) (string, error) {
	normalized := strings.ReplaceAll(strings.ToUpper(sequence), "U", "T")

	s, err := seq.NewSeq(seq.DNAredundant, []byte(normalized))
	if err != nil {
		return "", errors.Wrapf(err, "invalid sequence %q", sequence)
	}

	return string(s.RevCom().Seq), nil
}

func revcompCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revcomp SEQUENCE",
		Short: "Print the reverse-complement of a primer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := ReverseComplement(args[0])
			if err != nil {
				return err
			}

			fmtUtil.Fprintf(cmd.OutOrStdout(), "Reverse-complement: %s\n", rc)

			return nil
		},
	}
}
