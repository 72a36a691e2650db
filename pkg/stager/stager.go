// Package stager names the intermediate artifacts of a run and moves data between them.
package stager

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
)

// Stager owns the output directory of a run.
type Stager struct {
	dir string
}

// New returns a Stager writing into dir.
func New(dir string) *Stager {
	return &Stager{dir: dir}
}

// Dir is the output directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Path names an artifact from a sample or run prefix and a suffix, e.g. ("A", ".merged.fq").
func (s *Stager) Path(prefix, suffix string) string {
	return filepath.Join(s.dir, prefix+suffix)
}

// Aggregate concatenates every file of the output directory ending in suffix into dest.
// Files whose name starts with prefix are skipped so a previous aggregate is never re-included.
// It returns the included files in walk order.
func (s *Stager) Aggregate(prefix, suffix, dest string) ([]string, error) {
	var parts []string

	err := filepath.WalkDir(s.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := entry.Name()
		if entry.IsDir() || path == dest || !strings.HasSuffix(name, suffix) || strings.HasPrefix(name, prefix) {
			return nil
		}

		parts = append(parts, path)

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to walk %s", s.dir)
	}

	out, err := xopen.Wopen(dest)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", dest)
	}

	for _, part := range parts {
		err = appendFile(out, part)
		if err != nil {
			_ = out.Close()

			return nil, err
		}
	}

	err = out.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to close %s", dest)
	}

	return parts, nil
}

func appendFile(out io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "unable to stat %s", path)
	}

	if info.Size() == 0 {
		return nil
	}

	in, err := xopen.Ropen(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", path)
	}
	defer in.Close()

	_, err = io.Copy(out, in)
	if err != nil {
		return errors.Wrapf(err, "unable to copy %s", path)
	}

	return nil
}

// Substitute replaces every occurrence of from with to in the file at path.
func Substitute(path, from, to string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "unable to read %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "unable to stat %s", path)
	}

	err = os.WriteFile(path, bytes.ReplaceAll(data, []byte(from), []byte(to)), info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}

	return nil
}

// CountSequences returns the number of records of a FASTA or FASTQ file.
func CountSequences(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to stat %s", path)
	}

	if info.Size() == 0 {
		return 0, nil
	}

	reader, err := fastx.NewReader(seq.Unlimit, path, fastx.DefaultIDRegexp)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to read %s", path)
	}
	defer reader.Close()

	n := 0
	for {
		_, err = reader.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		if err != nil {
			return n, errors.Wrapf(err, "unable to parse %s", path)
		}

		n++
	}
}

// RelocateReports moves the FastQC reports of input into the output directory when
// input lives elsewhere. Existing reports in the output directory are replaced.
func (s *Stager) RelocateReports(input string) error {
	inputDir := filepath.Dir(input)
	if filepath.Clean(inputDir) == filepath.Clean(s.dir) {
		return nil
	}

	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	for _, report := range []string{stem + "_fastqc.zip", stem + "_fastqc.html"} {
		dest := filepath.Join(s.dir, report)
		if osUtil.FileExists(dest) {
			err := os.Remove(dest)
			if err != nil {
				return errors.Wrapf(err, "unable to remove %s", dest)
			}
		}

		err := os.Rename(filepath.Join(inputDir, report), dest)
		if err != nil {
			return errors.Wrapf(err, "unable to move %s", report)
		}
	}

	return nil
}
