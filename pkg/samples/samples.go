// Package samples finds the paired-end read files of a run.
package samples

import (
	"io/fs"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var forwardRe = regexp.MustCompile(`_[Rr]1_[\w-]+\.(?i:fastq|fq)$`)

// Sample is one pair of read files.
type Sample struct {
	// ID is the file name part before _R1_.
	ID      string
	Forward string
	Reverse string
}

// IsForward reports whether name follows the <part1>_R1_<part2>.fastq convention.
func IsForward(name string) bool {
	return forwardRe.MatchString(name)
}

// mate derives the reverse read file name and the sample ID from a forward read name.
// The read infix keeps its case: A_r1_x.fq pairs with A_r2_x.fq.
func mate(name string) (reverse, id string) {
	loc := forwardRe.FindStringIndex(name)
	start := loc[0]

	return name[:start+2] + "2" + name[start+3:], name[:start]
}

func walk(root string, fn func(dir, name string) error) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() || !IsForward(entry.Name()) {
			return nil
		}

		return fn(filepath.Dir(path), entry.Name())
	})
}

// ErrDuplicateSample is returned when two forward read files yield the same sample ID.
var ErrDuplicateSample = errors.New("duplicate sample ID")

// Discover walks root and returns one Sample per forward read file, in lexical path order.
// Sample IDs name the run artifacts, so two files sharing an ID are rejected.
func Discover(root string) ([]Sample, error) {
	var found []Sample

	seen := map[string]string{}

	err := walk(root, func(dir, name string) error {
		reverse, id := mate(name)
		forward := filepath.Join(dir, name)

		if first, ok := seen[id]; ok {
			return errors.Wrapf(ErrDuplicateSample, "%s is used by %s and %s", id, first, forward)
		}

		seen[id] = forward
		found = append(found, Sample{
			ID:      id,
			Forward: forward,
			Reverse: filepath.Join(dir, reverse),
		})

		return nil
	})
	switch {
	case errors.Is(err, ErrDuplicateSample):
		return nil, err
	case err != nil:
		return nil, errors.Wrapf(err, "unable to walk %s", root)
	}

	return found, nil
}

// Forwards returns the forward read paths of all samples.
func Forwards(all []Sample) []string {
	return lo.Map(all, func(s Sample, _ int) string {
		return s.Forward
	})
}
