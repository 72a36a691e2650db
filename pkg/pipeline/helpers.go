package pipeline

import (
	"io"

	"github.com/askiada/amplicon-pipeline/pkg/process"
)

// drain consumes what is left of the output so the process can exit.
func drain(proc process.Process) (int64, error) {
	return io.Copy(io.Discard, proc.Output())
}
