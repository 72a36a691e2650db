package workflow

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/askiada/amplicon-pipeline/pkg/config"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
	"github.com/askiada/amplicon-pipeline/pkg/stager"
)

// Helper scripts looked up in the util path. MapCommand is the amplicon-util counterpart
// of MapScript.
const (
	MapScript          = "map.py"
	MapCommand         = "map"
	OTUAbundanceScript = "get_abundances_table_otu.py"
	ASVAbundanceScript = "get_abundances_table_asv.py"
)

// Success markers of the external tools.
const (
	markerFastQC      = "Analysis complete"
	markerMergePairs  = "Statistics of merged reads"
	markerMergeTotals = "Totals:"
	markerSubsample   = "100.0% Sampling"
	markerSampling    = "Sampling"
	markerOligoDB     = "matched"
	markerCutadapt    = "Overview of removed sequences"
	markerFilter      = "Reading input file 100%"
	markerDereplicate = "Writing FASTA output file 100%"
	markerCluster     = "Clustering 100%"
	markerChimeras    = "Detecting chimeras 100%"
	markerZotus       = "Writing zotus"
	markerOTUTable    = "Writing OTU table"
	markerClassified  = "100.0% Processing"
	markerMapped      = "Mapped sequences"
)

const (
	subsampleSize = "1000"
	blastCoverage = "90.0"
	blastFormat   = "6 qseqid sseqid stitle pident length mismatch gapopen qstart qend sstart send evalue bitscore qcovhsp qcovs"
)

// builder creates the stages shared by both graphs.
type builder struct {
	cfg config.Config
	st  *stager.Stager
}

func newBuilder(cfg config.Config) *builder {
	return &builder{cfg: cfg, st: stager.New(cfg.OutputPath)}
}

func (b *builder) threads() string {
	return strconv.Itoa(b.cfg.Threads)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func named(sample, description string) string {
	if sample == "" {
		return description
	}

	return sample + ": " + description
}

func (b *builder) tool(program, path, sample, description, marker string, args ...string) pipeline.Stage {
	return pipeline.Stage{
		Name:        named(sample, description),
		Description: named(sample, description),
		Program:     program,
		Path:        path,
		Args:        args,
		Classifier:  pipeline.Classifier{Marker: marker},
		Sample:      sample,
	}
}

func (b *builder) vsearch(sample, description, marker string, args ...string) pipeline.Stage {
	return b.tool("vsearch", b.cfg.Toolchain.Vsearch, sample, description, marker, args...)
}

func (b *builder) usearch(sample, description, marker string, args ...string) pipeline.Stage {
	return b.tool("usearch", b.cfg.Toolchain.Usearch, sample, description, marker, args...)
}

// mapping extracts the sequences of fasta1 mapped to fasta2 through a uc file. Only the
// native helper prints a completion line.
func (b *builder) mapping(description, fasta1, uc, fasta2, output string) pipeline.Stage {
	if !b.cfg.NativeHelpers() {
		return b.script(MapScript, "", description, fasta1, uc, fasta2, output)
	}

	cmd := b.cfg.Helper(MapScript, MapCommand).With(fasta1, uc, fasta2, output)

	return b.tool(config.UtilBinary, cmd.Program, "", description, markerMapped, cmd.Args...)
}

// script runs a helper of the util path. Helpers print no reliable completion line.
func (b *builder) script(name, sample, description string, args ...string) pipeline.Stage {
	st := b.tool(name, b.cfg.Interpreter, sample, description, "",
		append([]string{filepath.Join(b.cfg.UtilPath, name)}, args...)...)
	st.Classifier.AlwaysSucceed = true

	return st
}

// qualityCheck runs FastQC on input. On platforms where FastQC writes its reports next
// to its input, they are moved into the output directory afterwards.
func (b *builder) qualityCheck(sample, description, input string) pipeline.Stage {
	cmd := b.cfg.Toolchain.QualityCheck(input, b.st.Dir())
	st := b.tool("fastqc", cmd.Program, sample, description, markerFastQC, cmd.Args...)
	st.Consumes = model.Files(input)

	if b.cfg.Toolchain.RelocatesReports() {
		st.After = func(context.Context) error {
			return b.st.RelocateReports(input)
		}
	}

	return st
}

func (b *builder) subsample(sample, marker, input, output string) pipeline.Stage {
	st := b.usearch(sample, "Extraction of a subsample of "+subsampleSize+" reads", marker,
		"-fastx_subsample", input,
		"-sample_size", subsampleSize,
		"-fastqout", output)
	st.Consumes = model.Files(input)
	st.Produces = model.Files(output)

	return st
}

func (b *builder) primerHits(sample, input, output string) pipeline.Stage {
	st := b.usearch(sample, "Verification of the position of the primers", markerOligoDB,
		"-search_oligodb", input,
		"-db", b.cfg.PrimersFile,
		"-strand", "both",
		"-userout", output,
		"-userfields", "query+qlo+qhi+qstrand")
	st.Consumes = model.Files(input, b.cfg.PrimersFile)
	st.Produces = model.Files(output)

	return st
}

func (b *builder) trimForward(sample, primer, input, output string) pipeline.Stage {
	return b.cutadapt(sample, "Removal of the forward-primer (5')", "-g", primer, input, output)
}

func (b *builder) trimReverse(sample, primer, input, output string) pipeline.Stage {
	return b.cutadapt(sample, "Removal of the reverse-primer (3')", "-a", primer, input, output)
}

func (b *builder) cutadapt(sample, description, flag, primer, input, output string) pipeline.Stage {
	st := b.tool("cutadapt", b.cfg.Toolchain.Cutadapt, sample, description, markerCutadapt,
		flag, primer,
		"--discard-untrimmed",
		"-o", output,
		input)
	st.Consumes = model.Files(input)
	st.Produces = model.Files(output)

	return st
}

// qualityFilter discards reads above the expected error threshold or outside the length
// bounds. extra is appended before the optional maximum length.
func (b *builder) qualityFilter(sample, input, fastq, fasta string, extra ...string) pipeline.Stage {
	args := []string{
		"--fastq_filter", input,
		"--fastq_maxee", num(b.cfg.FilterMaxEE),
		"--fastq_minlen", strconv.Itoa(b.cfg.FilterMinLen),
		"--eeout",
		"--fastqout", fastq,
		"--fastaout", fasta,
		"--fasta_width", "0",
	}
	args = append(args, extra...)

	if b.cfg.FilterMaxLen > 0 {
		args = append(args, "--fastq_maxlen", strconv.Itoa(b.cfg.FilterMaxLen))
	}

	st := b.vsearch(sample, "Quality filtering", markerFilter, args...)
	st.Consumes = model.Files(input)
	st.Produces = model.Files(fastq, fasta)

	return st
}

// substitute rewrites a file in place, e.g. to normalize sequence headers.
func (b *builder) substitute(description, path, from, to string) pipeline.Stage {
	return pipeline.Stage{
		Name:        description,
		Description: description,
		Program:     "rename",
		Consumes:    model.Files(path),
		Action: func(context.Context) error {
			return stager.Substitute(path, from, to)
		},
	}
}
