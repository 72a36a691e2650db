package workflow

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/askiada/amplicon-pipeline/pkg/config"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
	"github.com/askiada/amplicon-pipeline/pkg/primer"
	"github.com/askiada/amplicon-pipeline/pkg/samples"
)

// Denoising is the ASV graph: all samples are merged into a single read set before
// trimming, filtering and denoising with unoise3, then counted and classified with SINTAX.
func Denoising(cfg config.Config, all []samples.Sample, primers primer.Pair) Graph {
	b := newBuilder(cfg)

	stages := lo.FlatMap(all, func(s samples.Sample, _ int) []pipeline.Stage {
		return []pipeline.Stage{
			b.qualityCheck(s.ID, "Checking the quality of the reads [R1]", s.Forward),
			b.qualityCheck(s.ID, "Checking the quality of the reads [R2]", s.Reverse),
		}
	})

	var (
		merged     = b.st.Path("all_samples_merged", ".fq")
		subset     = b.st.Path("subset_"+subsampleSize+"_samples_merged", ".fq")
		hits       = b.st.Path("primer_hits", ".txt")
		forward    = b.st.Path("all_samples_trimmed_pfwd", ".fq")
		reverse    = b.st.Path("all_samples_trimmed_prev", ".fq")
		filteredFQ = b.st.Path("all_samples_filtered", ".fq")
		filteredFA = b.st.Path("all_samples_filtered", ".fa")
		derep      = b.st.Path("all_samples_dereplicated", ".fa")
		derepUC    = b.st.Path("all_samples_dereplicated", ".uc")
		asvs       = b.st.Path("ASVs", ".fa")
		unoise     = b.st.Path("unoise3", ".txt")
		counts     = b.st.Path("ASV_counts", ".txt")
		taxonomy   = b.st.Path("ASV_taxonomy", ".txt")
		abundance  = b.st.Path("abundance_table_asv", ".csv")
	)

	// usearch finds the reverse mate of every forward file by itself.
	mergeArgs := append([]string{"-fastq_mergepairs"}, samples.Forwards(all)...)
	mergeArgs = append(mergeArgs, "-fastqout", merged, "-relabel", "@")

	mergePairs := b.usearch("", "Merge all samples into one fastq file", markerMergeTotals, mergeArgs...)
	mergePairs.Consumes = model.Files(lo.FlatMap(all, func(s samples.Sample, _ int) []string {
		return []string{s.Forward, s.Reverse}
	})...)
	mergePairs.Produces = model.Files(merged)

	headers := b.substitute("Remove the samples path from read headers", merged, samplesPrefix(cfg.SamplesPath), "")

	dereplicate := b.vsearch("", "Dereplicate reads", markerDereplicate,
		"--derep_fulllength", filteredFA,
		"--strand", "plus",
		"--sizein",
		"--sizeout",
		"--fasta_width", "0",
		"--uc", derepUC,
		"--output", derep)
	dereplicate.Consumes = model.Files(filteredFA)
	dereplicate.Produces = model.Files(derepUC, derep)
	dereplicate.Count, dereplicate.CountLabel = derep, "Unique sequences"

	denoise := b.usearch("", "Generating ASVs", markerZotus,
		"-unoise3", derep,
		"-zotus", asvs,
		"-tabbedout", unoise)
	denoise.Consumes = model.Files(derep)
	denoise.Produces = model.Files(asvs, unoise)

	rename := b.substitute("Rename zOTUs to ASVs", asvs, "Zotu", "ASV_")
	rename.Count, rename.CountLabel = asvs, "Number of ASVs"

	countTable := b.vsearch("", "Generating a count table", markerOTUTable,
		"--usearch_global", filteredFA,
		"--threads", b.threads(),
		"--db", asvs,
		"--id", num(cfg.HighIdentity),
		"--otutabout", counts)
	countTable.Consumes = model.Files(filteredFA, asvs)
	countTable.Produces = model.Files(counts)

	classify := b.usearch("", "Assigning taxonomy", markerClassified,
		"-sintax", asvs,
		"-db", cfg.DatabaseFasta,
		"-tabbedout", taxonomy,
		"-strand", "both",
		"-sintax_cutoff", num(cfg.ClassificationCutoff))
	classify.Consumes = model.Files(asvs, cfg.DatabaseFasta)
	classify.Produces = model.Files(taxonomy)

	table := b.script(ASVAbundanceScript, "", "Get table of abundances of ASVs with taxonomy",
		taxonomy, counts, abundance)
	table.Consumes = model.Files(taxonomy, counts)
	table.Produces = model.Files(abundance)

	stages = append(stages,
		mergePairs,
		b.qualityCheck("", "[Merged] Checking the quality of the reads", merged),
		headers,
		b.subsample("", markerSampling, merged, subset),
		b.primerHits("", subset, hits),
		b.trimForward("", primers.Forward, merged, forward),
		b.trimReverse("", primers.ReverseComplement, forward, reverse),
		b.qualityFilter("", reverse, filteredFQ, filteredFA, "--fastq_qmax", "45"),
		b.qualityCheck("", "[Filtered] Checking the quality of the reads", filteredFQ),
		dereplicate, denoise, rename, countTable, classify, table,
	)

	return Graph{Stages: stages, AbundanceTable: abundance}
}

// samplesPrefix is the samples directory followed by exactly one separator, as it
// appears in the read labels written by usearch.
func samplesPrefix(dir string) string {
	return strings.TrimRight(dir, string(filepath.Separator)) + string(filepath.Separator)
}
