package workflow

import (
	"context"

	"github.com/samber/lo"

	"github.com/askiada/amplicon-pipeline/pkg/config"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
	"github.com/askiada/amplicon-pipeline/pkg/primer"
	"github.com/askiada/amplicon-pipeline/pkg/samples"
)

// runPrefix names the cross-sample artifacts. Aggregation skips files starting with it.
const runPrefix = "all"

// Clustering is the OTU graph: every sample is merged, trimmed and filtered on its own,
// then the filtered reads are pooled, dereplicated, cleaned of chimeras, clustered into
// OTUs and identified with blastn.
func Clustering(cfg config.Config, all []samples.Sample, primers primer.Pair) Graph {
	b := newBuilder(cfg)

	stages := lo.FlatMap(all, func(s samples.Sample, _ int) []pipeline.Stage {
		return b.clusteringSample(s, primers)
	})

	filtered := lo.Map(all, func(s samples.Sample, _ int) string {
		return b.st.Path(s.ID, ".filtered.fa")
	})

	var (
		pooled       = b.st.Path(runPrefix, ".fa")
		derep        = b.st.Path(runPrefix, ".dereplicated.fa")
		derepUC      = b.st.Path(runPrefix, ".dereplicated.uc")
		preclustered = b.st.Path(runPrefix, ".preclustered.fa")
		preclusterUC = b.st.Path(runPrefix, ".preclustered.uc")
		denovo       = b.st.Path(runPrefix, ".denovo.nonchimeras.fa")
		reference    = b.st.Path(runPrefix, ".ref.nonchimeras.fa")
		mapped       = b.st.Path(runPrefix, ".nonchimeras.dereplicated.fa")
		perSample    = b.st.Path(runPrefix, ".nonchimeras.fa")
		otus         = b.st.Path(runPrefix, ".otus.fa")
		clusteredUC  = b.st.Path(runPrefix, ".clustered.uc")
		otuTable     = b.st.Path(runPrefix, ".otutab.txt")
		biom         = b.st.Path(runPrefix, ".otutab.biom")
		blast        = b.st.Path("taxonomy", ".blast")
		abundance    = b.st.Path("abundance_table_otu", ".csv")
		identity     = num(cfg.ClusterIdentity)
	)

	merge := pipeline.Stage{
		Name:        "Merge all samples",
		Description: "Merge all samples",
		Program:     "merge",
		Consumes:    model.Files(filtered...),
		Produces:    model.Files(pooled),
		Action: func(context.Context) error {
			_, err := b.st.Aggregate(runPrefix, ".filtered.fa", pooled)

			return err
		},
		Count:      pooled,
		CountLabel: "Number of sequences",
	}

	dereplicate := b.vsearch("", "Dereplicate across samples and remove singletons", markerDereplicate,
		"--derep_fulllength", pooled,
		"--minuniquesize", "2",
		"--output", derep,
		"--sizein",
		"--sizeout",
		"--uc", derepUC,
		"--fasta_width", "0")
	dereplicate.Consumes = model.Files(pooled)
	dereplicate.Produces = model.Files(derep, derepUC)
	dereplicate.Count, dereplicate.CountLabel = derep, "Unique non-singleton sequences"

	precluster := b.vsearch("", "Precluster at "+percentLabel(cfg.ClusterIdentity)+" before chimera detection", markerCluster,
		"--cluster_size", derep,
		"--threads", b.threads(),
		"--id", identity,
		"--strand", "plus",
		"--sizein",
		"--sizeout",
		"--fasta_width", "0",
		"--uc", preclusterUC,
		"--centroids", preclustered)
	precluster.Consumes = model.Files(derep)
	precluster.Produces = model.Files(preclusterUC, preclustered)
	precluster.Count, precluster.CountLabel = preclustered, "Unique sequences after preclustering"

	deNovo := b.vsearch("", "De novo chimera detection", markerChimeras,
		"--uchime_denovo", preclustered,
		"--sizein",
		"--sizeout",
		"--fasta_width", "0",
		"--nonchimeras", denovo)
	deNovo.Consumes = model.Files(preclustered)
	deNovo.Produces = model.Files(denovo)
	deNovo.Count, deNovo.CountLabel = denovo, "Unique sequences after de novo chimera detection"

	refChimeras := b.vsearch("", "Reference chimera detection", markerChimeras,
		"--uchime_ref", denovo,
		"--threads", b.threads(),
		"--db", cfg.DatabaseFasta,
		"--sizein",
		"--sizeout",
		"--fasta_width", "0",
		"--nonchimeras", reference)
	refChimeras.Consumes = model.Files(denovo, cfg.DatabaseFasta)
	refChimeras.Produces = model.Files(reference)
	refChimeras.Count, refChimeras.CountLabel = reference, "Unique sequences after reference-based chimera detection"

	mapDereplicated := b.mapping("Extract all non-chimeric, non-singleton sequences, dereplicated",
		derep, preclusterUC, reference, mapped)
	mapDereplicated.Consumes = model.Files(derep, preclusterUC, reference)
	mapDereplicated.Produces = model.Files(mapped)
	mapDereplicated.Count, mapDereplicated.CountLabel = mapped, "Unique non-chimeric, non-singleton sequences"

	mapSamples := b.mapping("Extract all non-chimeric, non-singleton sequences in each sample",
		pooled, derepUC, mapped, perSample)
	mapSamples.Consumes = model.Files(pooled, derepUC, mapped)
	mapSamples.Produces = model.Files(perSample)
	mapSamples.Count, mapSamples.CountLabel = perSample, "Sum of unique non-chimeric, non-singleton sequences in each sample"

	cluster := b.vsearch("", "Cluster at "+percentLabel(cfg.ClusterIdentity)+" and relabel with OTU_n, generate OTU table", markerCluster,
		"--cluster_size", perSample,
		"--threads", b.threads(),
		"--id", identity,
		"--strand", "plus",
		"--sizein",
		"--sizeout",
		"--fasta_width", "0",
		"--relabel", "OTU_",
		"--uc", clusteredUC,
		"--centroids", otus,
		"--otutabout", otuTable,
		"--biomout", biom)
	cluster.Consumes = model.Files(perSample)
	cluster.Produces = model.Files(clusteredUC, otus, otuTable, biom)
	cluster.Count, cluster.CountLabel = otus, "Number of OTUs"

	identify := b.tool("blastn", cfg.Toolchain.Blastn, "", "Identification of OTUs using BLAST", "",
		"-db", cfg.DatabaseBin,
		"-query", otus,
		"-perc_identity", num(config.Percent(cfg.BlastIdentity)),
		"-qcov_hsp_perc", blastCoverage,
		"-outfmt", blastFormat,
		"-out", blast)
	identify.Classifier.AlwaysSucceed = true
	identify.Consumes = model.Files(otus)
	identify.Produces = model.Files(blast)

	table := b.script(OTUAbundanceScript, "", "Get table of abundances of OTUs with taxonomy",
		cfg.DatabaseType, blast, otuTable, abundance)
	table.Consumes = model.Files(blast, otuTable)
	table.Produces = model.Files(abundance)

	stages = append(stages,
		merge, dereplicate, precluster, deNovo, refChimeras,
		mapDereplicated, mapSamples, cluster, identify, table,
	)

	return Graph{Stages: stages, AbundanceTable: abundance}
}

func (b *builder) clusteringSample(s samples.Sample, primers primer.Pair) []pipeline.Stage {
	var (
		merged     = b.st.Path(s.ID, ".merged.fq")
		subset     = b.st.Path(s.ID, ".merged_subset_"+subsampleSize+".fq")
		hits       = b.st.Path(s.ID, ".merged_primer_hits.txt")
		forward    = b.st.Path(s.ID, ".trimmed_pfwd.fq")
		reverse    = b.st.Path(s.ID, ".trimmed_prev.fq")
		filteredFQ = b.st.Path(s.ID, ".filtered.fq")
		filteredFA = b.st.Path(s.ID, ".filtered.fa")
	)

	mergePairs := b.vsearch(s.ID, "Merge paired-end sequence reads", markerMergePairs,
		"--fastq_mergepairs", s.Forward,
		"--reverse", s.Reverse,
		"--threads", b.threads(),
		"--fastqout", merged,
		"--fastq_eeout")
	mergePairs.Consumes = model.Files(s.Forward, s.Reverse)
	mergePairs.Produces = model.Files(merged)

	return []pipeline.Stage{
		b.qualityCheck(s.ID, "Checking the quality of the reads [R1]", s.Forward),
		b.qualityCheck(s.ID, "Checking the quality of the reads [R2]", s.Reverse),
		mergePairs,
		b.qualityCheck(s.ID, "Checking the quality of the reads [Merged]", merged),
		b.subsample(s.ID, markerSubsample, merged, subset),
		b.primerHits(s.ID, subset, hits),
		b.trimForward(s.ID, primers.Forward, merged, forward),
		b.trimReverse(s.ID, primers.ReverseComplement, forward, reverse),
		b.qualityFilter(s.ID, reverse, filteredFQ, filteredFA, "--relabel", s.ID+"."),
		b.qualityCheck(s.ID, "Checking the quality of the reads [Filtered]", filteredFQ),
	}
}

// percentLabel renders an identity fraction for stage descriptions, e.g. 0.97 as "97%".
func percentLabel(fraction float64) string {
	return num(config.Percent(fraction)) + "%"
}
