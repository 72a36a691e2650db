// Package store keeps the artifacts of a run in a directed acyclic graph: an edge goes
// from every file a stage consumes to every file it produces.
package store

import (
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
)

// ErrArtifactAlreadyProduced is returned when two stages claim the same output.
var ErrArtifactAlreadyProduced = errors.New("artifact already produced")

func artifactHash(a *model.Artifact) string {
	return a.Path
}

// ArtifactStore is safe for concurrent use.
type ArtifactStore struct {
	lock  sync.RWMutex
	graph graph.Graph[string, *model.Artifact]
}

// NewArtifactStore returns an empty store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		graph: graph.New(artifactHash, graph.Directed(), graph.PreventCycles()),
	}
}

// Record registers the files of one stage. Consumed files unknown to the store are run
// inputs. A produced file may only have one producer.
func (s *ArtifactStore) Record(stage string, consumes, produces []model.Artifact) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, out := range produces {
		existing, err := s.graph.Vertex(out.Path)
		if err == nil {
			producer := existing.Producer
			if producer == "" {
				producer = "run input"
			}

			return errors.Wrapf(ErrArtifactAlreadyProduced, "%s by %s, claimed by %s", out.Path, producer, stage)
		}
	}

	for _, in := range consumes {
		artifact, err := s.vertex(in)
		if err != nil {
			return err
		}

		artifact.Consumers = append(artifact.Consumers, stage)
	}

	for _, out := range produces {
		artifact := out
		artifact.Producer = stage
		artifact.Consumers = nil

		err := s.graph.AddVertex(&artifact)
		if err != nil {
			return errors.Wrapf(err, "unable to add %s", out.Path)
		}

		for _, in := range consumes {
			err = s.graph.AddEdge(in.Path, out.Path, graph.EdgeAttribute("stage", stage))
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return errors.Wrapf(err, "unable to link %s to %s", in.Path, out.Path)
			}
		}
	}

	return nil
}

func (s *ArtifactStore) vertex(a model.Artifact) (*model.Artifact, error) {
	existing, err := s.graph.Vertex(a.Path)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, graph.ErrVertexNotFound) {
		return nil, errors.Wrapf(err, "unable to get %s", a.Path)
	}

	input := a
	input.Producer = ""
	input.Consumers = nil

	err = s.graph.AddVertex(&input)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to add %s", a.Path)
	}

	return &input, nil
}

// Artifacts returns every artifact, inputs first, in a stable topological order. Sources
// lists the files each artifact was directly derived from, sorted.
func (s *ArtifactStore) Artifacts() ([]model.Artifact, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	order, err := graph.StableTopologicalSort(s.graph, func(a, b string) bool {
		return a < b
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort artifacts")
	}

	predecessors, err := s.graph.PredecessorMap()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get predecessors")
	}

	out := make([]model.Artifact, 0, len(order))
	for _, path := range order {
		artifact, err := s.graph.Vertex(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to get %s", path)
		}

		a := clone(artifact)
		a.Sources = nil

		for source := range predecessors[path] {
			a.Sources = append(a.Sources, source)
		}

		sort.Strings(a.Sources)
		out = append(out, a)
	}

	return out, nil
}

func clone(a *model.Artifact) model.Artifact {
	out := *a
	out.Consumers = append([]string(nil), a.Consumers...)

	return out
}
