// Package archive persists finished simulation runs in a store: the mean
// trajectory as checksummed XOR chunks and a YAML manifest pointing at them.
package archive

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"pathsim/internal/codec"
	"pathsim/internal/sim"
	"pathsim/internal/store"
)

// LatestRef names the most recently saved run.
const LatestRef = "latest"

// chunkSamples caps the samples written per trajectory chunk.
const chunkSamples = 4096

const manifestKind = "pathsim/run"

// ErrNotManifest is returned by Load for objects that are not run manifests,
// such as trajectory or path chunks.
var ErrNotManifest = errors.New("not a run manifest")

type Manifest struct {
	Kind        string               `yaml:"kind"`
	CreatedAt   time.Time            `yaml:"created_at"`
	Seed        uint64               `yaml:"seed"`
	Config      sim.Config           `yaml:"config"`
	TotalSteps  int                  `yaml:"total_steps"`
	Summary     sim.Summary          `yaml:"summary"`
	Withdrawals []sim.Withdrawal     `yaml:"withdrawals,omitempty"`
	Events      []sim.DepletionEvent `yaml:"events,omitempty"`
	// Chunks lists the trajectory chunk hashes in step order.
	Chunks []string `yaml:"chunks"`
	// Final is the terminal value of every path.
	Final []float64 `yaml:"final"`
}

// Save stores res and moves the latest ref to it. It returns the manifest
// hash.
func Save(st *store.Store, res *sim.Result, seed uint64, now time.Time) (string, error) {
	m := Manifest{
		Kind:        manifestKind,
		CreatedAt:   now.UTC(),
		Seed:        seed,
		Config:      res.Config,
		TotalSteps:  res.TotalSteps,
		Summary:     res.Summary,
		Withdrawals: res.Withdrawals,
		Events:      res.Events,
		Final:       res.Final,
	}

	for lo := 0; lo < len(res.MeanPath); lo += chunkSamples {
		hi := min(lo+chunkSamples, len(res.MeanPath))
		data, err := codec.EncodeSeries(res.MeanPath[lo:hi])
		if err != nil {
			return "", fmt.Errorf("encode trajectory: %w", err)
		}
		hash, err := st.Put(data)
		if err != nil {
			return "", fmt.Errorf("store trajectory chunk: %w", err)
		}
		m.Chunks = append(m.Chunks, hash)
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	hash, err := st.Put(data)
	if err != nil {
		return "", fmt.Errorf("store manifest: %w", err)
	}
	if err := st.SetRef(LatestRef, hash); err != nil {
		return "", err
	}
	return hash, nil
}

// Load reads the manifest named by a ref, a full hash or a hash prefix.
func Load(st *store.Store, name string) (*Manifest, string, error) {
	hash, err := resolve(st, name)
	if err != nil {
		return nil, "", err
	}

	data, err := st.Get(hash)
	if err != nil {
		return nil, "", err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, "", fmt.Errorf("object %s: %w (%v)", hash, ErrNotManifest, err)
	}
	if m.Kind != manifestKind {
		return nil, "", fmt.Errorf("object %s: %w", hash, ErrNotManifest)
	}
	return &m, hash, nil
}

// List returns the manifest hashes in the store, skipping trajectory chunks.
func List(st *store.Store) ([]string, []*Manifest, error) {
	hashes, err := st.List()
	if err != nil {
		return nil, nil, err
	}

	var (
		runs      []string
		manifests []*Manifest
	)
	for _, h := range hashes {
		data, err := st.Get(h)
		if err != nil {
			return nil, nil, err
		}
		var m Manifest
		if yaml.Unmarshal(data, &m) != nil || m.Kind != manifestKind {
			continue
		}
		runs = append(runs, h)
		manifests = append(manifests, &m)
	}
	return runs, manifests, nil
}

// Trajectory decodes the stored mean path.
func (m *Manifest) Trajectory(st *store.Store) ([]float64, error) {
	out := make([]float64, 0, m.TotalSteps)
	for _, h := range m.Chunks {
		data, err := st.Get(h)
		if err != nil {
			return nil, err
		}
		values, err := codec.DecodeSeries(data)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", h, err)
		}
		out = append(out, values...)
	}
	return out, nil
}

// Result rebuilds a sim.Result from the manifest and its trajectory.
func (m *Manifest) Result(st *store.Store) (*sim.Result, error) {
	path, err := m.Trajectory(st)
	if err != nil {
		return nil, err
	}
	return &sim.Result{
		Config:      m.Config,
		TotalSteps:  m.TotalSteps,
		Final:       m.Final,
		Events:      m.Events,
		Withdrawals: m.Withdrawals,
		MeanPath:    path,
		Summary:     m.Summary,
	}, nil
}

func resolve(st *store.Store, name string) (string, error) {
	if name == "" {
		name = LatestRef
	}
	hash, err := st.Ref(name)
	if err == nil {
		return hash, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	return st.Resolve(name)
}
