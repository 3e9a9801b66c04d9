package bnn

import (
	"bytes"
	"encoding"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultStoreRoot keeps model artifacts under the repository-local
	// scratch tree.
	DefaultStoreRoot = "local/models/bnn_expl"

	// ModelFileName is the persisted posterior.
	ModelFileName = "bnn.model"

	ensembleDirName  = "ensemble"
	roundFilePattern = "network_%d.model"
)

var (
	ErrStoreRootRequired = errors.New("bnn: store root required")
	ErrNoModel           = errors.New("bnn: no persisted model")
	ErrBadRound          = errors.New("bnn: round index must be non-negative")
)

// Store owns the on-disk layout for one exploration target: the
// trained posterior at {root}/bnn.model and per-round concrete
// instances under {root}/ensemble/.
type Store struct {
	root string
}

// NewStore roots a store at dir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, ErrStoreRootRequired
	}
	return &Store{root: dir}, nil
}

// Root reports the store directory.
func (s *Store) Root() string { return s.root }

// ModelPath reports where the posterior lives.
func (s *Store) ModelPath() string {
	return filepath.Join(s.root, ModelFileName)
}

// ModelExists reports whether a posterior has been persisted.
func (s *Store) ModelExists() bool {
	info, err := os.Stat(s.ModelPath())
	return err == nil && !info.IsDir()
}

func (s *Store) roundPath(round int) string {
	return filepath.Join(s.root, ensembleDirName, fmt.Sprintf(roundFilePattern, round))
}

type layerWire struct {
	In, Out                            int
	WeightMu, WeightLV, BiasMu, BiasLV denseWire
}

type netWire struct {
	Hidden, Out layerWire
}

func packLayer(l *Layer) layerWire {
	return layerWire{
		In:       l.In,
		Out:      l.Out,
		WeightMu: packDense(l.WeightMu),
		WeightLV: packDense(l.WeightLV),
		BiasMu:   packDense(l.BiasMu),
		BiasLV:   packDense(l.BiasLV),
	}
}

func (w layerWire) unpack() (*Layer, error) {
	l := &Layer{In: w.In, Out: w.Out}
	var err error
	if l.WeightMu, err = w.WeightMu.unpack(); err != nil {
		return nil, err
	}
	if l.WeightLV, err = w.WeightLV.unpack(); err != nil {
		return nil, err
	}
	if l.BiasMu, err = w.BiasMu.unpack(); err != nil {
		return nil, err
	}
	if l.BiasLV, err = w.BiasLV.unpack(); err != nil {
		return nil, err
	}
	return l, nil
}

// SaveModel persists the posterior, creating the store root as needed.
func (s *Store) SaveModel(net *Net) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("bnn: create store root: %w", err)
	}
	var buf bytes.Buffer
	wire := netWire{Hidden: packLayer(net.Hidden), Out: packLayer(net.Out)}
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return fmt.Errorf("bnn: encode model: %w", err)
	}
	if err := os.WriteFile(s.ModelPath(), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("bnn: write model: %w", err)
	}
	log.Info().Str("path", s.ModelPath()).Msg("bnn.Store.SaveModel persisted")
	return nil
}

// LoadModel restores a posterior persisted by SaveModel.
func (s *Store) LoadModel() (*Net, error) {
	data, err := os.ReadFile(s.ModelPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, s.ModelPath())
	}
	if err != nil {
		return nil, fmt.Errorf("bnn: read model: %w", err)
	}
	var wire netWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("bnn: decode model: %w", err)
	}
	hidden, err := wire.Hidden.unpack()
	if err != nil {
		return nil, err
	}
	out, err := wire.Out.unpack()
	if err != nil {
		return nil, err
	}
	return &Net{Hidden: hidden, Out: out}, nil
}

// SaveRound persists one round's concrete instance under the ensemble
// directory and returns the artifact path.
func (s *Store) SaveRound(round int, artifact encoding.BinaryMarshaler) (string, error) {
	if round < 0 {
		return "", fmt.Errorf("%w: %d", ErrBadRound, round)
	}
	data, err := artifact.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("bnn: encode round artifact: %w", err)
	}
	path := s.roundPath(round)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("bnn: create ensemble dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("bnn: write round artifact: %w", err)
	}
	return path, nil
}

// LoadRound restores the concrete instance persisted for one round.
func (s *Store) LoadRound(round int) (*ConcreteNet, error) {
	if round < 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadRound, round)
	}
	data, err := os.ReadFile(s.roundPath(round))
	if err != nil {
		return nil, fmt.Errorf("bnn: read round artifact: %w", err)
	}
	var c ConcreteNet
	if err := c.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &c, nil
}
