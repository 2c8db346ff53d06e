package fl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

const (
	roundPrefix = "round_"
	modelPrefix = "model_v"
	fileSuffix  = ".json"
)

// PersistentStorage keeps round states and global model versions as JSON
// files, one per round and one per version.
type PersistentStorage struct {
	roundsDir string
	modelsDir string
	mu        sync.RWMutex
}

func NewPersistentStorage(roundsDir, modelsDir string) (*PersistentStorage, error) {
	for _, dir := range []string{roundsDir, modelsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	return &PersistentStorage{roundsDir: roundsDir, modelsDir: modelsDir}, nil
}

func (ps *PersistentStorage) SaveRound(state RoundState) error {
	path, err := ps.roundPath(state.RoundID)
	if err != nil {
		return err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	return writeJSON(path, state)
}

func (ps *PersistentStorage) LoadRound(roundID string) (RoundState, error) {
	path, err := ps.roundPath(roundID)
	if err != nil {
		return RoundState{}, err
	}

	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var state RoundState
	if err := readJSON(path, &state); err != nil {
		return RoundState{}, err
	}

	return state, nil
}

// ListRounds returns the sanitized IDs of all stored rounds, sorted.
func (ps *PersistentStorage) ListRounds() ([]string, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	names, err := listFiles(ps.roundsDir, roundPrefix)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)

	return names, nil
}

func (ps *PersistentStorage) SaveModel(model Model) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	return writeJSON(ps.modelPath(model.Version), model)
}

func (ps *PersistentStorage) LoadModel(version int) (Model, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var model Model
	if err := readJSON(ps.modelPath(version), &model); err != nil {
		return Model{}, err
	}

	return model, nil
}

// ListModels returns the stored model versions in ascending order.
func (ps *PersistentStorage) ListModels() ([]int, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	names, err := listFiles(ps.modelsDir, modelPrefix)
	if err != nil {
		return nil, err
	}

	versions := make([]int, 0, len(names))
	for _, name := range names {
		v, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	slices.Sort(versions)

	return versions, nil
}

func (ps *PersistentStorage) roundPath(roundID string) (string, error) {
	id := sanitizeRoundID(roundID)
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoundID, roundID)
	}

	return filepath.Join(ps.roundsDir, roundPrefix+id+fileSuffix), nil
}

func (ps *PersistentStorage) modelPath(version int) string {
	return filepath.Join(ps.modelsDir, modelPrefix+strconv.Itoa(version)+fileSuffix)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}

	return nil
}

// listFiles returns the name stems between prefix and the JSON suffix.
func listFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var stems []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stems = append(stems, strings.TrimSuffix(strings.TrimPrefix(name, prefix), fileSuffix))
	}

	return stems, nil
}

// sanitizeRoundID keeps only ASCII letters, digits, hyphens and underscores
// so that a round ID is always a single safe path element.
func sanitizeRoundID(roundID string) string {
	var b strings.Builder
	for _, r := range roundID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	return b.String()
}
