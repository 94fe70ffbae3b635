package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sushicount-api/models"
)

// LocalStore keeps client state in a single JSON file.
type LocalStore struct {
	path string
	mu   sync.Mutex
}

type localState struct {
	User                  *models.User `json:"user,omitempty"`
	Token                 string       `json:"token,omitempty"`
	ParticipantTotalCount *int         `json:"participantTotalCount,omitempty"`
}

func NewLocalStore(path string) *LocalStore {
	return &LocalStore{path: path}
}

// DefaultStorePath returns the state file under the user's config directory.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "sushicount", "state.json"), nil
}

func (s *LocalStore) Path() string {
	return s.path
}

func (s *LocalStore) User() (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return nil, err
	}
	return state.User, nil
}

func (s *LocalStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return "", err
	}
	return state.Token, nil
}

// SetLogin stores the signed-in user together with its token.
func (s *LocalStore) SetLogin(user models.User, token string) error {
	return s.update(func(state *localState) {
		state.User = &user
		state.Token = token
	})
}

func (s *LocalStore) SetUser(user models.User) error {
	return s.update(func(state *localState) {
		state.User = &user
	})
}

// ClearLogin forgets the user and token; the counter is kept.
func (s *LocalStore) ClearLogin() error {
	return s.update(func(state *localState) {
		state.User = nil
		state.Token = ""
	})
}

// Count returns the stored counter and whether it was set.
func (s *LocalStore) Count() (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return 0, false, err
	}
	if state.ParticipantTotalCount == nil {
		return 0, false, nil
	}
	return *state.ParticipantTotalCount, true, nil
}

func (s *LocalStore) SetCount(count int) error {
	return s.update(func(state *localState) {
		state.ParticipantTotalCount = &count
	})
}

func (s *LocalStore) ClearCount() error {
	return s.update(func(state *localState) {
		state.ParticipantTotalCount = nil
	})
}

func (s *LocalStore) update(fn func(*localState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	fn(&state)
	return s.save(state)
}

// load returns an empty state when the file does not exist yet.
func (s *LocalStore) load() (localState, error) {
	var state localState

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("read state: %w", err)
	}
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// save writes to a temp file in the same directory and renames it over the old state.
func (s *LocalStore) save(state localState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
