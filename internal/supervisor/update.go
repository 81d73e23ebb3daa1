package supervisor

import (
	"runtimed/pkg/types"
)

// ConfigPatch is a partial server config; nil fields are left unchanged.
type ConfigPatch struct {
	Name          *string           `json:"name,omitempty"`
	Kind          *types.ServerKind `json:"kind,omitempty"`
	Port          *int              `json:"port,omitempty"`
	ModelPath     *string           `json:"model_path,omitempty"`
	ContextSize   *int              `json:"context_size,omitempty"`
	MaxConcurrent *int              `json:"max_concurrent,omitempty"`
	TimeoutSec    *int              `json:"timeout_sec,omitempty"`
}

func (p ConfigPatch) apply(cfg *types.ServerConfig) {
	if p.Name != nil {
		cfg.Name = *p.Name
	}
	if p.Kind != nil {
		cfg.Kind = *p.Kind
	}
	if p.Port != nil {
		cfg.Port = *p.Port
	}
	if p.ModelPath != nil {
		cfg.ModelPath = *p.ModelPath
	}
	if p.ContextSize != nil {
		cfg.ContextSize = *p.ContextSize
	}
	if p.MaxConcurrent != nil {
		cfg.MaxConcurrent = *p.MaxConcurrent
	}
	if p.TimeoutSec != nil {
		cfg.TimeoutSec = *p.TimeoutSec
	}
}

// UpdateConfig declares a new server (idempotent upsert for unknown ids,
// inserted with stopped status) or merges a patch into an existing one.
// Refused while the server is running.
func (s *Supervisor) UpdateConfig(id string, patch ConfigPatch) (types.ServerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] != nil {
		return types.ServerConfig{}, cannotUpdateWhileRunningError{id: id}
	}
	cfg, ok := s.st.Get(id)
	if !ok {
		cfg = types.ServerConfig{ID: id, Status: types.StatusStopped}
	}
	patch.apply(&cfg)
	if err := validateConfig(cfg); err != nil {
		return types.ServerConfig{}, err
	}
	if err := s.st.Upsert(cfg); err != nil {
		return types.ServerConfig{}, err
	}
	s.log.Info().Str("server", id).Str("kind", string(cfg.Kind)).Int("port", cfg.Port).Msg("config updated")
	cfg, _ = s.st.Get(id)
	return cfg, nil
}

// RemoveServer deletes a declared server. Refused while running; unknown
// ids fail with not-found.
func (s *Supervisor) RemoveServer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] != nil {
		return cannotUpdateWhileRunningError{id: id}
	}
	if _, ok := s.st.Get(id); !ok {
		return notFoundError{id: id}
	}
	if err := s.st.Delete(id); err != nil {
		return err
	}
	s.log.Info().Str("server", id).Msg("server removed")
	return nil
}
