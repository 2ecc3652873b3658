package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"fishtank-aas/internal/aas"
	"fishtank-aas/internal/models"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const seedFile = "../../configs/fishtank.yaml"

func seedShell(t *testing.T) *aas.Shell {
	t.Helper()
	shell, err := aas.LoadFile(seedFile)
	require.NoError(t, err)
	return shell
}

func clone(s *aas.Shell) *aas.Shell {
	raw, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var out aas.Shell
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

// memShellStore keeps a private copy of the document, like a real store.
type memShellStore struct {
	mu      sync.Mutex
	shell   *aas.Shell
	saves   int
	findErr error
	saveErr error
}

func (m *memShellStore) FindShell(ctx context.Context) (*aas.Shell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.shell == nil {
		return nil, fmt.Errorf("shell: %w", aas.ErrNotFound)
	}
	return clone(m.shell), nil
}

func (m *memShellStore) SaveShell(ctx context.Context, shell *aas.Shell) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return false, m.saveErr
	}
	created := m.shell == nil || m.shell.ID != shell.ID
	m.shell = clone(shell)
	m.saves++
	return created, nil
}

func (m *memShellStore) stored() *aas.Shell {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shell == nil {
		return nil
	}
	return clone(m.shell)
}

type recordingPublisher struct {
	mu   sync.Mutex
	cmds []*models.FeedingCommand
	err  error
}

func (p *recordingPublisher) PublishFeedingCommand(cmd *models.FeedingCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.cmds = append(p.cmds, cmd)
	return nil
}

type memTemperatureStore struct {
	mu       sync.Mutex
	readings []models.TemperatureReading
	saveErr  error
	lastCtx  context.Context
}

func (m *memTemperatureStore) SaveTemperature(ctx context.Context, reading *models.TemperatureReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.readings = append(m.readings, *reading)
	return nil
}

func (m *memTemperatureStore) RecentTemperatures(ctx context.Context, limit int) ([]models.TemperatureReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCtx = ctx
	start := 0
	if len(m.readings) > limit {
		start = len(m.readings) - limit
	}
	return append([]models.TemperatureReading(nil), m.readings[start:]...), nil
}

func (m *memTemperatureStore) all() []models.TemperatureReading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TemperatureReading(nil), m.readings...)
}
