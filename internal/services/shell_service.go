package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fishtank-aas/internal/aas"
	"fishtank-aas/internal/metrics"
	"fishtank-aas/internal/models"
)

var (
	// ErrShellNotFound is returned when the document store holds no shell.
	ErrShellNotFound = fmt.Errorf("shell: %w", aas.ErrNotFound)
	// ErrInvalidValue is returned for a property write without a usable value.
	ErrInvalidValue = errors.New("invalid property value")
)

// ShellStore persists the shell as a whole document.
type ShellStore interface {
	FindShell(ctx context.Context) (*aas.Shell, error)
	SaveShell(ctx context.Context, shell *aas.Shell) (created bool, err error)
}

// CommandPublisher forwards feeding-schedule changes to the device.
type CommandPublisher interface {
	PublishFeedingCommand(cmd *models.FeedingCommand) error
}

// PropertyView is a property flattened out of the tree, as listed by the
// property endpoints.
type PropertyView struct {
	Path      string        `json:"path"`
	Submodel  string        `json:"submodel"`
	IDShort   string        `json:"id_short"`
	Value     string        `json:"value"`
	ValueType aas.ValueType `json:"value_type,omitempty"`
	Kind      aas.Kind      `json:"kind,omitempty"`
}

func newPropertyView(ref aas.PropertyRef) PropertyView {
	return PropertyView{
		Path:      ref.Path.String(),
		Submodel:  ref.Path.Submodel(),
		IDShort:   ref.Property.IDShort,
		Value:     ref.Property.Value,
		ValueType: ref.Property.ValueType,
		Kind:      ref.Property.Kind,
	}
}

// ShellService reads and writes the shell. Every write is a read-modify-write
// of the whole document; writes are serialized so concurrent updates cannot
// overwrite each other.
type ShellService struct {
	store     ShellStore
	publisher CommandPublisher
	resolver  *aas.Resolver
	logger    *slog.Logger
	metrics   *metrics.Metrics

	storeTimeout time.Duration
	now          func() time.Time

	mu sync.Mutex
}

// ShellServiceConfig holds configuration for the shell service
type ShellServiceConfig struct {
	// StoreTimeout bounds every document store round trip.
	StoreTimeout time.Duration
}

// NewShellService creates a new shell service. publisher may be nil, in which
// case no commands are forwarded.
func NewShellService(
	store ShellStore,
	publisher CommandPublisher,
	resolver *aas.Resolver,
	config ShellServiceConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *ShellService {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = 5 * time.Second
	}
	return &ShellService{
		store:        store,
		publisher:    publisher,
		resolver:     resolver,
		logger:       logger,
		metrics:      m,
		storeTimeout: config.StoreTimeout,
		now:          time.Now,
	}
}

// Get returns the stored shell.
func (s *ShellService) Get(ctx context.Context) (*aas.Shell, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	shell, err := s.store.FindShell(ctx)
	if errors.Is(err, aas.ErrNotFound) {
		return nil, ErrShellNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load shell: %w", err)
	}
	return shell, nil
}

// Save creates the shell or replaces the one with the same identifier.
func (s *ShellService) Save(ctx context.Context, shell *aas.Shell) (bool, error) {
	if err := shell.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, shell)
}

func (s *ShellService) save(ctx context.Context, shell *aas.Shell) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	created, err := s.store.SaveShell(ctx, shell)
	if err != nil {
		return false, fmt.Errorf("save shell %s: %w", shell.ID, err)
	}
	return created, nil
}

// VariableProperties lists the device state properties in document order.
func (s *ShellService) VariableProperties(ctx context.Context) ([]PropertyView, error) {
	return s.properties(ctx, aas.KindVariable)
}

// ConstantProperties lists the descriptive metadata properties in document order.
func (s *ShellService) ConstantProperties(ctx context.Context) ([]PropertyView, error) {
	return s.properties(ctx, aas.KindConstant)
}

func (s *ShellService) properties(ctx context.Context, kind aas.Kind) ([]PropertyView, error) {
	shell, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	refs := aas.Properties(shell, aas.OfKind(kind))
	views := make([]PropertyView, 0, len(refs))
	for _, ref := range refs {
		views = append(views, newPropertyView(ref))
	}
	return views, nil
}

// Submodel returns the submodel named idShort.
func (s *ShellService) Submodel(ctx context.Context, idShort string) (*aas.Submodel, error) {
	shell, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return shell.Submodel(idShort)
}

// UpdateProperty sets the value of the property designated by idShort and
// persists the whole shell. Feeding-schedule properties are then forwarded to
// the device; a failed forward is reported but does not fail the update.
func (s *ShellService) UpdateProperty(ctx context.Context, idShort, value string) (PropertyView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shell, err := s.Get(ctx)
	if err != nil {
		return PropertyView{}, err
	}

	path, err := s.resolver.Resolve(shell, idShort)
	if err != nil {
		return PropertyView{}, err
	}
	if err := shell.SetValue(path, value); err != nil {
		return PropertyView{}, err
	}
	if _, err := s.save(ctx, shell); err != nil {
		return PropertyView{}, err
	}
	s.metrics.IncPropertyUpdates()

	prop, err := shell.Lookup(path)
	if err != nil {
		return PropertyView{}, err
	}
	s.logger.Info("Property updated",
		slog.String("path", path.String()),
		slog.String("value", value))

	if family, ok := s.resolver.Family(idShort); ok {
		s.forward(family, idShort, value)
	}
	return newPropertyView(aas.PropertyRef{Path: path, Property: prop}), nil
}

func (s *ShellService) forward(family, idShort, value string) {
	if s.publisher == nil {
		return
	}
	cmd := &models.FeedingCommand{
		Family:     family,
		PropertyID: idShort,
		Value:      value,
		Timestamp:  s.now().UTC(),
	}
	if err := s.publisher.PublishFeedingCommand(cmd); err != nil {
		s.logger.Warn("Feeding command not forwarded",
			slog.String("property_id", idShort),
			slog.Any("error", err))
	}
}

// EnsureSeed stores the shell described by seedFile when the store holds none.
// It reports whether a shell was inserted. An empty seedFile disables seeding.
func (s *ShellService) EnsureSeed(ctx context.Context, seedFile string) (bool, error) {
	if seedFile == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.Get(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrShellNotFound) {
		return false, err
	}

	shell, err := aas.LoadFile(seedFile)
	if err != nil {
		return false, fmt.Errorf("seed shell: %w", err)
	}
	if _, err := s.save(ctx, shell); err != nil {
		return false, err
	}
	s.logger.Info("Seeded shell", slog.String("id", shell.ID), slog.String("file", seedFile))
	return true, nil
}
