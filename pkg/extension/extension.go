package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kubeapply/pkg/log"
)

const (
	// DefaultSuccessDuration is how long ShowSuccess stays set after a
	// successful install.
	DefaultSuccessDuration = 3 * time.Second

	msgNotInstalled  = "extension is not installed"
	msgInstallFailed = "extension install failed"
)

// ErrOperationInFlight is returned when Check or Install is invoked while
// another check or install is still running. Overlapping operations are
// rejected rather than allowed to race over the status.
var ErrOperationInFlight = errors.New("extension operation already in flight")

// TriState is the installed state of the extension.
type TriState int

const (
	// Unknown means no check has completed yet.
	Unknown TriState = iota
	// NotInstalled means the last check reported the extension as missing.
	NotInstalled
	// Installed means the last check or install reported the extension as
	// present.
	Installed
)

func (t TriState) String() string {
	switch t {
	case Installed:
		return "installed"
	case NotInstalled:
		return "not installed"
	default:
		return "unknown"
	}
}

// Status is the observable state of the extension lifecycle. The [Manager] is
// its single writer; readers receive copies.
type Status struct {
	// Error holds the latest check or install failure, empty when none.
	Error string
	// Installed is the tri-state install status.
	Installed TriState
	// Installing is set while an install is running.
	Installing bool
	// ShowSuccess is set after a successful install and autonomously clears
	// after the configured success duration.
	ShowSuccess bool
}

// Event is an event emitted by a [Manager] on state changes.
type Event any

type (
	// EventCheck indicates that a status check has completed.
	EventCheck Status

	// EventInstall indicates that an install attempt has completed.
	EventInstall Status

	// EventSuccessExpired indicates that the post-install success indicator
	// has timed out.
	EventSuccessExpired Status
)

// Client performs the extension status query and install operations, usually
// by invoking an external CLI through the bridge.
type Client interface {
	// IsInstalled reports whether the extension is installed.
	IsInstalled(ctx context.Context) (bool, error)
	// Install installs the extension.
	Install(ctx context.Context) error
}

// Manager tracks whether the required CLI extension is installed.
//
// Every collaborator failure is recoverable: it lands in [Status.Error],
// never in a fault surfaced to the caller. The only error Check and Install
// themselves return is [ErrOperationInFlight].
type Manager struct {
	client    Client
	listeners []chan<- Event

	successFor time.Duration

	status Status
	busy   bool
	mu     sync.Mutex
}

// ManagerOpt configures a [Manager].
type ManagerOpt func(*Manager)

// WithSuccessDuration overrides how long ShowSuccess stays set.
func WithSuccessDuration(d time.Duration) ManagerOpt {
	return func(m *Manager) {
		m.successFor = d
	}
}

// NewManager creates a [Manager] in the unknown, idle state.
func NewManager(client Client, opts ...ManagerOpt) *Manager {
	m := &Manager{
		client:     client,
		successFor: DefaultSuccessDuration,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start performs the initial automatic status check.
func (m *Manager) Start(ctx context.Context) {
	err := m.Check(ctx)
	if err != nil {
		// Only possible when Start races a caller-issued operation.
		log.WithContext(ctx).DebugContext(ctx, "skipped initial check", slog.Any("error", err))
	}
}

// Status returns a copy of the current status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.status
}

// Check queries the install status and records the outcome. Collaborator
// failures and panics become [Status.Error]; the returned error is only
// [ErrOperationInFlight].
func (m *Manager) Check(ctx context.Context) error {
	err := m.begin()
	if err != nil {
		return err
	}
	defer m.end()

	installed, checkErr := m.queryInstalled(ctx)

	m.mu.Lock()
	if installed {
		m.status.Installed = Installed
		m.status.Error = ""
	} else {
		m.status.Installed = NotInstalled
		m.status.Error = errText(checkErr, msgNotInstalled)
	}
	evt := EventCheck(m.status)
	m.mu.Unlock()

	m.broadcast(evt)
	log.WithContext(ctx).DebugContext(ctx, "extension check completed",
		slog.String("installed", Status(evt).Installed.String()),
		slog.String("error", Status(evt).Error),
	)

	return nil
}

// Install installs the extension and records the outcome. On success,
// ShowSuccess is set and autonomously resets after the success duration; the
// reset timer is fire-and-forget and is not cancelled by later operations.
func (m *Manager) Install(ctx context.Context) error {
	err := m.begin()
	if err != nil {
		return err
	}
	defer m.end()

	m.mu.Lock()
	m.status.Installing = true
	m.status.Error = ""
	m.mu.Unlock()

	installErr := m.runInstall(ctx)

	m.mu.Lock()
	if installErr == nil {
		m.status.Installed = Installed
		m.status.Error = ""
		m.status.ShowSuccess = true

		time.AfterFunc(m.successFor, m.expireSuccess)
	} else {
		m.status.Error = errText(installErr, msgInstallFailed)
	}
	// Installing resets last, in every path.
	m.status.Installing = false
	evt := EventInstall(m.status)
	m.mu.Unlock()

	m.broadcast(evt)
	log.WithContext(ctx).DebugContext(ctx, "extension install completed",
		slog.String("error", Status(evt).Error),
	)

	return nil
}

// ClearError clears the error without touching the rest of the status.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.Error = ""
}

// Subscribe registers a listener for manager events.
func (m *Manager) Subscribe(ch chan<- Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners = append(m.listeners, ch)
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busy {
		return ErrOperationInFlight
	}

	m.busy = true

	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.busy = false
}

// queryInstalled calls the collaborator, converting panics into errors so the
// manager never crashes on a faulty client.
func (m *Manager) queryInstalled(ctx context.Context) (installed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			installed = false
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	return m.client.IsInstalled(ctx)
}

func (m *Manager) runInstall(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	return m.client.Install(ctx)
}

func (m *Manager) expireSuccess() {
	m.mu.Lock()
	m.status.ShowSuccess = false
	evt := EventSuccessExpired(m.status)
	m.mu.Unlock()

	m.broadcast(evt)
}

func (m *Manager) broadcast(evt Event) {
	m.mu.Lock()
	listeners := make([]chan<- Event, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, ch := range listeners {
		ch <- evt
	}
}

func errText(err error, fallback string) string {
	if err != nil && err.Error() != "" {
		return err.Error()
	}

	return fallback
}
