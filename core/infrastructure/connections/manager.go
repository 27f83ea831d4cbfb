package connections

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces"
	"github.com/hyperterse/sqltask/core/infrastructure/logging"
	apperrors "github.com/hyperterse/sqltask/core/shared/errors"
)

// Manager resolves connection profiles by id. Profiles defined through
// SQLTASK_CONN_<ID> environment variables take precedence over the ones
// registered from configuration.
type Manager struct {
	connections map[string]*domain.Connection
	mu          sync.RWMutex

	lookupEnv func(string) (string, bool)
	environ   func() []string
}

// NewManager creates a manager holding the given profiles
func NewManager(conns []*domain.Connection) (*Manager, error) {
	m := &Manager{
		connections: make(map[string]*domain.Connection, len(conns)),
		lookupEnv:   os.LookupEnv,
		environ:     os.Environ,
	}
	for _, conn := range conns {
		if err := m.Register(conn); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register adds or replaces a profile
func (m *Manager) Register(conn *domain.Connection) error {
	if err := conn.Validate(); err != nil {
		name := ""
		if conn != nil {
			name = conn.Name
		}
		return apperrors.NewAppError(apperrors.ErrCodeInvalidConnection,
			fmt.Sprintf("invalid connection '%s'", name), err)
	}

	m.mu.Lock()
	m.connections[conn.Name] = conn
	m.mu.Unlock()

	logging.New("connections").Debugf("Registered connection '%s' (%s)", conn.Name, conn.Connector)
	return nil
}

// Resolve returns the profile for connID
func (m *Manager) Resolve(connID string) (*domain.Connection, error) {
	log := logging.New("connections")

	if uri, ok := m.lookupEnv(domain.ConnEnvVar(connID)); ok && uri != "" {
		log.Debugf("Using connection '%s' from %s", connID, domain.ConnEnvVar(connID))
		conn, err := ParseURI(connID, uri)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidConnection,
				fmt.Sprintf("invalid connection '%s' in %s", connID, domain.ConnEnvVar(connID)), err)
		}
		return conn, nil
	}

	m.mu.RLock()
	conn, exists := m.connections[connID]
	m.mu.RUnlock()
	if !exists {
		return nil, apperrors.NewAppError(apperrors.ErrCodeConnectionNotFound,
			fmt.Sprintf("connection '%s' not found", connID), nil)
	}
	return conn, nil
}

// List returns every known profile sorted by name with secrets redacted.
// Environment profiles replace configured profiles of the same name.
func (m *Manager) List() []*domain.Connection {
	merged := make(map[string]*domain.Connection)

	m.mu.RLock()
	for name, conn := range m.connections {
		merged[name] = conn
	}
	m.mu.RUnlock()

	for _, kv := range m.environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		suffix, ok := strings.CutPrefix(key, domain.ConnEnvPrefix)
		if !ok || suffix == "" {
			continue
		}
		name := envConnName(suffix, merged)
		conn, err := ParseURI(name, value)
		if err != nil {
			logging.New("connections").Warnf("Ignoring %s: %v", key, err)
			continue
		}
		merged[name] = conn
	}

	result := make([]*domain.Connection, 0, len(merged))
	for _, conn := range merged {
		redacted := *conn
		redacted.ConnectionString = Redact(conn.ConnectionString)
		result = append(result, &redacted)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// envConnName maps an env var suffix back to a profile name, preferring a
// configured profile whose env var matches
func envConnName(suffix string, known map[string]*domain.Connection) string {
	for name := range known {
		if domain.ConnEnvVar(name) == domain.ConnEnvPrefix+suffix {
			return name
		}
	}
	return strings.ToLower(suffix)
}

var _ interfaces.ConnectionResolver = (*Manager)(nil)
