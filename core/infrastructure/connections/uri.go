package connections

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hyperterse/sqltask/core/domain"
)

// ParseURI builds a profile from a connection URI. The scheme selects the
// connector; the full URI is kept as the connection string.
func ParseURI(name, uri string) (*domain.Connection, error) {
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return nil, fmt.Errorf("connection URI must start with <connector>://")
	}

	connector, err := domain.ParseConnector(scheme)
	if err != nil {
		return nil, err
	}

	conn := &domain.Connection{
		Name:             name,
		Connector:        connector,
		ConnectionString: uri,
	}
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	return conn, nil
}

// Redact hides the password of a URL-style connection string. Other formats
// are returned unchanged unless they carry a password=... pair.
func Redact(connStr string) string {
	if strings.Contains(connStr, "://") {
		if u, err := url.Parse(connStr); err == nil {
			if u.User != nil {
				if _, has := u.User.Password(); has {
					u.User = url.UserPassword(u.User.Username(), "xxxxx")
				}
			}
			query := u.Query()
			if query.Has("password") {
				query.Set("password", "xxxxx")
				u.RawQuery = query.Encode()
			}
			return u.String()
		}
	}

	// key=value DSN (postgres) or user:pass@tcp(...) DSN (mysql)
	parts := strings.Fields(connStr)
	for i, part := range parts {
		if key, _, ok := strings.Cut(part, "="); ok && strings.EqualFold(key, "password") {
			parts[i] = key + "=xxxxx"
		}
	}
	connStr = strings.Join(parts, " ")

	if at := strings.Index(connStr, "@"); at > 0 && !strings.Contains(connStr, " ") {
		if colon := strings.Index(connStr[:at], ":"); colon >= 0 {
			return connStr[:colon+1] + "xxxxx" + connStr[at:]
		}
	}
	return connStr
}
