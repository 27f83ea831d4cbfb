package observability

import (
	"strings"
)

const (
	AttrTaskID       = "task.id"
	AttrRunID        = "task.run_id"
	AttrTryNumber    = "task.try_number"
	AttrConnID       = "db.connection_id"
	AttrAutocommit   = "db.autocommit"
	AttrStatements   = "db.statement_count"
	AttrDBStatement  = "db.statement"
	AttrParamPrefix  = "db.parameter."
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

var secretKeySubstrings = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"api_key",
	"apikey",
	"authorization",
	"connection_string",
	"dsn",
}

// RedactAttributeValue masks values for known-sensitive attribute keys.
func RedactAttributeValue(key string, value string) string {
	lower := strings.ToLower(key)
	for _, needle := range secretKeySubstrings {
		if strings.Contains(lower, needle) {
			return "[REDACTED]"
		}
	}
	return value
}
