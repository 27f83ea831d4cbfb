package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/hyperterse/sqltask/core/domain"
)

var (
	// Environment variable pattern: {{ env.VARIABLE_NAME }}
	envVarPattern = regexp.MustCompile(`\{\{\s*env\.(\w+)\s*\}\}`)
)

// SubstituteEnvVars replaces {{ env.VARIABLE_NAME }} placeholders with environment variable values
func SubstituteEnvVars(value string) (string, error) {
	result := value
	seen := make(map[string]bool)

	for _, match := range envVarPattern.FindAllStringSubmatch(value, -1) {
		placeholder, envVarName := match[0], match[1]
		if seen[placeholder] {
			continue
		}
		seen[placeholder] = true

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			return "", fmt.Errorf("environment variable '%s' not found", envVarName)
		}
		result = strings.ReplaceAll(result, placeholder, envValue)
	}

	return result, nil
}

// SubstituteEnvVarsInModel substitutes environment placeholders in connection
// strings and options. SQL is left alone; it is rendered per run.
func SubstituteEnvVarsInModel(model *domain.Model) error {
	for _, conn := range model.Connections {
		if conn.ConnectionString != "" {
			substituted, err := SubstituteEnvVars(conn.ConnectionString)
			if err != nil {
				return fmt.Errorf("configuration error: failed to substitute environment variables in connection_string for connection '%s': %w", conn.Name, err)
			}
			conn.ConnectionString = substituted
		}

		for key, value := range conn.Options {
			substituted, err := SubstituteEnvVars(value)
			if err != nil {
				return fmt.Errorf("configuration error: failed to substitute environment variables in option '%s' for connection '%s': %w", key, conn.Name, err)
			}
			conn.Options[key] = substituted
		}
	}

	return nil
}
