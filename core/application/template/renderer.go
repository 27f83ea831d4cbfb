// Package template renders task SQL before execution: .sql references are
// loaded from the search path and {{ ... }} placeholders are substituted.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hyperterse/sqltask/core/domain"
)

var (
	// Template pattern: {{ name }} or {{ env.NAME }}
	templatePattern = regexp.MustCompile(`\{\{\s*((?:env\.)?\w+)\s*\}\}`)
)

// Renderer resolves templates against an ordered list of directories
type Renderer struct {
	searchPath []string
	lookupEnv  func(string) (string, bool)
}

// NewRenderer creates a renderer. baseDir (usually the config file's directory)
// is searched first, followed by searchPath entries; relative entries are
// resolved against baseDir.
func NewRenderer(baseDir string, searchPath []string) *Renderer {
	dirs := make([]string, 0, len(searchPath)+1)
	if baseDir == "" {
		baseDir = "."
	}
	dirs = append(dirs, baseDir)
	for _, dir := range searchPath {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		dirs = append(dirs, dir)
	}
	return &Renderer{searchPath: dirs, lookupEnv: os.LookupEnv}
}

// SearchPath returns the directories searched for template files, in order
func (r *Renderer) SearchPath() []string {
	return r.searchPath
}

// Render resolves every statement of sql for the given task context.
// Statements ending in .sql are replaced by the contents of that file.
func (r *Renderer) Render(sql domain.SQL, tc domain.TaskContext) (domain.SQL, error) {
	vars := contextVars(tc)

	rendered := make(domain.SQL, 0, len(sql))
	for _, stmt := range sql {
		if domain.IsTemplateRef(stmt) {
			content, err := r.load(strings.TrimSpace(stmt))
			if err != nil {
				return nil, err
			}
			stmt = content
		}

		out, err := r.substitute(stmt, vars)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, out)
	}
	return rendered, nil
}

func (r *Renderer) load(name string) (string, error) {
	if filepath.IsAbs(name) {
		data, err := os.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("failed to read template '%s': %w", name, err)
		}
		return string(data), nil
	}

	for _, dir := range r.searchPath {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read template '%s': %w", name, err)
		}
	}
	return "", fmt.Errorf("template '%s' not found in search path %s", name, strings.Join(r.searchPath, ", "))
}

func (r *Renderer) substitute(statement string, vars map[string]string) (string, error) {
	result := statement
	seen := make(map[string]bool)

	for _, match := range templatePattern.FindAllStringSubmatch(statement, -1) {
		placeholder, name := match[0], match[1]
		if seen[placeholder] {
			continue
		}
		seen[placeholder] = true

		var value string
		if envName, ok := strings.CutPrefix(name, "env."); ok {
			envValue, exists := r.lookupEnv(envName)
			if !exists {
				return "", fmt.Errorf("environment variable '%s' not found", envName)
			}
			value = envValue
		} else {
			v, exists := vars[name]
			if !exists {
				return "", fmt.Errorf("unknown template variable '%s'", name)
			}
			value = v
		}

		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result, nil
}

func contextVars(tc domain.TaskContext) map[string]string {
	date := tc.LogicalDate
	if date.IsZero() {
		date = time.Now()
	}
	date = date.UTC()

	return map[string]string{
		"ds":         date.Format(time.DateOnly),
		"ds_nodash":  date.Format("20060102"),
		"ts":         date.Format(time.RFC3339),
		"run_id":     tc.RunID,
		"task_id":    tc.TaskID,
		"try_number": fmt.Sprintf("%d", tc.TryNumber),
	}
}
