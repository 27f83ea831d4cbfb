package parser

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperterse/sqltask/core/domain"
)

// ParseYAML parses YAML content into a Model. Environment placeholders are
// left untouched; see SubstituteEnvVarsInModel.
func ParseYAML(data []byte) (*domain.Model, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	model := &domain.Model{}

	if name, ok := raw["name"].(string); ok {
		model.Name = name
	}
	if level, ok := raw["log_level"].(int); ok {
		model.LogLevel = level
	}

	searchPath, err := parseStringList(raw["template_searchpath"])
	if err != nil {
		return nil, fmt.Errorf("invalid template_searchpath: %w", err)
	}
	model.TemplateSearchPath = searchPath

	// Connections and tasks are maps keyed by name
	if connectionsRaw, ok := raw["connections"].(map[string]any); ok {
		for name, connRaw := range connectionsRaw {
			conn, err := parseConnection(name, connRaw)
			if err != nil {
				return nil, err
			}
			model.Connections = append(model.Connections, conn)
		}
	}
	sort.Slice(model.Connections, func(i, j int) bool {
		return model.Connections[i].Name < model.Connections[j].Name
	})

	if tasksRaw, ok := raw["tasks"].(map[string]any); ok {
		for id, taskRaw := range tasksRaw {
			task, err := parseTask(id, taskRaw)
			if err != nil {
				return nil, err
			}
			model.Tasks = append(model.Tasks, task)
		}
	}
	sort.Slice(model.Tasks, func(i, j int) bool {
		return model.Tasks[i].ID < model.Tasks[j].ID
	})

	return model, nil
}

func parseConnection(name string, connRaw any) (*domain.Connection, error) {
	connMap, ok := connRaw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid connection structure for '%s'", name)
	}

	conn := &domain.Connection{Name: name}
	if connectorStr, ok := connMap["connector"].(string); ok {
		connector, err := domain.ParseConnector(connectorStr)
		if err != nil {
			return nil, fmt.Errorf("invalid connector '%s' for connection '%s': %w", connectorStr, name, err)
		}
		conn.Connector = connector
	}
	if connStr, ok := connMap["connection_string"].(string); ok {
		conn.ConnectionString = connStr
	}
	if optionsRaw, ok := connMap["options"].(map[string]any); ok {
		conn.Options = make(map[string]string, len(optionsRaw))
		for key, value := range optionsRaw {
			if strValue, ok := value.(string); ok {
				conn.Options[key] = strValue
			} else {
				conn.Options[key] = fmt.Sprintf("%v", value)
			}
		}
	}

	return conn, nil
}

func parseTask(id string, taskRaw any) (*domain.TaskDefinition, error) {
	taskMap, ok := taskRaw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid task structure for '%s'", id)
	}

	task := &domain.TaskDefinition{ID: id}

	// sql: a single statement, a list of statements, or a .sql template reference
	stmts, err := parseStringList(taskMap["sql"])
	if err != nil {
		return nil, fmt.Errorf("invalid sql for task '%s': %w", id, err)
	}
	task.SQL = domain.SQL(stmts)

	if connID, ok := taskMap["jdbc_conn_id"].(string); ok {
		task.ConnID = connID
	}
	if autocommit, ok := taskMap["autocommit"].(bool); ok {
		task.Autocommit = autocommit
	}

	switch params := taskMap["parameters"].(type) {
	case nil:
	case map[string]any:
		task.Parameters = domain.Named(params)
	case []any:
		task.Parameters = domain.Positional(params...)
	default:
		return nil, fmt.Errorf("invalid parameters for task '%s': must be a mapping or a sequence", id)
	}

	if retries, ok := taskMap["retries"].(int); ok {
		task.Retries = retries
	}
	if delayRaw, ok := taskMap["retry_delay"]; ok {
		delay, err := parseDuration(delayRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid retry_delay for task '%s': %w", id, err)
		}
		task.RetryDelay = delay
	}

	return task, nil
}

func parseStringList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d must be a string", i)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a string or a list of strings")
	}
}

// parseDuration accepts Go duration strings ("90s", "5m") or a number of seconds
func parseDuration(value any) (time.Duration, error) {
	switch v := value.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second, nil
		}
		return time.ParseDuration(v)
	default:
		return 0, fmt.Errorf("unsupported duration value %v", value)
	}
}
