package domain

// Model is the parsed sqltask configuration
type Model struct {
	Name               string
	LogLevel           int
	TemplateSearchPath []string
	Connections        []*Connection
	Tasks              []*TaskDefinition
}

// Connection returns the connection profile with the given name
func (m *Model) Connection(name string) (*Connection, bool) {
	if m == nil {
		return nil, false
	}
	for _, c := range m.Connections {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Task returns the task definition with the given id
func (m *Model) Task(id string) (*TaskDefinition, bool) {
	if m == nil {
		return nil, false
	}
	for _, t := range m.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}
