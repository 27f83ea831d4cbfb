package parser

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/logger"
)

var (
	// log is the logger instance for the validator
	log = logger.New("parser")

	// Identifiers start with a letter, followed by letters, numbers, hyphens, and underscores
	identifierPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	// Config names are lower-snake-case or lower-kebab-case
	namePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("connector", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseConnector(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors struct {
	Errors []string
}

// Error implements the error interface.
// Detailed errors are logged by Validate, so the message stays short.
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed with %d error(s)", len(ve.Errors))
}

// Validate checks the model: field rules, uniqueness, and that every task
// refers to a connection defined in the file or in the environment.
func Validate(model *domain.Model) error {
	return validateWithEnv(model, envConnectionExists)
}

func envConnectionExists(connID string) bool {
	_, ok := os.LookupEnv(domain.ConnEnvVar(connID))
	return ok
}

func validateWithEnv(model *domain.Model, hasEnvConn func(string) bool) error {
	log.Debugf("Starting validation")
	var errs []string

	if model.Name == "" {
		errs = append(errs, "name is required")
	} else if !namePattern.MatchString(model.Name) {
		errs = append(errs, fmt.Sprintf("name '%s' is invalid. Must start with a letter and be in lower-snake-case or lower-kebab-case", model.Name))
	}

	if model.LogLevel < 0 || model.LogLevel > 4 {
		errs = append(errs, fmt.Sprintf("log_level %d is invalid. Must be between 1 (ERROR) and 4 (DEBUG)", model.LogLevel))
	}

	connNames := make(map[string]bool)
	for _, conn := range model.Connections {
		if connNames[conn.Name] {
			errs = append(errs, fmt.Sprintf("Connection '%s' - already defined. Connections must be unique", conn.Name))
		}
		connNames[conn.Name] = true

		for _, msg := range structErrors(conn) {
			errs = append(errs, fmt.Sprintf("Connection '%s' - %s", conn.Name, msg))
		}
	}

	if len(model.Tasks) == 0 {
		errs = append(errs, "tasks is required and should have at least one entry")
	}

	knownConns := make([]string, 0, len(connNames))
	for name := range connNames {
		knownConns = append(knownConns, name)
	}
	sort.Strings(knownConns)

	taskIDs := make(map[string]bool)
	for _, task := range model.Tasks {
		if taskIDs[task.ID] {
			errs = append(errs, fmt.Sprintf("Task '%s' - already defined. Tasks must be unique", task.ID))
		}
		taskIDs[task.ID] = true

		for _, msg := range structErrors(task) {
			errs = append(errs, fmt.Sprintf("Task '%s' - %s", task.ID, msg))
		}

		connID := task.ConnID
		if connID == "" {
			connID = domain.DefaultConnID
		}
		if !connNames[connID] && !hasEnvConn(connID) {
			errs = append(errs, fmt.Sprintf("Task '%s' - jdbc_conn_id '%s' is invalid. Must reference a defined connection (%s) or be set via %s",
				task.ID, connID, strings.Join(knownConns, ", "), domain.ConnEnvVar(connID)))
		}
	}

	if len(errs) > 0 {
		log.PrintValidationErrors(errs)
		return &ValidationErrors{Errors: errs}
	}

	log.Debugf("Validation successful")
	return nil
}

// ValidateTask applies the field rules of a configured task to a single
// definition built outside a config file
func ValidateTask(task *domain.TaskDefinition) error {
	if task == nil {
		return &ValidationErrors{Errors: []string{"task is required"}}
	}
	msgs := structErrors(task)
	if len(msgs) == 0 {
		return nil
	}
	errs := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		errs = append(errs, fmt.Sprintf("Task '%s' - %s", task.ID, msg))
	}
	log.PrintValidationErrors(errs)
	return &ValidationErrors{Errors: errs}
}

// structErrors runs the struct tag rules and renders each failure as text
func structErrors(s any) []string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return msgs
}

func describeFieldError(fe validator.FieldError) string {
	field := fieldName(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "identifier":
		return fmt.Sprintf("%s '%v' is invalid. Must start with a letter and can contain letters, numbers, hyphens, and underscores", field, fe.Value())
	case "connector":
		return fmt.Sprintf("%s '%v' is invalid. Must be one of: %s", field, fe.Value(), strings.Join(domain.ConnectorNames(), ", "))
	case "min":
		return fmt.Sprintf("%s must have at least %s entry", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	default:
		return fmt.Sprintf("%s failed '%s' validation", field, fe.Tag())
	}
}

var configFieldNames = map[string]string{
	"ConnectionString": "connection_string",
	"ConnID":           "jdbc_conn_id",
	"RetryDelay":       "retry_delay",
	"SQL":              "sql",
}

func fieldName(fe validator.FieldError) string {
	name := fe.StructField()
	if mapped, ok := configFieldNames[name]; ok {
		return mapped
	}
	if strings.HasPrefix(name, "SQL[") {
		return "sql" + strings.TrimPrefix(name, "SQL")
	}
	return strings.ToLower(name)
}
