package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/dto"
)

// Config defines the length bounds enforced on request bodies
type Config struct {
	MaxPersonName      int
	MaxEmail           int
	MinPassword        int
	MaxPassword        int
	MaxEntityName      int
	MaxTaskName        int
	MaxTaskDescription int
}

// DefaultConfig returns the bounds of the persisted schema
func DefaultConfig() *Config {
	return &Config{
		MaxPersonName:      50,
		MaxEmail:           100,
		MinPassword:        3,
		MaxPassword:        100,
		MaxEntityName:      50,
		MaxTaskName:        255,
		MaxTaskDescription: 1000,
	}
}

// rule is one validator tag and the message reported when it fails
type rule struct {
	tag     string
	message string
}

// Validator checks request bodies before they reach a service. Every method
// returns nil or a *apperrors.ValidationError listing each failing field.
type Validator struct {
	config   *Config
	validate *validator.Validate
}

// NewValidator creates a validator; nil selects DefaultConfig
func NewValidator(config *Config) *Validator {
	if config == nil {
		config = DefaultConfig()
	}

	validate := validator.New()
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("validation: register notblank: %v", err))
	}
	return &Validator{config: config, validate: validate}
}

// Registration validates a new user: every field is required
func (v *Validator) Registration(req dto.UserRequest) error {
	errs := apperrors.NewValidationError()
	v.personName(errs, "firstName", "First name", req.FirstName, true)
	v.personName(errs, "lastName", "Last name", req.LastName, true)
	v.email(errs, req.Email, true)
	v.password(errs, req.Password, true)
	return errs.OrNil()
}

// UserUpdate validates a partial user update: present fields obey the
// registration rules, absent fields are skipped
func (v *Validator) UserUpdate(req dto.UserRequest) error {
	errs := apperrors.NewValidationError()
	v.personName(errs, "firstName", "First name", req.FirstName, false)
	v.personName(errs, "lastName", "Last name", req.LastName, false)
	v.email(errs, req.Email, false)
	v.password(errs, req.Password, false)
	return errs.OrNil()
}

// Credentials validates a login body. Only presence is checked: a malformed
// email or a wrong-length password is a failed login, not a bad request.
func (v *Validator) Credentials(c auth.Credentials) error {
	errs := apperrors.NewValidationError()
	v.field(errs, "email", &c.Email, true, rule{"notblank", "Email cannot be blank"})
	v.field(errs, "password", &c.Password, true, rule{"notblank", "Password cannot be blank"})
	return errs.OrNil()
}

// Status validates a status create/update body
func (v *Validator) Status(req dto.NameRequest) error {
	return v.entityName(req, "Status")
}

// Label validates a label create/update body
func (v *Validator) Label(req dto.NameRequest) error {
	return v.entityName(req, "Label")
}

// TaskCreate validates a new task: name and status are required
func (v *Validator) TaskCreate(req dto.TaskRequest) error {
	errs := apperrors.NewValidationError()
	v.taskName(errs, req.Name, true)
	v.description(errs, req.Description)
	if req.TaskStatusID == nil {
		errs.Add("taskStatusId", "Task status cannot be Null")
	}
	v.references(errs, req)
	return errs.OrNil()
}

// TaskUpdate validates a partial task update
func (v *Validator) TaskUpdate(req dto.TaskRequest) error {
	errs := apperrors.NewValidationError()
	v.taskName(errs, req.Name, false)
	v.description(errs, req.Description)
	v.references(errs, req)
	return errs.OrNil()
}

// field applies rules in order to a string field, recording the first failure.
// A nil value fails with the first rule's message when required and is
// skipped otherwise.
func (v *Validator) field(errs *apperrors.ValidationError, name string, value *string, required bool, rules ...rule) {
	if value == nil {
		if required && len(rules) > 0 {
			errs.Add(name, rules[0].message)
		}
		return
	}
	for _, r := range rules {
		if err := v.validate.Var(*value, r.tag); err != nil {
			errs.Add(name, r.message)
			return
		}
	}
}

func (v *Validator) entityName(req dto.NameRequest, kind string) error {
	errs := apperrors.NewValidationError()
	v.field(errs, "name", req.Name, true,
		rule{"notblank", kind + " name cannot be blank"},
		rule{fmt.Sprintf("max=%d", v.config.MaxEntityName),
			fmt.Sprintf("%s name must be between 1 and %d characters", kind, v.config.MaxEntityName)},
	)
	return errs.OrNil()
}

func (v *Validator) personName(errs *apperrors.ValidationError, field, label string, value *string, required bool) {
	v.field(errs, field, value, required,
		rule{"notblank", label + " cannot be blank"},
		rule{fmt.Sprintf("max=%d", v.config.MaxPersonName),
			fmt.Sprintf("%s cannot exceed %d characters", label, v.config.MaxPersonName)},
	)
}

func (v *Validator) email(errs *apperrors.ValidationError, value *string, required bool) {
	v.field(errs, "email", value, required,
		rule{"notblank", "Email cannot be blank"},
		rule{fmt.Sprintf("max=%d", v.config.MaxEmail),
			fmt.Sprintf("Email cannot exceed %d characters", v.config.MaxEmail)},
		rule{"email", "Invalid email format"},
	)
}

func (v *Validator) password(errs *apperrors.ValidationError, value *string, required bool) {
	v.field(errs, "password", value, required,
		rule{"notblank", "Password cannot be blank"},
		rule{fmt.Sprintf("min=%d,max=%d", v.config.MinPassword, v.config.MaxPassword),
			fmt.Sprintf("Password must be between %d and %d characters", v.config.MinPassword, v.config.MaxPassword)},
	)
}

func (v *Validator) taskName(errs *apperrors.ValidationError, value *string, required bool) {
	v.field(errs, "name", value, required,
		rule{"notblank", "Task name cannot be blank"},
		rule{fmt.Sprintf("max=%d", v.config.MaxTaskName),
			fmt.Sprintf("Task name must be between 1 and %d characters", v.config.MaxTaskName)},
	)
}

func (v *Validator) description(errs *apperrors.ValidationError, value *string) {
	v.field(errs, "description", value, false,
		rule{fmt.Sprintf("max=%d", v.config.MaxTaskDescription),
			fmt.Sprintf("Description cannot exceed %d characters", v.config.MaxTaskDescription)},
	)
}

func (v *Validator) references(errs *apperrors.ValidationError, req dto.TaskRequest) {
	if req.TaskStatusID != nil && v.validate.Var(*req.TaskStatusID, "gt=0") != nil {
		errs.Add("taskStatusId", "Task status id must be positive")
	}
	if req.ExecutorID.Value != nil && v.validate.Var(*req.ExecutorID.Value, "gt=0") != nil {
		errs.Add("executorId", "Executor id must be positive")
	}
	if v.validate.Var(req.LabelIDs, "omitempty,dive,gt=0") != nil {
		errs.Add("labelIds", "Label ids must be positive")
	}
}
