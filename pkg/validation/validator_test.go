package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/dto"
)

func str(s string) *string { return &s }
func id(v int64) *int64    { return &v }

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *apperrors.ValidationError, got %T", err)
	}
	if !apperrors.IsValidation(err) {
		t.Errorf("validation error should match ErrValidation")
	}
	return verr.Fields
}

func validUser() dto.UserRequest {
	return dto.UserRequest{
		FirstName: str("Ada"),
		LastName:  str("Lovelace"),
		Email:     str("ada@example.com"),
		Password:  str("secret123"),
	}
}

func TestValidator_Registration(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name      string
		mutate    func(*dto.UserRequest)
		wantField string
		wantMsg   string
	}{
		{"valid", func(r *dto.UserRequest) {}, "", ""},
		{"missing first name", func(r *dto.UserRequest) { r.FirstName = nil }, "firstName", "First name cannot be blank"},
		{"blank last name", func(r *dto.UserRequest) { r.LastName = str("  ") }, "lastName", "Last name cannot be blank"},
		{"long first name", func(r *dto.UserRequest) { r.FirstName = str(strings.Repeat("a", 51)) }, "firstName", "First name cannot exceed 50 characters"},
		{"bad email", func(r *dto.UserRequest) { r.Email = str("not-an-email") }, "email", "Invalid email format"},
		{"long email", func(r *dto.UserRequest) { r.Email = str(strings.Repeat("a", 95) + "@x.com") }, "email", "Email cannot exceed 100 characters"},
		{"short password", func(r *dto.UserRequest) { r.Password = str("ab") }, "password", "Password must be between 3 and 100 characters"},
		{"missing password", func(r *dto.UserRequest) { r.Password = nil }, "password", "Password cannot be blank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validUser()
			tt.mutate(&req)
			fields := fieldsOf(t, v.Registration(req))

			if tt.wantField == "" {
				if fields != nil {
					t.Errorf("expected no errors, got %v", fields)
				}
				return
			}
			if got := fields[tt.wantField]; got != tt.wantMsg {
				t.Errorf("field %s: got %q, want %q", tt.wantField, got, tt.wantMsg)
			}
		})
	}
}

func TestValidator_RegistrationReportsEveryField(t *testing.T) {
	v := NewValidator(nil)
	fields := fieldsOf(t, v.Registration(dto.UserRequest{}))

	for _, f := range []string{"firstName", "lastName", "email", "password"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected error for %s, got %v", f, fields)
		}
	}
}

func TestValidator_UserUpdate(t *testing.T) {
	v := NewValidator(nil)

	if err := v.UserUpdate(dto.UserRequest{}); err != nil {
		t.Errorf("empty update should be valid, got %v", err)
	}
	if err := v.UserUpdate(dto.UserRequest{FirstName: str("Grace")}); err != nil {
		t.Errorf("partial update should be valid, got %v", err)
	}

	fields := fieldsOf(t, v.UserUpdate(dto.UserRequest{Email: str("")}))
	if fields["email"] != "Email cannot be blank" {
		t.Errorf("present but blank email must fail, got %v", fields)
	}
}

func TestValidator_Credentials(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name       string
		creds      auth.Credentials
		wantFields []string
	}{
		{"valid", auth.Credentials{Email: "a@x.com", Password: "secret"}, nil},
		// shape is the authenticator's concern; these must reach it and fail as 401
		{"short password", auth.Credentials{Email: "a@x.com", Password: "ab"}, nil},
		{"not an email", auth.Credentials{Email: "nobody", Password: "secret123"}, nil},
		{"empty body", auth.Credentials{}, []string{"email", "password"}},
		{"blank password", auth.Credentials{Email: "a@x.com", Password: "   "}, []string{"password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := fieldsOf(t, v.Credentials(tt.creds))
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("got %v, want errors for %v", fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := fields[f]; !ok {
					t.Errorf("expected error for %s, got %v", f, fields)
				}
			}
		})
	}
}

func TestValidator_NamedEntities(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name    string
		check   func(dto.NameRequest) error
		req     dto.NameRequest
		wantMsg string
	}{
		{"status ok", v.Status, dto.NameRequest{Name: str("todo")}, ""},
		{"status missing", v.Status, dto.NameRequest{}, "Status name cannot be blank"},
		{"status too long", v.Status, dto.NameRequest{Name: str(strings.Repeat("s", 51))}, "Status name must be between 1 and 50 characters"},
		{"label blank", v.Label, dto.NameRequest{Name: str(" ")}, "Label name cannot be blank"},
		{"label max length", v.Label, dto.NameRequest{Name: str(strings.Repeat("l", 50))}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := fieldsOf(t, tt.check(tt.req))
			if fields["name"] != tt.wantMsg {
				t.Errorf("got %q, want %q", fields["name"], tt.wantMsg)
			}
		})
	}
}

func TestValidator_Tasks(t *testing.T) {
	v := NewValidator(nil)

	t.Run("create requires name and status", func(t *testing.T) {
		fields := fieldsOf(t, v.TaskCreate(dto.TaskRequest{}))
		if fields["name"] != "Task name cannot be blank" {
			t.Errorf("name: got %q", fields["name"])
		}
		if fields["taskStatusId"] != "Task status cannot be Null" {
			t.Errorf("taskStatusId: got %q", fields["taskStatusId"])
		}
	})

	t.Run("create valid", func(t *testing.T) {
		req := dto.TaskRequest{Name: str("t1"), TaskStatusID: id(1), LabelIDs: []int64{1, 2}}
		if err := v.TaskCreate(req); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("description bound", func(t *testing.T) {
		req := dto.TaskRequest{Name: str("t1"), TaskStatusID: id(1), Description: str(strings.Repeat("d", 1001))}
		fields := fieldsOf(t, v.TaskCreate(req))
		if _, ok := fields["description"]; !ok {
			t.Errorf("expected description error, got %v", fields)
		}
	})

	t.Run("update is partial", func(t *testing.T) {
		if err := v.TaskUpdate(dto.TaskRequest{LabelIDs: []int64{3}}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("non-positive ids", func(t *testing.T) {
		req := dto.TaskRequest{
			TaskStatusID: id(0),
			ExecutorID:   dto.OptionalID{Set: true, Value: id(-1)},
			LabelIDs:     []int64{1, 0},
		}
		fields := fieldsOf(t, v.TaskUpdate(req))
		for _, f := range []string{"taskStatusId", "executorId", "labelIds"} {
			if _, ok := fields[f]; !ok {
				t.Errorf("expected error for %s, got %v", f, fields)
			}
		}
	})
}

func TestValidator_EmailFormat(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		email string
		valid bool
	}{
		{"a@x.com", true},
		{"first.last+tag@sub.example.org", true},
		{"plain", false},
		{"@x.com", false},
		{"a@", false},
		{"a b@x.com", false},
	}

	for _, tt := range tests {
		err := v.UserUpdate(dto.UserRequest{Email: str(tt.email)})
		if got := err == nil; got != tt.valid {
			t.Errorf("email %q: valid = %v, want %v (%v)", tt.email, got, tt.valid, err)
		}
	}
}

func TestValidator_UnicodeLengthsCountRunes(t *testing.T) {
	v := NewValidator(nil)

	if err := v.Status(dto.NameRequest{Name: str(strings.Repeat("é", 50))}); err != nil {
		t.Errorf("50 runes should fit, got %v", err)
	}
	if err := v.Status(dto.NameRequest{Name: str(strings.Repeat("é", 51))}); err == nil {
		t.Error("51 runes should be rejected")
	}
}
