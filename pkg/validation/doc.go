// Package validation checks REST request bodies before any service call.
//
// # Overview
//
// Each request type has one method on Validator. All failing fields are
// reported at once in an *apperrors.ValidationError, whose Fields map is
// rendered as the "fields" object of a 400 response.
//
// # Rules
//
// Users:
//   - firstName, lastName: required, at most 50 characters
//   - email: required, at most 100 characters, address format
//   - password: required, 3 to 100 characters
//
// Login:
//   - email, password: present and not blank; any other mismatch is left to
//     authentication and answered with 401
//
// Statuses and labels:
//   - name: required, 1 to 50 characters
//
// Tasks:
//   - name: required on create, 1 to 255 characters
//   - description: optional, at most 1000 characters
//   - taskStatusId: required on create
//   - referenced ids must be positive
//
// Updates apply the same rules to the fields that are present. Status and
// label updates carry a single field, so name stays required.
//
// Field rules are go-playground/validator tags (notblank, max, min, email,
// gt) evaluated with Validate.Var; the per-request methods keep the messages.
//
// # Usage Example
//
//	v := validation.NewValidator(nil)
//	if err := v.Registration(req); err != nil {
//		httputil.WriteAppError(w, r, logger, err)
//		return
//	}
package validation
