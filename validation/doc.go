// Package validation checks request payloads.
//
// Struct tag validation covers bound request bodies:
//
//	type loginRequest struct {
//	    Username string `json:"username" validate:"required,username"`
//	    Password string `json:"password" validate:"required,max=1024"`
//	}
//	if err := validation.Validate(req); err != nil { ... }
//
// The programmatic Validator covers path and query parameters:
//
//	v := validation.New()
//	v.Required("username", name).Check(credential.ValidUsername(name), "username", "is invalid")
//	if appErr := v.Validate(); appErr != nil { ... }
//
// Both report an *errors.AppError with per-field details.
package validation
