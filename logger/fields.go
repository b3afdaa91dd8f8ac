package logger

// Standard field keys.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldUsername  = "username"
	FieldOperation = "operation"
	FieldReason    = "reason"
	FieldRoute     = "route"
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldTokenID   = "token_id"
	FieldKeyID     = "key_id"
)

// Fields builds a field map from alternating key-value pairs.
//
//	log.Info("user created", logger.Fields("user_id", id, "roles", roles))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}
