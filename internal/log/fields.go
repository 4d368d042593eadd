package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldCollection = "collection"
	FieldRecordID   = "id"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldRows       = "rows"
	FieldPath       = "path"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldOption     = "menu_option"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStorage = "storage"
	ComponentMenu    = "menu"
	ComponentConfig  = "config"
	ComponentMigrate = "migrate"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpUpsert    = "upsert"
	OpDelete    = "delete"
	OpAggregate = "aggregate"
	OpMigrate   = "migrate"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithCollection adds the ledger collection name
func (f LogFields) WithCollection(collection string) LogFields {
	f[FieldCollection] = collection
	return f
}

// WithRecord adds collection and record id fields
func (f LogFields) WithRecord(collection string, id int64) LogFields {
	f[FieldCollection] = collection
	f[FieldRecordID] = id
	return f
}

// WithCategory adds category field
func (f LogFields) WithCategory(category string) LogFields {
	f[FieldCategory] = category
	return f
}

// WithAmount adds the canonical decimal amount
func (f LogFields) WithAmount(amount string) LogFields {
	f[FieldAmount] = amount
	return f
}

// WithRows adds affected row count
func (f LogFields) WithRows(rows int64) LogFields {
	f[FieldRows] = rows
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	if errorType != "" {
		f[FieldErrorType] = errorType
	}
	return f
}

// WithOption adds the menu option that was chosen
func (f LogFields) WithOption(option string) LogFields {
	f[FieldOption] = option
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
