package importer

// Schema describes the fields an entity needs before it can be imported.
type Schema struct {
	Entity   string
	Key      string
	Required []string
}

// Validate checks that every required field of schema is present and
// non-empty after trimming.
func Validate(row Row, schema Schema) error {
	var missing []string
	for _, field := range schema.Required {
		if row.Record.Get(field) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Entity: schema.Entity, Line: row.Line, Missing: missing}
	}
	return nil
}
