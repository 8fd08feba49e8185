package ipbauth

// ConfirmationRule decides how the host email confirmation flag is derived
type ConfirmationRule int

const (
	// ConfirmationUntouched leaves the host flag as it is (IPB 3.x)
	ConfirmationUntouched ConfirmationRule = iota
	// ConfirmationByGroup confirms unless the member sits in the validating group (IPB 4.0-4.5)
	ConfirmationByGroup
	// ConfirmationByValidatingTable confirms when no pending rows exist in core_validating (IPB 4.6+)
	ConfirmationByValidatingTable
)

// Schema describes the forum table layout for a given IPB schema version.
// It is derived once per operation from Config.Version.
type Schema struct {
	Version           int
	TablePrefix       string
	BanFilter         bool
	DisplayNameColumn string
	Confirmation      ConfirmationRule
}

// SchemaFor builds the schema descriptor for prefix and version
func SchemaFor(prefix string, version int) Schema {
	s := Schema{
		Version:           version,
		TablePrefix:       prefix,
		DisplayNameColumn: "members_display_name",
		Confirmation:      ConfirmationUntouched,
	}

	if version >= 4 {
		s.TablePrefix = prefix + "core_"
		s.BanFilter = true
		s.DisplayNameColumn = "name"
	}

	switch {
	case version == 4:
		s.Confirmation = ConfirmationByGroup
	case version > 4:
		s.Confirmation = ConfirmationByValidatingTable
	}

	return s
}

func (s Schema) MembersTable() string {
	return s.TablePrefix + "members"
}

func (s Schema) ValidatingTable() string {
	return s.TablePrefix + "validating"
}

// HasValidatingTable reports whether pending validations live in their own table
func (s Schema) HasValidatingTable() bool {
	return s.Confirmation == ConfirmationByValidatingTable
}
