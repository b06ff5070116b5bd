package schema

// FieldName identifies a canonical volunteer-data field
type FieldName string

const (
	Branch         FieldName = "branch"
	Hours          FieldName = "hours"
	Assignee       FieldName = "assignee"
	Date           FieldName = "date"
	IsMember       FieldName = "is_member"
	MemberBranch   FieldName = "member_branch"
	ProjectTag     FieldName = "project_tag"
	ProjectCatalog FieldName = "project_catalog"
	Project        FieldName = "project"
	Category       FieldName = "category"
	Department     FieldName = "department"
)

// FieldType is the value type expected in a canonical column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
)

// CanonicalField describes one field of the canonical schema
type CanonicalField struct {
	Name     FieldName `json:"name" yaml:"name"`
	Required bool      `json:"required" yaml:"required"`
	Type     FieldType `json:"type" yaml:"type"`
	Aliases  []string  `json:"aliases" yaml:"aliases"`
}

// Schema is an ordered, read-only list of canonical fields.
// Declaration order decides which field wins when several could match a header.
type Schema struct {
	fields []CanonicalField
}

// NewSchema builds a schema from field definitions. The input is copied.
func NewSchema(fields []CanonicalField) *Schema {
	s := &Schema{fields: make([]CanonicalField, len(fields))}
	for i, f := range fields {
		f.Aliases = append([]string(nil), f.Aliases...)
		s.fields[i] = f
	}
	return s
}

// Fields returns a copy of the schema fields in declaration order
func (s *Schema) Fields() []CanonicalField {
	out := make([]CanonicalField, len(s.fields))
	for i, f := range s.fields {
		f.Aliases = append([]string(nil), f.Aliases...)
		out[i] = f
	}
	return out
}

// Field looks up a canonical field by name
func (s *Schema) Field(name FieldName) (CanonicalField, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			f.Aliases = append([]string(nil), f.Aliases...)
			return f, true
		}
	}
	return CanonicalField{}, false
}

// Len returns the number of canonical fields
func (s *Schema) Len() int {
	return len(s.fields)
}

// Required returns the names of required fields in declaration order
func (s *Schema) Required() []FieldName {
	var names []FieldName
	for _, f := range s.fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// DefaultSchema is the canonical volunteer-hours schema used at import time
var DefaultSchema = NewSchema([]CanonicalField{
	{
		Name:     Branch,
		Required: true,
		Type:     TypeString,
		Aliases:  []string{"branch", "Branch Name", "location", "site", "ymca"},
	},
	{
		Name:     Hours,
		Required: true,
		Type:     TypeNumber,
		Aliases:  []string{"hours", "Hrs", "hours worked", "volunteer hours", "total hours", "duration"},
	},
	{
		Name:     Assignee,
		Required: true,
		Type:     TypeString,
		Aliases:  []string{"assignee", "Volunteer Name", "volunteer", "name", "full name", "assigned to", "person"},
	},
	{
		Name:     Date,
		Required: true,
		Type:     TypeDate,
		Aliases:  []string{"date", "service date", "shift date", "volunteer date", "day"},
	},
	{
		Name:    IsMember,
		Type:    TypeBoolean,
		Aliases: []string{"is_member", "Is Member?", "member", "membership", "ymca member"},
	},
	{
		Name:    MemberBranch,
		Type:    TypeString,
		Aliases: []string{"member_branch", "Member Branch", "home branch", "membership branch"},
	},
	{
		Name:    ProjectTag,
		Type:    TypeString,
		Aliases: []string{"project_tag", "Project Tag", "tag", "tags"},
	},
	{
		Name:    ProjectCatalog,
		Type:    TypeString,
		Aliases: []string{"project_catalog", "Project Catalog", "catalog", "catalogue", "program catalog"},
	},
	{
		Name:    Project,
		Type:    TypeString,
		Aliases: []string{"project", "Project Name", "initiative", "program"},
	},
	{
		Name:    Category,
		Type:    TypeString,
		Aliases: []string{"category", "activity type", "activity", "type"},
	},
	{
		Name:    Department,
		Type:    TypeString,
		Aliases: []string{"department", "dept", "team", "division"},
	},
})
