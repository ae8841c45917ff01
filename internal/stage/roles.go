// Package stage adapts the external text-generation capability to the typed
// stages of a section pipeline and the final narrative.
package stage

// Role names one generation stage. Each role has a fixed instruction
// template and, except the narrative, a JSON reply schema.
type Role string

// Generation roles.
const (
	RoleComplexity Role = "complexity"
	RoleQueryGen   Role = "query_gen"
	RoleResearcher Role = "researcher"
	RoleAnalyst    Role = "analyst"
	RoleCritic     Role = "critic"
	RoleEditor     Role = "editor"
	RoleNarrative  Role = "narrative"
)

// Roles returns every generation role in pipeline order.
func Roles() []Role {
	return []Role{
		RoleComplexity, RoleQueryGen, RoleResearcher, RoleAnalyst,
		RoleCritic, RoleEditor, RoleNarrative,
	}
}

// WantsJSON reports whether the role's reply is a JSON document.
func (r Role) WantsJSON() bool { return r != RoleNarrative }

// Instructions returns the fixed instruction template for the role.
func (r Role) Instructions() string { return instructions[r] }
