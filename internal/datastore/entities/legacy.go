package entities

import (
	"maps"
	"strings"
)

// TenantFields carries the tenant reference found on legacy root-level documents.
type TenantFields struct {
	TeamID      string `mapstructure:"team_id"`
	TeamIDAlias string `mapstructure:"teamId"`
}

// Tenant returns the referenced tenant id, preferring team_id over the legacy alias.
func (f TenantFields) Tenant() (string, bool) {
	for _, id := range []string{f.TeamID, f.TeamIDAlias} {
		if id = strings.TrimSpace(id); id != "" {
			return id, true
		}
	}
	return "", false
}

// TenantScoped is the minimal view of any legacy document owned by a tenant.
type TenantScoped struct {
	TenantFields `mapstructure:",squash"`
	Extra        map[string]any `mapstructure:",remain"`
}

// RoleAssignment maps one role to the members serving in it.
type RoleAssignment struct {
	RoleID    string         `mapstructure:"role_id"`
	RoleName  string         `mapstructure:"role_name"`
	MemberIDs []string       `mapstructure:"member_ids"`
	Extra     map[string]any `mapstructure:",remain"`
}

// ToMap renders the assignment as stored fields.
func (r RoleAssignment) ToMap() map[string]any {
	out := cloneExtra(r.Extra)
	out["role_id"] = r.RoleID
	out["role_name"] = r.RoleName
	out["member_ids"] = nonNilStrings(r.MemberIDs)
	return out
}

// FlowItem is one cue in a service order.
type FlowItem struct {
	Title       string           `mapstructure:"title"`
	Description string           `mapstructure:"description"`
	Order       any              `mapstructure:"order"`
	Duration    any              `mapstructure:"duration"`
	Assignments []RoleAssignment `mapstructure:"assignments"`
	Extra       map[string]any   `mapstructure:",remain"`
}

// ToMap renders the item as stored fields.
func (f FlowItem) ToMap() map[string]any {
	out := cloneExtra(f.Extra)
	out["title"] = f.Title
	out["description"] = f.Description
	if f.Order != nil {
		out["order"] = f.Order
	}
	if f.Duration != nil {
		out["duration"] = f.Duration
	}
	out["assignments"] = RoleAssignmentMaps(f.Assignments)
	return out
}

// LegacySchedule is a schedule ("who") record in either the flat or tenant-scoped layout.
type LegacySchedule struct {
	TenantFields `mapstructure:",squash"`

	Title        string           `mapstructure:"title"`
	Date         DateValue        `mapstructure:"date"`
	Tags         []string         `mapstructure:"tags"`
	WorshipRoles []RoleAssignment `mapstructure:"worship_roles"`
	Roles        []RoleAssignment `mapstructure:"roles"`
	Items        []FlowItem       `mapstructure:"items"`
	Participants []string         `mapstructure:"participants"`

	Extra map[string]any `mapstructure:",remain"`
}

// RoleAssignments returns worship_roles when present, otherwise the legacy roles field.
func (s *LegacySchedule) RoleAssignments() []RoleAssignment {
	if len(s.WorshipRoles) > 0 {
		return s.WorshipRoles
	}
	return s.Roles
}

// SongRef points at a song inside a setlist.
type SongRef struct {
	ID    string         `mapstructure:"id"`
	Key   string         `mapstructure:"key"`
	Note  string         `mapstructure:"note"`
	Extra map[string]any `mapstructure:",remain"`
}

// ToMap renders the reference as stored fields.
func (r SongRef) ToMap() map[string]any {
	out := cloneExtra(r.Extra)
	out["id"] = r.ID
	out["key"] = r.Key
	out["note"] = r.Note
	return out
}

// LegacyAggregate is a worship ("what") record carrying the song content of a service.
type LegacyAggregate struct {
	TenantFields `mapstructure:",squash"`

	Title         string    `mapstructure:"title"`
	WorshipDate   DateValue `mapstructure:"worship_date"`
	Tags          []string  `mapstructure:"tags"`
	Songs         []SongRef `mapstructure:"songs"`
	BeginningSong *SongRef  `mapstructure:"beginning_song"`
	EndingSong    *SongRef  `mapstructure:"ending_song"`
	Description   string    `mapstructure:"description"`
	Link          string    `mapstructure:"link"`

	Extra map[string]any `mapstructure:",remain"`
}

// Author identifies who created a notice and when.
type Author struct {
	ID    string         `mapstructure:"id"`
	Time  DateValue      `mapstructure:"time"`
	Extra map[string]any `mapstructure:",remain"`
}

// LegacyNotice covers both the legacy (subject/content) and current (title/body) notice shapes.
type LegacyNotice struct {
	TenantFields `mapstructure:",squash"`

	Subject     *string   `mapstructure:"subject"`
	Content     *string   `mapstructure:"content"`
	Title       *string   `mapstructure:"title"`
	Body        *string   `mapstructure:"body"`
	CreatedAt   DateValue `mapstructure:"created_at"`
	CreatedByID *string   `mapstructure:"created_by_id"`
	AuthorID    *string   `mapstructure:"author_id"`
	UserID      *string   `mapstructure:"user_id"`
	CreatedBy   *Author   `mapstructure:"created_by"`

	Extra map[string]any `mapstructure:",remain"`
}

// LegacySheet is a music sheet attached to a song.
type LegacySheet struct {
	TenantFields `mapstructure:",squash"`

	SongID string   `mapstructure:"song_id"`
	URL    *string  `mapstructure:"url"`
	URLs   []string `mapstructure:"urls"`

	Extra map[string]any `mapstructure:",remain"`
}

// LegacyComment is a comment attached to a song.
type LegacyComment struct {
	TenantFields `mapstructure:",squash"`

	SongID string         `mapstructure:"song_id"`
	Extra  map[string]any `mapstructure:",remain"`
}

// Tenant is the team document with its embedded legacy lists.
type Tenant struct {
	Name        string   `mapstructure:"name"`
	Users       []string `mapstructure:"users"`
	Admins      []string `mapstructure:"admins"`
	ServiceTags []any    `mapstructure:"service_tags"`

	Extra map[string]any `mapstructure:",remain"`
}

// RoleAssignmentMaps renders assignments as a stored list.
func RoleAssignmentMaps(roles []RoleAssignment) []any {
	out := make([]any, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.ToMap())
	}
	return out
}

// FlowItemMaps renders items as a stored list.
func FlowItemMaps(items []FlowItem) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, it.ToMap())
	}
	return out
}

// SongRefMaps renders song references as a stored list.
func SongRefMaps(refs []SongRef) []any {
	out := make([]any, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ToMap())
	}
	return out
}

// NonBlank returns the trimmed values with empty and whitespace-only entries removed,
// in input order.
func NonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cloneExtra(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+4)
	maps.Copy(out, extra)
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
