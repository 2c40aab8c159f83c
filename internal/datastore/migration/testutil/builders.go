package testutil

import (
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
)

// ScheduleBuilder provides a fluent API for building legacy schedule documents.
type ScheduleBuilder struct {
	data map[string]any
}

// NewScheduleBuilder creates a schedule owned by tenantID dated date.
func NewScheduleBuilder(tenantID string, date any) *ScheduleBuilder {
	return &ScheduleBuilder{data: map[string]any{
		"team_id": tenantID,
		"title":   "Sunday Service",
		"date":    date,
	}}
}

// WithTitle sets the title.
func (b *ScheduleBuilder) WithTitle(title string) *ScheduleBuilder {
	b.data["title"] = title
	return b
}

// WithoutTitle removes the title.
func (b *ScheduleBuilder) WithoutTitle() *ScheduleBuilder {
	delete(b.data, "title")
	return b
}

// WithTags sets the tags.
func (b *ScheduleBuilder) WithTags(tags ...string) *ScheduleBuilder {
	b.data["tags"] = toAnySlice(tags)
	return b
}

// WithWorshipRoles sets the current role assignments.
func (b *ScheduleBuilder) WithWorshipRoles(roles ...map[string]any) *ScheduleBuilder {
	b.data["worship_roles"] = mapsToAny(roles)
	return b
}

// WithLegacyRoles sets the legacy roles field.
func (b *ScheduleBuilder) WithLegacyRoles(roles ...map[string]any) *ScheduleBuilder {
	b.data["roles"] = mapsToAny(roles)
	return b
}

// WithItems sets the flow items.
func (b *ScheduleBuilder) WithItems(items ...map[string]any) *ScheduleBuilder {
	b.data["items"] = mapsToAny(items)
	return b
}

// WithField sets an arbitrary field.
func (b *ScheduleBuilder) WithField(key string, value any) *ScheduleBuilder {
	b.data[key] = value
	return b
}

// Build returns the document fields.
func (b *ScheduleBuilder) Build() map[string]any {
	return b.data
}

// WorshipBuilder provides a fluent API for building legacy worship documents.
type WorshipBuilder struct {
	data map[string]any
}

// NewWorshipBuilder creates a worship owned by tenantID dated date.
func NewWorshipBuilder(tenantID string, date any) *WorshipBuilder {
	return &WorshipBuilder{data: map[string]any{
		"team_id":      tenantID,
		"title":        "Worship",
		"worship_date": date,
	}}
}

// WithTitle sets the title.
func (b *WorshipBuilder) WithTitle(title string) *WorshipBuilder {
	b.data["title"] = title
	return b
}

// WithTags sets the tags.
func (b *WorshipBuilder) WithTags(tags ...string) *WorshipBuilder {
	b.data["tags"] = toAnySlice(tags)
	return b
}

// WithSongs sets the song list by song id.
func (b *WorshipBuilder) WithSongs(ids ...string) *WorshipBuilder {
	songs := make([]any, 0, len(ids))
	for _, id := range ids {
		songs = append(songs, SongRef(id))
	}
	b.data["songs"] = songs
	return b
}

// WithBoundarySongs sets the beginning and ending songs.
func (b *WorshipBuilder) WithBoundarySongs(beginning, ending string) *WorshipBuilder {
	b.data["beginning_song"] = SongRef(beginning)
	b.data["ending_song"] = SongRef(ending)
	return b
}

// WithDescription sets the description.
func (b *WorshipBuilder) WithDescription(description string) *WorshipBuilder {
	b.data["description"] = description
	return b
}

// Build returns the document fields.
func (b *WorshipBuilder) Build() map[string]any {
	return b.data
}

// Role builds a role assignment.
func Role(roleID string, memberIDs ...string) map[string]any {
	return map[string]any{
		"role_id":    roleID,
		"role_name":  roleID,
		"member_ids": toAnySlice(memberIDs),
	}
}

// Item builds a flow item with optional assignments.
func Item(title string, order int, assignments ...map[string]any) map[string]any {
	item := map[string]any{
		"title": title,
		"order": order,
	}
	if len(assignments) > 0 {
		item["assignments"] = mapsToAny(assignments)
	}
	return item
}

// SongRef builds a setlist song reference.
func SongRef(id string) map[string]any {
	return map[string]any{"id": id, "key": "G"}
}

// Tenant builds a tenant document.
func Tenant(name string, users, admins []string) map[string]any {
	return map[string]any{
		"name":   name,
		"users":  toAnySlice(users),
		"admins": toAnySlice(admins),
	}
}

// Song builds a legacy song document.
func Song(tenantID, title string) map[string]any {
	return map[string]any{"team_id": tenantID, "title": title}
}

// Sheet builds a legacy sheet with a singular url.
func Sheet(tenantID, songID, url string) map[string]any {
	return map[string]any{"team_id": tenantID, "song_id": songID, "url": url}
}

// Comment builds a legacy song comment.
func Comment(tenantID, songID, text string) map[string]any {
	return map[string]any{"team_id": tenantID, "song_id": songID, "text": text}
}

// LegacyNotice builds a notice in the subject/content shape.
func LegacyNotice(tenantID, subject, content, createdAt string) map[string]any {
	return map[string]any{
		"team_id":    tenantID,
		"subject":    subject,
		"content":    content,
		"created_at": createdAt,
	}
}

// SchedulePath returns the root path of a legacy schedule.
func SchedulePath(id string) string {
	return entities.CollectionSchedules + "/" + id
}

func toAnySlice(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func mapsToAny(values []map[string]any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
