package entities

import (
	"time"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
)

// UnifiedService is one service per (tenant, date, tag set), joining schedule and worship data.
type UnifiedService struct {
	Title      string
	Date       time.Time
	TagID      *string
	ScheduleID string
	WorshipID  string
}

// ToMap renders the service for writing; timestamps are assigned by the store.
func (s UnifiedService) ToMap() map[string]any {
	out := map[string]any{
		"title":      s.Title,
		"date":       s.Date,
		"tag_id":     nil,
		"created_at": datastore.ServerTimestamp,
		"updated_at": datastore.ServerTimestamp,
	}
	if s.TagID != nil {
		out["tag_id"] = *s.TagID
	}
	if s.ScheduleID != "" {
		out["schedule_id"] = s.ScheduleID
	}
	if s.WorshipID != "" {
		out["worship_id"] = s.WorshipID
	}
	return out
}

// Setlist holds the song content of a service.
type Setlist struct {
	ServiceID     string
	Songs         []SongRef
	BeginningSong *SongRef
	EndingSong    *SongRef
	Description   string
	Link          string
}

// ToMap renders the setlist for writing.
func (s Setlist) ToMap() map[string]any {
	out := map[string]any{
		"service_id":     s.ServiceID,
		"songs":          SongRefMaps(s.Songs),
		"beginning_song": nil,
		"ending_song":    nil,
		"description":    s.Description,
		"link":           s.Link,
		"updated_at":     datastore.ServerTimestamp,
	}
	if s.BeginningSong != nil {
		out["beginning_song"] = s.BeginningSong.ToMap()
	}
	if s.EndingSong != nil {
		out["ending_song"] = s.EndingSong.ToMap()
	}
	return out
}

// Band holds the role assignments of a service.
type Band struct {
	ServiceID string
	Roles     []RoleAssignment
}

// ToMap renders the band for writing.
func (b Band) ToMap() map[string]any {
	return map[string]any{
		"service_id": b.ServiceID,
		"roles":      RoleAssignmentMaps(b.Roles),
		"updated_at": datastore.ServerTimestamp,
	}
}

// Flow holds the ordered cue items of a service.
type Flow struct {
	ServiceID string
	Items     []FlowItem
}

// ToMap renders the flow for writing.
func (f Flow) ToMap() map[string]any {
	return map[string]any{
		"service_id": f.ServiceID,
		"items":      FlowItemMaps(f.Items),
		"updated_at": datastore.ServerTimestamp,
	}
}
