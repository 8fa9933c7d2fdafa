package models

import "time"

// ContentRevision is a snapshot of one page's payload as written by an editor.
// A revision is recorded after every successful content write.
type ContentRevision struct {
	ID       string    `bson:"_id" json:"id"` // UUID
	PageID   string    `bson:"page_id" json:"pageId"`
	Version  int64     `bson:"version" json:"version"` // settings document version after the write
	Content  any       `bson:"content" json:"content"`
	EditedBy string    `bson:"edited_by" json:"editedBy"`
	EditedAt time.Time `bson:"edited_at" json:"editedAt"`
}
