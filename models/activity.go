package models

import "time"

// Activity is one recorded user action, written by the journey-events
// worker and read back as the profile activity trail.
type Activity struct {
	UserID     string    `json:"userId" bson:"userid"`
	Action     string    `json:"action" bson:"action"`
	EntityType string    `json:"entityType" bson:"entity_type"`
	EntityID   string    `json:"entityId" bson:"entity_id"`
	ItemID     string    `json:"itemId,omitempty" bson:"item_id,omitempty"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}
