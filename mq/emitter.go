package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"wander/db"
	"wander/models"
	"wander/rdx"
)

const eventsChannel = "journey-events"

// Event is one journey lifecycle message published to Redis.
type Event struct {
	Name       string    `json:"name"`
	EntityType string    `json:"entity_type"`
	Method     string    `json:"method"`
	EntityID   string    `json:"entity_id"`
	UserID     string    `json:"user_id"`
	ItemID     string    `json:"item_id,omitempty"`
	At         time.Time `json:"at"`
}

// Emit publishes a journey event. Best effort: failures are logged, never
// surfaced to the caller. A no-op until InitRedis has run.
func Emit(ctx context.Context, name string, ev Event) {
	if rdx.Conn == nil {
		return
	}

	ev.Name = name
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Emit] Failed to marshal event %s: %v", name, err)
		return
	}
	if err := rdx.Conn.Publish(ctx, eventsChannel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish %s: %v", name, err)
	}
}

// StartJourneyEventsWorker drains the journey-events channel into the
// activities collection. Run in a goroutine at startup.
func StartJourneyEventsWorker() {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, eventsChannel)
	ch := sub.Channel()

	log.Println("[JourneyEvents] Listening for journey events...")

	for msg := range ch {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Printf("[JourneyEvents] Failed to parse event: %v", err)
			continue
		}
		if err := recordActivity(ctx, ev); err != nil {
			log.Printf("[JourneyEvents] Failed to record %s: %v", ev.Name, err)
		}
	}
}

func recordActivity(ctx context.Context, ev Event) error {
	activity := models.Activity{
		UserID:     ev.UserID,
		Action:     ev.Name,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		ItemID:     ev.ItemID,
		Timestamp:  ev.At,
	}
	_, err := db.ActivitiesCollection.InsertOne(ctx, activity)
	return err
}
