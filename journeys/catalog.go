package journeys

import (
	"context"
	"errors"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"wander/models"
	"wander/utils"
)

// Catalog is the Mongo-backed collection of source templates. Forks never
// touch it; they live in the per-user planner storage.
type Catalog struct {
	coll *mongo.Collection
}

func NewCatalog(coll *mongo.Collection) *Catalog {
	return &Catalog{coll: coll}
}

func listFilter() bson.M {
	return bson.M{"deleted": bson.M{"$ne": true}}
}

// searchFilter translates query parameters into a Mongo filter. Location and
// q match case-insensitively; duration matches exactly.
func searchFilter(query url.Values) bson.M {
	filter := listFilter()
	if location := query.Get("location"); location != "" {
		filter["location"] = bson.M{"$regex": location, "$options": "i"}
	}
	if q := query.Get("q"); q != "" {
		filter["title"] = bson.M{"$regex": q, "$options": "i"}
	}
	if duration := query.Get("duration"); duration != "" {
		filter["duration"] = duration
	}
	return filter
}

func (c *Catalog) find(ctx context.Context, filter bson.M) ([]*models.Journey, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	journeys, err := utils.FindAndDecode[models.Journey](ctx, c.coll, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Journey, len(journeys))
	for i := range journeys {
		out[i] = &journeys[i]
	}
	return out, nil
}

// List returns every source template in the catalog.
func (c *Catalog) List(ctx context.Context) ([]*models.Journey, error) {
	return c.find(ctx, listFilter())
}

// Search returns the templates matching the query parameters.
func (c *Catalog) Search(ctx context.Context, query url.Values) ([]*models.Journey, error) {
	return c.find(ctx, searchFilter(query))
}

// GetByID returns the template, or nil when it does not exist.
func (c *Catalog) GetByID(ctx context.Context, id string) (*models.Journey, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := listFilter()
	filter["journeyid"] = id

	var journey models.Journey
	err := c.coll.FindOne(ctx, filter).Decode(&journey)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &journey, nil
}

// Create inserts a new source template.
func (c *Catalog) Create(ctx context.Context, j *models.Journey) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.coll.InsertOne(ctx, j)
	return err
}

// SoftDelete hides a template from the catalog without touching forks cut
// from it; their stale live pointers heal on next resolution.
func (c *Catalog) SoftDelete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"deleted": true}}
	_, err := c.coll.UpdateOne(ctx, bson.M{"journeyid": id}, update)
	return err
}
