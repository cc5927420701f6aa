package models

import (
	"time"

	"wander/utils"
)

type JourneyStatus string

const (
	StatusPlanned   JourneyStatus = "PLANNED"
	StatusLive      JourneyStatus = "LIVE"
	StatusCompleted JourneyStatus = "COMPLETED"
)

// JourneyMode is derived from the session references, never stored.
type JourneyMode string

const (
	ModeNone       JourneyMode = ""
	ModeInspection JourneyMode = "INSPECTION"
	ModePlanning   JourneyMode = "PLANNING"
	ModeNavigation JourneyMode = "NAVIGATION"
	ModeCompleted  JourneyMode = "COMPLETED"
)

// Coordinates holds a [longitude, latitude] pair.
type Coordinates [2]float64

func (c Coordinates) Lng() float64 { return c[0] }
func (c Coordinates) Lat() float64 { return c[1] }

type Author struct {
	Name      string `json:"name" bson:"name"`
	AvatarURL string `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	Bio       string `json:"bio,omitempty" bson:"bio,omitempty"`
}

// Stop carries the geographic and display fields of a journey stop. Visited
// and Note only ever change on fork stops; source stops keep the zero values.
type Stop struct {
	StopID      string      `json:"stopid" bson:"stopid"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
	ImageURL    string      `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Visited     bool        `json:"visited" bson:"visited"`
	Note        string      `json:"note,omitempty" bson:"note,omitempty"`
}

// Moment is a captured photo pinned to a location. Append-only per journey.
type Moment struct {
	MomentID    string      `json:"momentid" bson:"momentid"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
	ImageURL    string      `json:"imageUrl" bson:"imageUrl"`
	Caption     string      `json:"caption,omitempty" bson:"caption,omitempty"`
	Author      *Author     `json:"author,omitempty" bson:"author,omitempty"`
}

// Journey represents either a source template or a user fork. A fork carries
// a non-empty SourceJourneyID pointing back at the template it was cloned
// from; that field is the discriminator between the two.
type Journey struct {
	JourneyID       string        `json:"journeyid" bson:"journeyid"`
	SourceJourneyID string        `json:"sourceJourneyId,omitempty" bson:"sourceJourneyId,omitempty"`
	UserID          string        `json:"userId,omitempty" bson:"userId,omitempty"`
	Title           string        `json:"title" bson:"title"`
	Location        string        `json:"location,omitempty" bson:"location,omitempty"`
	Duration        string        `json:"duration,omitempty" bson:"duration,omitempty"`
	CoverImageURL   string        `json:"coverImageUrl,omitempty" bson:"coverImageUrl,omitempty"`
	Author          Author        `json:"author" bson:"author"`
	Status          JourneyStatus `json:"status,omitempty" bson:"status,omitempty"`
	IsCompleted     bool          `json:"isCompleted,omitempty" bson:"isCompleted,omitempty"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	ClonedAt        *time.Time    `json:"clonedAt,omitempty" bson:"clonedAt,omitempty"`
	Stops           []Stop        `json:"stops" bson:"stops"`
	Moments         []Moment      `json:"moments" bson:"moments"`
	Deleted         bool          `json:"-" bson:"deleted,omitempty"`

	sealed bool
}

// IsFork reports whether j is a user fork rather than a source template.
func IsFork(j *Journey) bool {
	return j != nil && j.SourceJourneyID != ""
}

// DeriveStatus returns COMPLETED for a completed fork, otherwise the stored
// status. Status must always be read through this function.
func DeriveStatus(j *Journey) JourneyStatus {
	if j == nil {
		return ""
	}
	if j.IsCompleted {
		return StatusCompleted
	}
	return j.Status
}

// Clone returns a deep copy of j sharing no slices or pointers with the
// original. The copy is always unsealed.
func (j *Journey) Clone() *Journey {
	if j == nil {
		return nil
	}
	out := *j
	out.sealed = false
	if j.Stops != nil {
		out.Stops = make([]Stop, len(j.Stops))
		copy(out.Stops, j.Stops)
	}
	if j.Moments != nil {
		out.Moments = make([]Moment, len(j.Moments))
		for i, m := range j.Moments {
			out.Moments[i] = m
			if m.Author != nil {
				a := *m.Author
				out.Moments[i].Author = &a
			}
		}
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.ClonedAt != nil {
		t := *j.ClonedAt
		out.ClonedAt = &t
	}
	return &out
}

// Seal marks j as a read-only inspection snapshot and returns it.
func (j *Journey) Seal() *Journey {
	j.sealed = true
	return j
}

// Sealed reports whether j was sealed for inspection.
func (j *Journey) Sealed() bool {
	return j != nil && j.sealed
}

// NewFork deep-copies a source template into a fresh PLANNED fork owned by
// userID. Stops start unvisited with empty notes.
func NewFork(source *Journey, userID string) *Journey {
	fork := source.Clone()
	fork.JourneyID = utils.GenerateID(16)
	fork.SourceJourneyID = source.JourneyID
	fork.UserID = userID
	fork.Title = "Copy of " + source.Title
	fork.Status = StatusPlanned
	fork.IsCompleted = false
	fork.CompletedAt = nil
	now := time.Now()
	fork.ClonedAt = &now
	for i := range fork.Stops {
		fork.Stops[i].Visited = false
		fork.Stops[i].Note = ""
	}
	return fork
}
