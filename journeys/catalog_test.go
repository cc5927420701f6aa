package journeys

import (
	"net/url"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestSearchFilter(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  bson.M
	}{
		{
			name:  "no params",
			query: url.Values{},
			want:  bson.M{"deleted": bson.M{"$ne": true}},
		},
		{
			name:  "location",
			query: url.Values{"location": {"kyoto"}},
			want: bson.M{
				"deleted":  bson.M{"$ne": true},
				"location": bson.M{"$regex": "kyoto", "$options": "i"},
			},
		},
		{
			name:  "title and duration",
			query: url.Values{"q": {"food"}, "duration": {"3 days"}},
			want: bson.M{
				"deleted":  bson.M{"$ne": true},
				"title":    bson.M{"$regex": "food", "$options": "i"},
				"duration": "3 days",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchFilter(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("searchFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuggestionCodec(t *testing.T) {
	member := encodeSuggestion("j123", "Kyoto Classic")
	if member != "kyoto classic|j123|Kyoto Classic" {
		t.Fatalf("unexpected member %q", member)
	}

	id, title, ok := parseSuggestion(member)
	if !ok || id != "j123" || title != "Kyoto Classic" {
		t.Fatalf("parse = %q %q %v", id, title, ok)
	}

	if _, _, ok := parseSuggestion("garbage"); ok {
		t.Fatal("expected parse failure for member without separators")
	}
}

func TestParseSuggestionKeepsPipesInTitle(t *testing.T) {
	member := encodeSuggestion("j1", "A|B")
	if member != "a b|j1|A|B" {
		t.Fatalf("unexpected member %q", member)
	}
	id, title, ok := parseSuggestion(member)
	if !ok || id != "j1" || title != "A|B" {
		t.Fatalf("parse = %q %q %v", id, title, ok)
	}
}
