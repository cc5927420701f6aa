package journeys

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const autocompleteKey = "autocomplete:journeys"

// Members are "matchkey|id|Title": the lowercased first segment is what the
// lex range matches, the rest carries the payload back out. Pipes are
// squashed in the match key so the segments stay aligned.
func matchKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "|", " "))
}

func encodeSuggestion(journeyID, title string) string {
	return matchKey(title) + "|" + journeyID + "|" + title
}

func parseSuggestion(member string) (id, title string, ok bool) {
	parts := strings.SplitN(member, "|", 3)
	if len(parts) != 3 {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// AddJourneyToAutocomplete registers a template title for prefix search.
func AddJourneyToAutocomplete(client *redis.Client, journeyID, title string) error {
	ctx := context.Background()

	_, err := client.ZAdd(ctx, autocompleteKey, redis.Z{
		Score:  0,
		Member: encodeSuggestion(journeyID, title),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to add journey to autocomplete: %w", err)
	}
	return nil
}

// SearchJourneyAutocomplete returns {id, name} suggestions whose title
// starts with the prefix, case-insensitively.
func SearchJourneyAutocomplete(client *redis.Client, prefix string, limit int64) ([]map[string]string, error) {
	ctx := context.Background()

	q := matchKey(strings.TrimSpace(prefix))
	if q == "" {
		return []map[string]string{}, nil
	}

	results, err := client.ZRangeByLex(ctx, autocompleteKey, &redis.ZRangeBy{
		Min:    "[" + q,
		Max:    "[" + q + "\xff",
		Offset: 0,
		Count:  limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to search journeys in autocomplete: %w", err)
	}

	suggestions := []map[string]string{}
	for _, member := range results {
		if id, title, ok := parseSuggestion(member); ok {
			suggestions = append(suggestions, map[string]string{"id": id, "name": title})
		}
	}
	return suggestions, nil
}
