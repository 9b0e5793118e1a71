package search

import (
	"context"

	errors "github.com/Laisky/errors/v2"
	"github.com/mgomes/emofind/internal/emojiapi"
)

const DefaultTopK = 20

// Result is one ranked search hit. Results are immutable once returned and
// keep the service's rank order.
type Result struct {
	Payload  string
	Label    string
	Category string
	Score    *float64
}

type Client interface {
	Search(ctx context.Context, requestID, query string, topK int) (*emojiapi.SearchResponse, error)
}

type Searcher struct {
	client Client
	topK   int
}

func New(client Client, topK int) *Searcher {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Searcher{
		client: client,
		topK:   topK,
	}
}

func (s *Searcher) Search(ctx context.Context, requestID, query string) ([]Result, error) {
	resp, err := s.client.Search(ctx, requestID, query, s.topK)
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}

	return FromEmojis(resp.Results), nil
}

func FromEmojis(emojis []emojiapi.Emoji) []Result {
	results := make([]Result, len(emojis))
	for i, e := range emojis {
		results[i] = Result{
			Payload:  e.Emoji,
			Label:    e.Name,
			Category: e.Group,
			Score:    e.Score,
		}
	}
	return results
}
