package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/greenstay/hotelenergy/internal/models"
)

// Index writes one telemetry reading into the search index. Ingest is
// best-effort: callers log failures instead of failing the request.
func Index(ctx context.Context, es *elasticsearch.Client, index string, data *models.RoomData) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("index error: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: fmt.Sprint(data.ID),
		Body:       bytes.NewReader(doc),
	}
	res, err := req.Do(ctx, es)
	if err != nil {
		return fmt.Errorf("index error: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index error: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy match on room_id and returns matching readings.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.RoomData, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"room_id"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
		"sort": []map[string]interface{}{
			{"timestamp": map[string]string{"order": "desc"}},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
		es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search error: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.RoomData `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}

	readings := make([]models.RoomData, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		readings = append(readings, h.Source)
	}
	return parsed.Hits.Total.Value, readings, nil
}
