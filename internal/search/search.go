// internal/search/search.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"stayease/internal/common/logger"
	"stayease/internal/filter"
	"stayease/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrIndexNotFound     = errors.New("INDEX_NOT_FOUND")
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrIndexingFailed    = errors.New("INDEXING_FAILED")
)

// Client indexes and queries the listing mirror.
type Client struct {
	es    *elasticsearch.Client
	index string
	log   logger.Logger
}

func New(es *elasticsearch.Client, index string, log logger.Logger) *Client {
	return &Client{
		es:    es,
		index: index,
		log:   log.WithFields(map[string]interface{}{"component": "search", "index": index}),
	}
}

func (c *Client) Index() string {
	return c.index
}

// EnsureIndex creates the index with its mapping when missing.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{c.index}}.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := json.Marshal(indexMapping)
	res, err = esapi.IndicesCreateRequest{Index: c.index, Body: bytes.NewReader(body)}.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: create index: %s", ErrIndexingFailed, res.String())
	}

	c.log.Info("search index created", nil)
	return nil
}

// IndexCatalog bulk-indexes listings, keyed by id, with their catalog
// position. The index is refreshed before returning.
func (c *Client) IndexCatalog(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range listings {
		doc := NewDocument(&listings[i], i)
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": c.index, "_id": doc.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	res, err := esapi.BulkRequest{Body: &buf, Refresh: "true"}.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexingFailed, res.String())
	}

	var bulk struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return fmt.Errorf("%w: decode bulk response: %v", ErrIndexingFailed, err)
	}
	if bulk.Errors {
		for _, item := range bulk.Items {
			for _, r := range item {
				if r.Error != nil {
					return fmt.Errorf("%w: %s", ErrIndexingFailed, r.Error.Reason)
				}
			}
		}
		return fmt.Errorf("%w: bulk request reported errors", ErrIndexingFailed)
	}

	c.log.Info("catalog indexed", map[string]interface{}{"count": len(listings)})
	return nil
}

// Search returns the ids of matching listings in catalog order.
func (c *Client) Search(ctx context.Context, criteria filter.Criteria) ([]string, error) {
	body, err := json.Marshal(BuildQuery(criteria))
	if err != nil {
		return nil, err
	}

	res, err := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
	}.Do(ctx, c.es)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrIndexNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID string `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchQueryFailed, err)
	}

	ids := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	c.log.Debug("search completed", map[string]interface{}{"hits": len(ids)})
	return ids, nil
}
