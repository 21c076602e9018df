package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"bulletin/pkg/apperr"
	"bulletin/pkg/logger"
)

// Index is the adapter in front of the external search cluster. Pushes are
// best-effort and never part of a storage transaction: a failed push surfaces
// to the caller but the committed write stays committed.
type Index struct {
	client  *elasticsearch.Client
	index   string
	timeout time.Duration
}

func New(addresses []string, index string) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	return &Index{client: client, index: index, timeout: 5 * time.Second}, nil
}

// IndexArticle upserts the full serialized article under its id. The document
// is always rebuilt wholesale by the caller, never patched incrementally.
func (i *Index) IndexArticle(ctx context.Context, id int64, doc []byte) error {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	res, err := i.client.Index(i.index, bytes.NewReader(doc),
		i.client.Index.WithDocumentID(strconv.FormatInt(id, 10)),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		logger.Sugar.Errorf("Failed to index article %d: %v", id, err)
		return fmt.Errorf("%w: %v", apperr.ErrIndexSync, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		logger.Sugar.Errorf("Index rejected article %d: %s", id, res.Status())
		return fmt.Errorf("%w: index returned %s", apperr.ErrIndexSync, res.Status())
	}
	return nil
}

// SearchArticles resolves a keyword to article ids. The caller rehydrates
// full rows from storage and drops ids that no longer resolve there.
func (i *Index) SearchArticles(ctx context.Context, keyword string) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keyword,
				"fields": []string{"title", "content"},
			},
		},
		"_source": false,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("building search query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		logger.Sugar.Errorf("Search for %q failed: %v", keyword, err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrIndexSync, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		logger.Sugar.Errorf("Search for %q rejected: %s", keyword, res.Status())
		return nil, fmt.Errorf("%w: search returned %s", apperr.ErrIndexSync, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", apperr.ErrIndexSync, err)
	}

	ids := make([]int64, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			// Foreign documents in the index are not ours to surface.
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
