package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/trustgate/internal/confidence"
	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/pkg/notion"
)

// NotionSource retrieves records from Notion databases.
type NotionSource struct {
	client  notion.Client
	mapping *Mapping
}

// NewNotion creates a Notion-backed adapter.
func NewNotion(client notion.Client, mapping *Mapping) *NotionSource {
	return &NotionSource{client: client, mapping: mapping}
}

// Kind identifies this adapter as the notion source.
func (s *NotionSource) Kind() model.SourceKind {
	return model.SourceNotion
}

// Fetch queries the routed database and scores each page. Filter values
// match as rich_text "contains" conditions on the same-named properties.
func (s *NotionSource) Fetch(ctx context.Context, container string, filters model.Payload) ([]model.ScoredRecord, error) {
	dbID := s.mapping.Route(container).NotionDatabase

	req := &notionapi.DatabaseQueryRequest{PageSize: fetchLimit}
	if len(filters) > 0 {
		req.Filter = buildNotionFilter(filters)
	}

	pages, err := notion.QueryAll(ctx, s.client, dbID, req)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: fetch %s", container)
	}

	var records []model.ScoredRecord
	for _, p := range pages {
		payload := flattenPage(p)
		hash, err := PayloadHash(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, model.ScoredRecord{
			Payload: payload,
			Origin: model.Origin{
				Source:      model.SourceNotion,
				ID:          string(p.ID),
				Container:   container,
				RetrievedAt: time.Now().UTC(),
				Filters:     filters,
				PayloadHash: hash,
			},
			Confidence: confidence.Score(payload, filters, model.SourceNotion),
			Verified:   true,
		})
		if len(records) >= fetchLimit {
			break
		}
	}

	if len(records) == 0 {
		return []model.ScoredRecord{NotFoundRecord(model.SourceNotion, container, filters)}, nil
	}
	return records, nil
}

// Get returns the flattened properties of one page, or nil when the page
// does not exist.
func (s *NotionSource) Get(ctx context.Context, _ string, recordID string) (model.Payload, error) {
	page, err := s.client.GetPage(ctx, recordID)
	if err != nil {
		var apiErr *notionapi.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "notion: get page %s", recordID)
	}
	return flattenPage(*page), nil
}

// Ping verifies the integration token by fetching the bot user.
func (s *NotionSource) Ping(ctx context.Context) error {
	_, err := s.client.Me(ctx)
	return eris.Wrap(err, "notion: ping")
}

// Close is a no-op; the client holds no persistent connections.
func (s *NotionSource) Close() error {
	return nil
}

func buildNotionFilter(filters model.Payload) notionapi.Filter {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) == 1 {
		return propertyFilter(keys[0], filters[keys[0]])
	}
	var and notionapi.AndCompoundFilter
	for _, k := range keys {
		and = append(and, propertyFilter(k, filters[k]))
	}
	return and
}

func propertyFilter(name string, value any) notionapi.PropertyFilter {
	return notionapi.PropertyFilter{
		Property: name,
		RichText: &notionapi.TextFilterCondition{
			Contains: fmt.Sprint(value),
		},
	}
}

// flattenPage reduces a page's properties to plain values keyed by
// property name. Property types without a plain representation are skipped.
func flattenPage(p notionapi.Page) model.Payload {
	payload := make(model.Payload, len(p.Properties))
	for name, prop := range p.Properties {
		switch tp := prop.(type) {
		case *notionapi.TitleProperty:
			payload[name] = plainText(tp.Title)
		case *notionapi.RichTextProperty:
			payload[name] = plainText(tp.RichText)
		case *notionapi.NumberProperty:
			payload[name] = tp.Number
		case *notionapi.SelectProperty:
			payload[name] = tp.Select.Name
		case *notionapi.MultiSelectProperty:
			names := make([]string, 0, len(tp.MultiSelect))
			for _, opt := range tp.MultiSelect {
				names = append(names, opt.Name)
			}
			payload[name] = names
		case *notionapi.StatusProperty:
			payload[name] = tp.Status.Name
		case *notionapi.CheckboxProperty:
			payload[name] = tp.Checkbox
		case *notionapi.DateProperty:
			if tp.Date != nil && tp.Date.Start != nil {
				payload[name] = time.Time(*tp.Date.Start).Format(time.RFC3339)
			}
		case *notionapi.URLProperty:
			payload[name] = tp.URL
		case *notionapi.EmailProperty:
			payload[name] = tp.Email
		case *notionapi.PhoneNumberProperty:
			payload[name] = tp.PhoneNumber
		}
	}
	return payload
}

// plainText concatenates the plain_text values from a slice of RichText.
func plainText(rts []notionapi.RichText) string {
	var s string
	for _, rt := range rts {
		s += rt.PlainText
	}
	return s
}
