package service

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"campusshare.app/api/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const (
	listingsIndex = "listings"
	groupsIndex   = "study_groups"
)

// SearchService keeps Meilisearch in sync with Postgres and answers free-text
// queries with matching IDs. Index writes are best-effort: Postgres stays the
// source of truth and a failed index write only costs search freshness.
type SearchService interface {
	IndexListing(listing *entity.Listing) error
	DeleteListing(id string) error
	IndexGroup(group *entity.StudyGroup) error
	DeleteGroup(id string) error
	SearchListings(query string, filters map[string]string, offset, limit int) ([]uuid.UUID, int64, error)
	SearchGroups(query string, filters map[string]string, offset, limit int) ([]uuid.UUID, int64, error)
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *searchService) initIndexes() {
	listingFilterable := []interface{}{"category", "price_type", "condition", "status"}
	if _, err := s.client.Index(listingsIndex).UpdateFilterableAttributes(&listingFilterable); err != nil {
		log.Printf("Failed to update listings filterable attributes: %v", err)
	}

	listingSortable := []string{"created_at", "views", "price"}
	if _, err := s.client.Index(listingsIndex).UpdateSortableAttributes(&listingSortable); err != nil {
		log.Printf("Failed to update listings sortable attributes: %v", err)
	}

	groupFilterable := []interface{}{"subject", "status"}
	if _, err := s.client.Index(groupsIndex).UpdateFilterableAttributes(&groupFilterable); err != nil {
		log.Printf("Failed to update study_groups filterable attributes: %v", err)
	}

	groupSortable := []string{"created_at"}
	if _, err := s.client.Index(groupsIndex).UpdateSortableAttributes(&groupSortable); err != nil {
		log.Printf("Failed to update study_groups sortable attributes: %v", err)
	}
}

func (s *searchService) clean(text string) string {
	return html.UnescapeString(s.sanitizer.Sanitize(text))
}

func (s *searchService) IndexListing(listing *entity.Listing) error {
	doc := map[string]interface{}{
		"id":          listing.ID.String(),
		"title":       s.clean(listing.Title),
		"description": s.clean(listing.Description),
		"category":    listing.Category,
		"price":       listing.Price,
		"price_type":  listing.PriceType,
		"condition":   listing.Condition,
		"location":    s.clean(listing.Location),
		"status":      listing.Status,
		"views":       listing.Views,
		"created_at":  listing.CreatedAt.Unix(),
	}

	_, err := s.client.Index(listingsIndex).AddDocuments([]map[string]interface{}{doc}, nil)
	return err
}

func (s *searchService) DeleteListing(id string) error {
	_, err := s.client.Index(listingsIndex).DeleteDocument(id)
	return err
}

func (s *searchService) IndexGroup(group *entity.StudyGroup) error {
	doc := map[string]interface{}{
		"id":          group.ID.String(),
		"name":        s.clean(group.Name),
		"description": s.clean(group.Description),
		"course":      s.clean(group.Course),
		"subject":     group.Subject,
		"status":      group.Status,
		"created_at":  group.CreatedAt.Unix(),
	}

	_, err := s.client.Index(groupsIndex).AddDocuments([]map[string]interface{}{doc}, nil)
	return err
}

func (s *searchService) DeleteGroup(id string) error {
	_, err := s.client.Index(groupsIndex).DeleteDocument(id)
	return err
}

func (s *searchService) SearchListings(query string, filters map[string]string, offset, limit int) ([]uuid.UUID, int64, error) {
	return s.search(listingsIndex, query, filters, offset, limit)
}

func (s *searchService) SearchGroups(query string, filters map[string]string, offset, limit int) ([]uuid.UUID, int64, error) {
	return s.search(groupsIndex, query, filters, offset, limit)
}

func (s *searchService) search(index, query string, filters map[string]string, offset, limit int) ([]uuid.UUID, int64, error) {
	var clauses []string
	for attr, value := range filters {
		clauses = append(clauses, fmt.Sprintf("%s = %q", attr, value))
	}

	req := &meilisearch.SearchRequest{
		Offset: int64(offset),
		Limit:  int64(limit),
		Sort:   []string{"created_at:desc"},
	}
	if len(clauses) > 0 {
		req.Filter = strings.Join(clauses, " AND ")
	}

	resp, err := s.client.Index(index).Search(query, req)
	if err != nil {
		return nil, 0, err
	}

	return idsFromHits(resp.Hits), resp.EstimatedTotalHits, nil
}

// idsFromHits decodes the "id" field of each hit; malformed hits are skipped.
func idsFromHits(hits meilisearch.Hits) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(hits))
	for _, hit := range hits {
		raw, ok := hit["id"]
		if !ok {
			continue
		}
		var idStr string
		if err := json.Unmarshal(raw, &idStr); err != nil {
			continue
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
