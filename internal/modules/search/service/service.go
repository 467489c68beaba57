package service

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"chattr.app/backend/internal/entity"
	"github.com/meilisearch/meilisearch-go"
)

const usersIndex = "users"

// UserSearchService keeps the user directory in Meilisearch and queries it.
type UserSearchService interface {
	IndexUsers(users []entity.User) error
	DeleteUser(id uint) error
	// SearchUsers returns matching user ids in relevance order, without excludeID.
	SearchUsers(query string, excludeID uint, offset, limit int) ([]uint, int64, error)
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

func NewMeiliSearchService(client meilisearch.ServiceManager) UserSearchService {
	s := &meiliSearchService{client: client}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []interface{}{"id"}
	if _, err := s.client.Index(usersIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("Failed to update users filterable attributes: %v", err)
	}

	searchable := []string{"first_name", "last_name", "email"}
	if _, err := s.client.Index(usersIndex).UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("Failed to update users searchable attributes: %v", err)
	}

	log.Println("Meilisearch users index initialized")
}

type meiliUserDoc struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (s *meiliSearchService) IndexUsers(users []entity.User) error {
	if len(users) == 0 {
		return nil
	}

	docs := make([]meiliUserDoc, 0, len(users))
	for _, u := range users {
		docs = append(docs, meiliUserDoc{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		})
	}

	task, err := s.client.Index(usersIndex).AddDocuments(docs, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed %d users, task id: %d", len(docs), task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteUser(id uint) error {
	_, err := s.client.Index(usersIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

type meiliSearchResult struct {
	Hits []struct {
		ID uint `json:"id"`
	} `json:"hits"`
	EstimatedTotalHits int64 `json:"estimatedTotalHits"`
}

func (s *meiliSearchService) SearchUsers(query string, excludeID uint, offset, limit int) ([]uint, int64, error) {
	raw, err := s.client.Index(usersIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Offset:               int64(offset),
		Limit:                int64(limit),
		Filter:               fmt.Sprintf("id != %d", excludeID),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, 0, err
	}

	var result meiliSearchResult
	if err := json.Unmarshal(*raw, &result); err != nil {
		return nil, 0, err
	}

	ids := make([]uint, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, result.EstimatedTotalHits, nil
}

func strPtr(s string) *string {
	return &s
}
