package service

import (
	"context"
	"log"

	"chattr.app/backend/internal/entity"
	search "chattr.app/backend/internal/modules/search/service"
	"chattr.app/backend/internal/modules/user/dto"
	"chattr.app/backend/internal/modules/user/repository"
	commonDto "chattr.app/backend/pkg/dto"
)

type UserService interface {
	ListUsers(ctx context.Context, userID uint, query dto.UserListQuery) (commonDto.Page[entity.User], error)
	// SyncSearchIndex pushes the whole directory to the search engine.
	SyncSearchIndex(ctx context.Context) error
}

type userService struct {
	repo  repository.UserRepository
	meili search.UserSearchService
}

func NewUserService(repo repository.UserRepository, meili search.UserSearchService) UserService {
	return &userService{repo: repo, meili: meili}
}

func (s *userService) ListUsers(ctx context.Context, userID uint, query dto.UserListQuery) (commonDto.Page[entity.User], error) {
	page := query.PageQuery.Normalize(commonDto.DefaultPageSize)

	if query.Search != "" && s.meili != nil {
		ids, total, err := s.meili.SearchUsers(query.Search, userID, page.Offset(), page.PageSize)
		if err == nil {
			users, err := s.repo.FindByIDs(ctx, ids)
			if err != nil {
				return commonDto.Page[entity.User]{}, err
			}
			return commonDto.NewPage(users, page, total), nil
		}
		log.Printf("User search via meilisearch failed, falling back to SQL: %v", err)
	}

	users, total, err := s.repo.List(ctx, userID, query.Search, page.Offset(), page.PageSize)
	if err != nil {
		return commonDto.Page[entity.User]{}, err
	}
	return commonDto.NewPage(users, page, total), nil
}

func (s *userService) SyncSearchIndex(ctx context.Context) error {
	if s.meili == nil {
		return nil
	}
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}
	return s.meili.IndexUsers(users)
}
