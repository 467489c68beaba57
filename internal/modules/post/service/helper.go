package post

import (
	"context"

	"chattr.app/backend/internal/entity"
	postDto "chattr.app/backend/internal/modules/post/dto"
)

// toResponses attaches counts, the viewer's own reaction and the shared original to each post.
func (s *postService) toResponses(ctx context.Context, posts []entity.Post, viewerID uint) ([]postDto.PostResponse, error) {
	ids := make([]uint, 0, len(posts))
	var shareIDs []uint
	for _, p := range posts {
		ids = append(ids, p.ID)
		if p.IsShared && p.ShareID != nil {
			shareIDs = append(shareIDs, *p.ShareID)
		}
	}

	stats, err := s.postRepo.Stats(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}
	originals, err := s.postRepo.OriginalPosts(ctx, shareIDs)
	if err != nil {
		return nil, err
	}

	out := make([]postDto.PostResponse, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		st := stats[p.ID]

		resp := postDto.PostResponse{
			ID:             p.ID,
			UserID:         p.UserID,
			Content:        p.Content,
			IsShared:       p.IsShared,
			ShareID:        p.ShareID,
			User:           p.User.Summary(),
			LikesCount:     st.LikesCount,
			CommentCount:   st.CommentCount,
			ShareCount:     st.ShareCount,
			LikedByUser:    st.UserReactionID != nil,
			UserReactionID: st.UserReactionID,
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
		}
		if p.ShareID != nil {
			resp.OriginalPost = postDto.NewOriginalPostResponse(originals[*p.ShareID])
		}
		out = append(out, resp)
	}
	return out, nil
}
