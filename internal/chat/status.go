package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/dmelnick/relaychat/internal/database"
	"github.com/dmelnick/relaychat/internal/types"
)

// PostStatus publishes a feed entry. The author's display name and avatar
// are snapshotted onto the post, like sender names on messages.
func (s *Service) PostStatus(ctx context.Context, authorId int, body, imageUrl string) (types.StatusUpdate, error) {
	if body == "" && imageUrl == "" {
		return types.StatusUpdate{}, fmt.Errorf("%w: a status needs text or an image", ErrInvariant)
	}

	author, err := s.db.GetAccountById(authorId)
	if err != nil {
		return types.StatusUpdate{}, storeErr(err)
	}
	if author.IsBanned || DisabledNow(author, time.Now()) {
		return types.StatusUpdate{}, ErrForbidden
	}

	status, err := s.db.CreateStatusUpdate(database.CreateStatusUpdateParams{
		AuthorId:        authorId,
		AuthorName:      author.DisplayName,
		AuthorAvatarUrl: author.AvatarUrl,
		Body:            body,
		ImageUrl:        imageUrl,
	})
	if err != nil {
		return types.StatusUpdate{}, storeErr(err)
	}

	return toStatusUpdate(status), nil
}

// StatusFeed returns the newest posts with likers and comment counts.
func (s *Service) StatusFeed(ctx context.Context, limit int) ([]types.StatusUpdate, error) {
	dbUpdates, err := s.db.ListStatusUpdates(limit)
	if err != nil {
		return nil, storeErr(err)
	}

	updates := make([]types.StatusUpdate, 0, len(dbUpdates))
	for _, u := range dbUpdates {
		updates = append(updates, toStatusUpdate(u))
	}

	return updates, nil
}

// ToggleStatusLike flips the user's like on a post and returns the post's
// likers after the flip.
func (s *Service) ToggleStatusLike(ctx context.Context, statusId, userId int) ([]int, error) {
	if _, err := s.db.GetStatusUpdate(statusId); err != nil {
		return nil, storeErr(err)
	}

	if _, err := s.db.ToggleStatusLike(statusId, userId); err != nil {
		return nil, storeErr(err)
	}

	likerIds, err := s.db.GetStatusLikes(statusId)
	if err != nil {
		return nil, storeErr(err)
	}

	return likerIds, nil
}

// CommentOnStatus appends a comment to a post, snapshotting the commenter's
// display name.
func (s *Service) CommentOnStatus(ctx context.Context, statusId, authorId int, body string) (types.StatusComment, error) {
	if body == "" {
		return types.StatusComment{}, fmt.Errorf("%w: a comment needs text", ErrInvariant)
	}

	if _, err := s.db.GetStatusUpdate(statusId); err != nil {
		return types.StatusComment{}, storeErr(err)
	}

	author, err := s.db.GetAccountById(authorId)
	if err != nil {
		return types.StatusComment{}, storeErr(err)
	}
	if author.IsBanned || DisabledNow(author, time.Now()) {
		return types.StatusComment{}, ErrForbidden
	}

	comment, err := s.db.CreateStatusComment(database.CreateStatusCommentParams{
		StatusId:   statusId,
		AuthorId:   authorId,
		AuthorName: author.DisplayName,
		Body:       body,
	})
	if err != nil {
		return types.StatusComment{}, storeErr(err)
	}

	return toStatusComment(comment), nil
}

func (s *Service) StatusComments(ctx context.Context, statusId int) ([]types.StatusComment, error) {
	if _, err := s.db.GetStatusUpdate(statusId); err != nil {
		return nil, storeErr(err)
	}

	dbComments, err := s.db.ListStatusComments(statusId)
	if err != nil {
		return nil, storeErr(err)
	}

	comments := make([]types.StatusComment, 0, len(dbComments))
	for _, c := range dbComments {
		comments = append(comments, toStatusComment(c))
	}

	return comments, nil
}
