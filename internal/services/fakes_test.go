package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"maumlog/internal/models"
)

// In-memory repository fakes backing the service tests. They keep the same
// counting semantics as the SQL implementations: cached counters live on the
// entity rows, authoritative counts live in the like and comment maps.

// ===============================
// POST REPOSITORY FAKE
// ===============================

type fakePostRepo struct {
	mu       sync.Mutex
	nextID   int64
	posts    map[int64]*models.Post
	likes    map[int64]map[int64]bool // postID -> userID -> liked
	comments *fakeCommentRepo         // authoritative comment rows, set by newFixture
	failGet  bool
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		nextID: 1,
		posts:  make(map[int64]*models.Post),
		likes:  make(map[int64]map[int64]bool),
	}
}

func (r *fakePostRepo) seed(post *models.Post) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID == 0 {
		post.ID = r.nextID
		r.nextID++
	} else if post.ID >= r.nextID {
		r.nextID = post.ID + 1
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	r.posts[post.ID] = post
	return post
}

func (r *fakePostRepo) Create(ctx context.Context, post *models.Post) error {
	r.seed(post)
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64, viewerID *int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet {
		return nil, fmt.Errorf("storage unavailable")
	}
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *post
	if viewerID != nil {
		cp.UserLiked = r.likes[id][*viewerID]
	}
	return &cp, nil
}

func (r *fakePostRepo) Update(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return fmt.Errorf("post %d not found", post.ID)
	}
	r.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	delete(r.likes, id)
	return nil
}

func (r *fakePostRepo) ListByBoard(ctx context.Context, board models.Board, params models.PaginationParams, viewerID *int64) (*models.PaginatedResponse[*models.Post], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []*models.Post{}
	for _, p := range r.posts {
		if p.Board == board {
			cp := *p
			items = append(items, &cp)
		}
	}
	return &models.PaginatedResponse[*models.Post]{Items: items}, nil
}

func (r *fakePostRepo) ListByUserID(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Post], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []*models.Post{}
	for _, p := range r.posts {
		if p.UserID == userID {
			cp := *p
			items = append(items, &cp)
		}
	}
	return &models.PaginatedResponse[*models.Post]{Items: items}, nil
}

func (r *fakePostRepo) ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return false, 0, fmt.Errorf("post %d not found", postID)
	}
	if r.likes[postID] == nil {
		r.likes[postID] = make(map[int64]bool)
	}
	liked := !r.likes[postID][userID]
	if liked {
		r.likes[postID][userID] = true
	} else {
		delete(r.likes[postID], userID)
	}
	post.LikeCount = len(r.likes[postID])
	return liked, post.LikeCount, nil
}

func (r *fakePostRepo) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.likes[postID][userID], nil
}

func (r *fakePostRepo) CountComments(ctx context.Context, postID int64) (int, error) {
	return r.authoritativeCommentCount(postID), nil
}

func (r *fakePostRepo) CountLikes(ctx context.Context, postID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.likes[postID]), nil
}

func (r *fakePostRepo) ReconcileCommentCount(ctx context.Context, tx *sql.Tx, postID int64) (int, bool, error) {
	truth := r.authoritativeCommentCount(postID)
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return 0, false, fmt.Errorf("post %d not found", postID)
	}
	corrected := post.CommentCount != truth
	post.CommentCount = truth
	return truth, corrected, nil
}

func (r *fakePostRepo) ReconcileLikeCount(ctx context.Context, tx *sql.Tx, postID int64) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok {
		return 0, false, fmt.Errorf("post %d not found", postID)
	}
	truth := len(r.likes[postID])
	corrected := post.LikeCount != truth
	post.LikeCount = truth
	return truth, corrected, nil
}

func (r *fakePostRepo) authoritativeCommentCount(postID int64) int {
	if r.comments == nil {
		return 0
	}
	r.comments.mu.Lock()
	defer r.comments.mu.Unlock()
	count := 0
	for _, c := range r.comments.comments {
		if c.PostID == postID {
			count++
		}
	}
	return count
}

// drift forces the cached counters out of step with the authoritative rows.
func (r *fakePostRepo) drift(postID int64, commentCount, likeCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[postID].CommentCount = commentCount
	r.posts[postID].LikeCount = likeCount
}

// ===============================
// COMMENT REPOSITORY FAKE
// ===============================

type fakeCommentRepo struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64]*models.Comment
	likes    map[int64]map[int64]bool // commentID -> userID -> liked
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{
		nextID:   1,
		comments: make(map[int64]*models.Comment),
		likes:    make(map[int64]map[int64]bool),
	}
}

func (r *fakeCommentRepo) seed(comment *models.Comment) *models.Comment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if comment.ID == 0 {
		comment.ID = r.nextID
		r.nextID++
	} else if comment.ID >= r.nextID {
		r.nextID = comment.ID + 1
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	r.comments[comment.ID] = comment
	return comment
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	r.seed(comment)
	if comment.ParentCommentID != nil {
		if parent, ok := r.comments[*comment.ParentCommentID]; ok {
			parent.ReplyCount++
		}
	}
	return nil
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, nil
	}
	cp := *comment
	return &cp, nil
}

func (r *fakeCommentRepo) Update(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[comment.ID]; !ok {
		return fmt.Errorf("comment %d not found", comment.ID)
	}
	r.comments[comment.ID] = comment
	return nil
}

func (r *fakeCommentRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Cascade to the reply subtree the way the SQL schema does.
	doomed := map[int64]bool{id: true}
	for changed := true; changed; {
		changed = false
		for cid, c := range r.comments {
			if doomed[cid] {
				continue
			}
			if c.ParentCommentID != nil && doomed[*c.ParentCommentID] {
				doomed[cid] = true
				changed = true
			}
		}
	}
	for cid := range doomed {
		delete(r.comments, cid)
		delete(r.likes, cid)
	}
	return nil
}

func (r *fakeCommentRepo) ListByPostID(ctx context.Context, postID int64, viewerID *int64) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []*models.Comment
	for _, c := range r.comments {
		if c.PostID != postID {
			continue
		}
		cp := *c
		if viewerID != nil {
			cp.UserLiked = r.likes[c.ID][*viewerID]
		}
		rows = append(rows, &cp)
	}
	return rows, nil
}

func (r *fakeCommentRepo) CountByPostID(ctx context.Context, postID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.comments {
		if c.PostID == postID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCommentRepo) ToggleLike(ctx context.Context, commentID, userID int64) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[commentID]
	if !ok {
		return false, 0, fmt.Errorf("comment %d not found", commentID)
	}
	if r.likes[commentID] == nil {
		r.likes[commentID] = make(map[int64]bool)
	}
	liked := !r.likes[commentID][userID]
	if liked {
		r.likes[commentID][userID] = true
	} else {
		delete(r.likes[commentID], userID)
	}
	comment.LikeCount = len(r.likes[commentID])
	return liked, comment.LikeCount, nil
}

func (r *fakeCommentRepo) ReconcileLikeCount(ctx context.Context, tx *sql.Tx, commentID int64) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[commentID]
	if !ok {
		return 0, false, fmt.Errorf("comment %d not found", commentID)
	}
	truth := len(r.likes[commentID])
	corrected := comment.LikeCount != truth
	comment.LikeCount = truth
	return truth, corrected, nil
}

// ===============================
// USER REPOSITORY FAKE
// ===============================

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int64]*models.User)}
}

func (r *fakeUserRepo) seed(user *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	} else if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	for _, u := range r.users {
		if u.Nickname == user.Nickname {
			r.mu.Unlock()
			return fmt.Errorf("nickname %q already taken", user.Nickname)
		}
	}
	r.mu.Unlock()
	r.seed(user)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			cp := *user
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Nickname == nickname {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateNotificationSettings(ctx context.Context, userID int64, settings models.NotificationSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %d not found", userID)
	}
	user.Notifications = settings
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %d not found", id)
	}
	delete(r.users, id)
	return nil
}

// ===============================
// NOTIFICATION REPOSITORY FAKE
// ===============================

type fakeNotificationRepo struct {
	mu         sync.Mutex
	nextID     int64
	rows       map[int64]*models.Notification
	failCreate bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1, rows: make(map[int64]*models.Notification)}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return fmt.Errorf("storage unavailable")
	}
	notification.ID = r.nextID
	r.nextID++
	notification.CreatedAt = time.Now()
	cp := *notification
	r.rows[notification.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, userID int64, params models.PaginationParams, filter models.NotificationFilter) (*models.PaginatedResponse[*models.Notification], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []*models.Notification{}
	for _, n := range r.rows {
		if n.RecipientID != userID {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		cp := *n
		items = append(items, &cp)
	}
	return &models.PaginatedResponse[*models.Notification]{Items: items}, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[notificationID]
	if !ok || row.RecipientID != userID {
		return fmt.Errorf("notification %d not found", notificationID)
	}
	row.IsRead = true
	now := time.Now()
	row.ReadAt = &now
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var marked int64
	for _, n := range r.rows {
		if n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			marked++
		}
	}
	return marked, nil
}

func (r *fakeNotificationRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.rows {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, notificationID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[notificationID]
	if !ok || row.RecipientID != userID {
		return fmt.Errorf("notification %d not found", notificationID)
	}
	delete(r.rows, notificationID)
	return nil
}

func (r *fakeNotificationRepo) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, n := range r.rows {
		if n.CreatedAt.Before(olderThan) {
			delete(r.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeNotificationRepo) forRecipient(userID int64) []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.rows {
		if n.RecipientID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out
}
