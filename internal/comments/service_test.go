package comments

import (
	"errors"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"
)

// fakeStore 内存版 Store，记录调用次数以断言"校验失败零写入"
type fakeStore struct {
	comments map[uint]*models.Comment
	likes    map[uint]*models.CommentLike
	nextID   uint
	writes   int

	failUpdateCount bool
	updatedCounts   map[uint]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		comments:      make(map[uint]*models.Comment),
		likes:         make(map[uint]*models.CommentLike),
		updatedCounts: make(map[uint]int),
		nextID:        1,
	}
}

func (f *fakeStore) ListByPost(postID uint) ([]models.Comment, error) {
	var list []models.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			list = append(list, *c)
		}
	}
	return list, nil
}

func (f *fakeStore) Get(id uint) (*models.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (f *fakeStore) Create(c *models.Comment) error {
	f.writes++
	c.ID = f.nextID
	f.nextID++
	c.CreatedAt = time.Now()
	f.comments[c.ID] = c
	return nil
}

func (f *fakeStore) Delete(id uint) error {
	f.writes++
	delete(f.comments, id)
	return nil
}

func (f *fakeStore) FindLike(commentID uint, visitorID string) (*models.CommentLike, error) {
	for _, l := range f.likes {
		if l.CommentID == commentID && l.VisitorID == visitorID {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateLike(l *models.CommentLike) error {
	f.writes++
	l.ID = f.nextID
	f.nextID++
	f.likes[l.ID] = l
	return nil
}

func (f *fakeStore) DeleteLike(id uint) error {
	f.writes++
	delete(f.likes, id)
	return nil
}

func (f *fakeStore) CountLikes(commentID uint) (int64, error) {
	var count int64
	for _, l := range f.likes {
		if l.CommentID == commentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) UpdateLikesCount(commentID uint, count int) error {
	if f.failUpdateCount {
		return errors.New("counter write refused")
	}
	f.updatedCounts[commentID] = count
	if c, ok := f.comments[commentID]; ok {
		c.LikesCount = count
	}
	return nil
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   SubmitInput
		wantErr error
	}{
		{"empty name", SubmitInput{PostID: 1, AuthorName: "  ", AuthorEmail: "a@b.io", Content: "hi"}, ErrNameRequired},
		{"name too long", SubmitInput{PostID: 1, AuthorName: strings.Repeat("x", 101), AuthorEmail: "a@b.io", Content: "hi"}, ErrNameTooLong},
		{"bad email", SubmitInput{PostID: 1, AuthorName: "Ada", AuthorEmail: "not-an-email", Content: "hi"}, ErrEmailInvalid},
		{"missing tld", SubmitInput{PostID: 1, AuthorName: "Ada", AuthorEmail: "a@b", Content: "hi"}, ErrEmailInvalid},
		{"empty body", SubmitInput{PostID: 1, AuthorName: "Ada", AuthorEmail: "a@b.io", Content: "   "}, ErrContentEmpty},
		{"body too long", SubmitInput{PostID: 1, AuthorName: "Ada", AuthorEmail: "a@b.io", Content: strings.Repeat("y", 2001)}, ErrContentLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store)

			_, err := svc.Submit(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Submit() error = %v, want %v", err, tt.wantErr)
			}
			// 校验必须发生在任何写入之前
			if store.writes != 0 {
				t.Errorf("validation failure issued %d store writes, want 0", store.writes)
			}
		})
	}
}

func TestSubmitTrimsAndPersists(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	comment, err := svc.Submit(SubmitInput{
		PostID:      7,
		AuthorName:  "  Ada  ",
		AuthorEmail: "ada@example.com",
		Content:     "  first!  ",
	})
	if err != nil {
		t.Fatalf("Submit() unexpected error: %v", err)
	}
	if comment.AuthorName != "Ada" || comment.Content != "first!" {
		t.Errorf("fields not trimmed: %q / %q", comment.AuthorName, comment.Content)
	}
	if comment.PostID != 7 || comment.ParentID != nil {
		t.Errorf("unexpected persisted comment: %+v", comment)
	}
}

func TestSubmitReplyDepthCap(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	// 搭一条深度 0..4 的链
	parent, _ := svc.Submit(SubmitInput{PostID: 1, AuthorName: "A", AuthorEmail: "a@b.io", Content: "root"})
	for i := 0; i < MaxReplyDepth; i++ {
		child, err := svc.Submit(SubmitInput{PostID: 1, ParentID: &parent.ID, AuthorName: "A", AuthorEmail: "a@b.io", Content: "reply"})
		if err != nil {
			t.Fatalf("reply at depth %d should be accepted: %v", i+1, err)
		}
		parent = child
	}

	// parent 现在在第 5 层（Depth 4），不能再被回复
	_, err := svc.Submit(SubmitInput{PostID: 1, ParentID: &parent.ID, AuthorName: "A", AuthorEmail: "a@b.io", Content: "too deep"})
	if !errors.Is(err, ErrTooDeep) {
		t.Errorf("reply beyond max depth: error = %v, want ErrTooDeep", err)
	}
}

func TestSubmitReplyWrongPost(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	parent, _ := svc.Submit(SubmitInput{PostID: 1, AuthorName: "A", AuthorEmail: "a@b.io", Content: "root"})

	_, err := svc.Submit(SubmitInput{PostID: 2, ParentID: &parent.ID, AuthorName: "A", AuthorEmail: "a@b.io", Content: "cross-post"})
	if !errors.Is(err, ErrParentInvalid) {
		t.Errorf("cross-post reply: error = %v, want ErrParentInvalid", err)
	}
}

func TestToggleLikeRoundTrip(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	comment, _ := svc.Submit(SubmitInput{PostID: 1, AuthorName: "A", AuthorEmail: "a@b.io", Content: "like me"})
	visitor := "3e9a9e1c-7f6d-45a2-93dd-5a8e4f2b9c01"

	count, liked, err := svc.ToggleLike(comment.ID, visitor)
	if err != nil || !liked || count != 1 {
		t.Fatalf("first toggle: count=%d liked=%v err=%v, want 1/true/nil", count, liked, err)
	}

	count, liked, err = svc.ToggleLike(comment.ID, visitor)
	if err != nil || liked || count != 0 {
		t.Fatalf("second toggle: count=%d liked=%v err=%v, want 0/false/nil", count, liked, err)
	}

	// 两次切换后不留任何 join 记录
	if len(store.likes) != 0 {
		t.Errorf("stray like records after like/unlike: %d", len(store.likes))
	}
	if got, _ := svc.IsLiked(comment.ID, visitor); got {
		t.Errorf("IsLiked should be false after round trip")
	}
}

func TestToggleLikeOnePerVisitor(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	comment, _ := svc.Submit(SubmitInput{PostID: 1, AuthorName: "A", AuthorEmail: "a@b.io", Content: "popular"})

	svc.ToggleLike(comment.ID, "visitor-1")
	svc.ToggleLike(comment.ID, "visitor-2")
	count, _, _ := svc.ToggleLike(comment.ID, "visitor-3")

	if count != 3 {
		t.Errorf("three distinct visitors: count = %d, want 3", count)
	}
	if len(store.likes) != 3 {
		t.Errorf("join records = %d, want 3", len(store.likes))
	}
}

func TestToggleLikeCounterFailureSwallowed(t *testing.T) {
	store := newFakeStore()
	store.failUpdateCount = true
	svc := NewService(store)

	comment, _ := svc.Submit(SubmitInput{PostID: 1, AuthorName: "A", AuthorEmail: "a@b.io", Content: "drifting"})

	// 计数写失败不能让点赞本身失败：join 记录才是事实来源
	count, liked, err := svc.ToggleLike(comment.ID, "visitor-1")
	if err != nil {
		t.Fatalf("counter failure must be swallowed, got %v", err)
	}
	if !liked || count != 1 {
		t.Errorf("toggle result count=%d liked=%v, want 1/true", count, liked)
	}
	if len(store.likes) != 1 {
		t.Errorf("join record missing after counter failure")
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"reader@example.com", true},
		{"first.last+tag@sub.domain.co", true},
		{"not-an-email", false},
		{"@example.com", false},
		{"user@", false},
		{"user@domain", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidateEmail(tt.email); got != tt.ok {
			t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, got, tt.ok)
		}
	}
}
