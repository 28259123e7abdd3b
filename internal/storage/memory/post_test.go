package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/VitaminP8/forum/internal/post"
	"github.com/VitaminP8/forum/internal/thread"
	"github.com/VitaminP8/forum/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage() *PostMemoryStorage {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var tick time.Duration
	return NewPostMemoryStorage().WithClock(func() time.Time {
		tick += time.Second
		return base.Add(tick)
	})
}

func TestPostMemoryStorage_CreateRootPost(t *testing.T) {
	storage := newTestStorage()

	t.Run("Success post creation", func(t *testing.T) {
		created, err := storage.CreateRootPost("alice", "Test content")
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Nil(t, created.RootID)
		assert.Nil(t, created.ParentID)

		found, err := storage.GetPostByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "alice", found.Author)
		assert.Equal(t, "Test content", found.Message)
	})

	t.Run("Error: empty author or message", func(t *testing.T) {
		before := storage.Len()

		_, err := storage.CreateRootPost(" ", "content")
		assert.ErrorIs(t, err, post.ErrValidation)
		_, err = storage.CreateRootPost("alice", "\t")
		assert.ErrorIs(t, err, post.ErrValidation)

		assert.Equal(t, before, storage.Len())
	})

	t.Run("Returned post is a snapshot", func(t *testing.T) {
		created, err := storage.CreateRootPost("alice", "original")
		require.NoError(t, err)

		created.Message = "changed by caller"

		found, err := storage.GetPostByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", found.Message)
	})
}

func TestPostMemoryStorage_CreateReply(t *testing.T) {
	storage := newTestStorage()

	a, err := storage.CreateRootPost("alice", "A")
	require.NoError(t, err)

	t.Run("Three levels of nesting share the root", func(t *testing.T) {
		b, err := storage.CreateReply(a.ID, "bob", "B")
		require.NoError(t, err)
		c, err := storage.CreateReply(b.ID, "carol", "C")
		require.NoError(t, err)
		d, err := storage.CreateReply(c.ID, "dave", "D")
		require.NoError(t, err)

		assert.Equal(t, a.ID, *b.RootID)
		assert.Equal(t, a.ID, *c.RootID)
		assert.Equal(t, a.ID, *d.RootID)
		assert.Equal(t, c.ID, *d.ParentID)
	})

	t.Run("Error: parent not found", func(t *testing.T) {
		before := storage.Len()

		_, err := storage.CreateReply(1000, "bob", "orphan")
		assert.ErrorIs(t, err, post.ErrNotFound)
		assert.Equal(t, before, storage.Len())
	})

	t.Run("Error: empty reply", func(t *testing.T) {
		before := storage.Len()

		_, err := storage.CreateReply(a.ID, "", "text")
		assert.ErrorIs(t, err, post.ErrValidation)
		assert.Equal(t, before, storage.Len())
	})

	t.Run("Concurrent replies", func(t *testing.T) {
		var wg sync.WaitGroup
		var mu sync.Mutex
		seen := make(map[uint]bool)

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r, err := storage.CreateReply(a.ID, "bob", "concurrent")
				if !assert.NoError(t, err) {
					return
				}

				mu.Lock()
				seen[r.ID] = true
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Len(t, seen, 50)
	})
}

func TestPostMemoryStorage_GetRootPosts(t *testing.T) {
	storage := newTestStorage()

	first, err := storage.CreateRootPost("alice", "first")
	require.NoError(t, err)
	_, err = storage.CreateReply(first.ID, "bob", "reply")
	require.NoError(t, err)
	second, err := storage.CreateRootPost("carol", "second")
	require.NoError(t, err)
	require.NoError(t, storage.SoftDeletePost(first.ID))

	roots, err := storage.GetRootPosts()
	require.NoError(t, err)
	require.Len(t, roots, 2)

	assert.Equal(t, second.ID, roots[0].ID)
	assert.Equal(t, first.ID, roots[1].ID)
	assert.Equal(t, models.DeletedPlaceholder, roots[1].Message)
}

func TestPostMemoryStorage_SoftDeletePost(t *testing.T) {
	storage := newTestStorage()

	root, err := storage.CreateRootPost("alice", "A")
	require.NoError(t, err)
	child, err := storage.CreateReply(root.ID, "bob", "secret")
	require.NoError(t, err)

	t.Run("Delete once, fail twice", func(t *testing.T) {
		assert.NoError(t, storage.SoftDeletePost(child.ID))
		assert.ErrorIs(t, storage.SoftDeletePost(child.ID), post.ErrNotFound)
	})

	t.Run("Delete missing post", func(t *testing.T) {
		assert.ErrorIs(t, storage.SoftDeletePost(404), post.ErrNotFound)
	})

	t.Run("Deleted post keeps position in the tree", func(t *testing.T) {
		found, err := storage.GetPostByID(child.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DeletedPlaceholder, found.Message)
		assert.Equal(t, root.ID, *found.ParentID)

		tree, err := thread.NewAssembler(storage).BuildTree(root.ID)
		require.NoError(t, err)
		require.Len(t, tree, 1)
		assert.Equal(t, child.ID, tree[0].Post.ID)
		assert.Equal(t, models.DeletedPlaceholder, tree[0].Post.Message)
	})
}

func TestPostMemoryStorage_BuildTree(t *testing.T) {
	storage := newTestStorage()
	assembler := thread.NewAssembler(storage)

	a, _ := storage.CreateRootPost("alice", "A")
	b, _ := storage.CreateReply(a.ID, "bob", "B")
	c, _ := storage.CreateReply(b.ID, "carol", "C")
	d, _ := storage.CreateReply(a.ID, "dave", "D")

	tree, err := assembler.BuildTree(a.ID)
	require.NoError(t, err)

	require.Len(t, tree, 2)
	assert.Equal(t, b.ID, tree[0].Post.ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, c.ID, tree[0].Replies[0].Post.ID)
	assert.Empty(t, tree[0].Replies[0].Replies)
	assert.Equal(t, d.ID, tree[1].Post.ID)
	assert.Empty(t, tree[1].Replies)

	leaf, err := assembler.BuildTree(c.ID)
	require.NoError(t, err)
	assert.Empty(t, leaf)
}

func TestPostMemoryStorage_PanicPoisonsStorage(t *testing.T) {
	storage := newTestStorage()
	root, err := storage.CreateRootPost("alice", "A")
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = storage.View(func(r thread.Reader) error {
			panic("boom")
		})
	})

	_, err = storage.CreateRootPost("alice", "after panic")
	assert.ErrorIs(t, err, post.ErrLockPoisoned)
	assert.Contains(t, err.Error(), "boom")

	_, err = storage.GetPostByID(root.ID)
	assert.ErrorIs(t, err, post.ErrLockPoisoned)

	_, err = storage.CreateReply(root.ID, "bob", "B")
	assert.ErrorIs(t, err, post.ErrLockPoisoned)

	_, err = storage.GetRootPosts()
	assert.ErrorIs(t, err, post.ErrLockPoisoned)

	err = storage.SoftDeletePost(root.ID)
	assert.ErrorIs(t, err, post.ErrLockPoisoned)

	_, err = thread.NewAssembler(storage).BuildTree(root.ID)
	assert.ErrorIs(t, err, post.ErrLockPoisoned)

	// мьютекс отпущен, запись не пропала
	assert.Equal(t, 1, storage.Len())
}
