package cli

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/VitaminP8/forum/internal/post"
	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// stepClock каждый вызов сдвигает время на секунду вперед
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testCLI struct {
	t     *testing.T
	db    string
	clock *stepClock
}

func newTestCLI(t *testing.T) *testCLI {
	t.Setenv("FORUM_DB_DRIVER", "sqlite3")
	return &testCLI{
		t:     t,
		db:    filepath.Join(t.TempDir(), "forum.db"),
		clock: &stepClock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
	}
}

func (c *testCLI) run(args ...string) (string, error) {
	c.t.Helper()

	cmd := newRootCommand(c.clock.Now)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", c.db}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func (c *testCLI) mustRun(args ...string) string {
	c.t.Helper()

	out, err := c.run(args...)
	require.NoError(c.t, err, "forum %v", args)
	return out
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "forum", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"post", "reply", "delete", "list", "show"} {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"db", "driver", "config"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestCommands(t *testing.T) {
	c := newTestCLI(t)

	out, err := c.run("list")
	require.NoError(t, err)
	assert.Equal(t, "No posts yet.\n", out)

	assert.Equal(t, "Created post #1\n", c.mustRun("post", "alice", "Hello forum"))
	assert.Equal(t, "Created reply #2 in thread #1\n", c.mustRun("reply", "1", "bob", "First reply"))
	assert.Equal(t, "Created reply #3 in thread #1\n", c.mustRun("reply", "2", "carol", "Deep"))
	assert.Equal(t, "Created post #4\n", c.mustRun("post", "dave", "Second thread"))
	assert.Equal(t, "Deleted post #4\n", c.mustRun("delete", "4"))

	out = c.mustRun("list")
	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "AUTHOR")
	// новые ветки первыми
	assert.Contains(t, string(lines[1]), "[deleted]")
	assert.Contains(t, string(lines[2]), "Hello forum")
}

func TestCommandErrors(t *testing.T) {
	c := newTestCLI(t)

	_, err := c.run("post", "  ", "message")
	assert.ErrorIs(t, err, post.ErrValidation)

	_, err = c.run("reply", "42", "bob", "orphan")
	assert.ErrorIs(t, err, post.ErrNotFound)

	_, err = c.run("delete", "42")
	assert.ErrorIs(t, err, post.ErrNotFound)

	_, err = c.run("show", "abc")
	assert.Error(t, err)

	_, err = c.run("show", "0")
	assert.Error(t, err)

	_, err = c.run("reply", "1", "only-author")
	assert.Error(t, err)

	_, err = c.run("--driver", "mysql", "list")
	assert.Error(t, err)
}

func TestShowGolden(t *testing.T) {
	c := newTestCLI(t)

	c.mustRun("post", "alice", "Hello forum")
	c.mustRun("reply", "1", "bob", "First reply")
	c.mustRun("reply", "2", "carol", "Nested\nover two lines")
	c.mustRun("reply", "1", "dave", "Second reply")
	c.mustRun("delete", "2")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	g.Assert(t, "show_thread", []byte(c.mustRun("show", "1")))
	g.Assert(t, "show_subtree", []byte(c.mustRun("show", "2")))
}
