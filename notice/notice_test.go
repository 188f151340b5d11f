package notice_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/oa-client/notice"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCenterAutoDismiss(t *testing.T) {
	c := notice.NewCenter(notice.WithDuration(20 * time.Millisecond))

	id := notice.Error(c, "[500] Internal Server Error")
	require.NotEmpty(t, id)
	require.Len(t, c.Active(), 1)

	require.Eventually(t, func() bool {
		return len(c.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestCenterManualDismiss(t *testing.T) {
	c := notice.NewCenter(notice.WithDuration(time.Hour))
	defer c.Close()

	id := notice.Warning(c, "admin only")
	active := c.Active()
	require.Len(t, active, 1)
	require.True(t, active[0].Dismissible)
	require.Equal(t, notice.LevelWarning, active[0].Level)

	require.True(t, c.Dismiss(id))
	require.False(t, c.Dismiss(id))
	require.Empty(t, c.Active())
}

func TestCenterOrderAndSink(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	c := notice.NewCenter(
		notice.WithDuration(time.Hour),
		notice.WithNowFunc(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
		notice.WithSink(func(n notice.Notice) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, n.Message)
		}),
	)
	defer c.Close()

	c.Notify(notice.Notice{Message: "first"})
	c.Notify(notice.Notice{Message: "second", Level: notice.LevelError})

	active := c.Active()
	require.Len(t, active, 2)
	require.Equal(t, "first", active[0].Message)
	require.Equal(t, notice.LevelInfo, active[0].Level)
	require.Equal(t, "second", active[1].Message)
	require.Equal(t, []string{"first", "second"}, seen)
}

func TestCenterLogsNotices(t *testing.T) {
	var buf bytes.Buffer
	c := notice.NewCenter(notice.WithLogger(zerolog.New(&buf)), notice.WithDuration(time.Hour))
	defer c.Close()

	notice.Error(c, "network error, please retry")
	require.Contains(t, buf.String(), `"level":"error"`)
	require.Contains(t, buf.String(), "network error, please retry")
}

func TestRecorder(t *testing.T) {
	r := &notice.Recorder{}
	notice.Error(r, "boom")
	notice.Warning(r, "careful")

	notices := r.Notices()
	require.Len(t, notices, 2)
	require.Equal(t, notice.LevelError, notices[0].Level)

	r.Reset()
	require.Empty(t, r.Notices())
}
