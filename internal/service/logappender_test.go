package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
	"github.com/target/opsrelay/internal/testutil"
)

var testStream = model.LogStream{Group: "ops", Stream: "deploy", Region: "us-east-1"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type putCall struct {
	token   *string
	entries []model.LogEntry
}

// fakeLogBackend models a sequence-token guarded stream. seq 0 is an empty stream.
type fakeLogBackend struct {
	mu            sync.Mutex
	seq           int
	describeCalls int
	puts          []putCall
	accepted      []model.LogEntry
	putErr        error
	alwaysStale   bool
	onDescribe    func(n int)

	// barrier holds the first barrierN PutEvents calls until all of them have arrived.
	barrierN int
	arrived  int
	release  chan struct{}
}

func (f *fakeLogBackend) withBarrier(n int) *fakeLogBackend {
	f.barrierN = n
	f.release = make(chan struct{})
	return f
}

func (f *fakeLogBackend) DescribeStream(_ context.Context, _ model.LogStream) (model.StreamDescription, error) {
	f.mu.Lock()
	f.describeCalls++
	n := f.describeCalls
	hook := f.onDescribe
	desc := f.describeLocked()
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return desc, nil
}

func (f *fakeLogBackend) describeLocked() model.StreamDescription {
	if f.seq == 0 {
		return model.StreamDescription{Exists: false}
	}
	token := strconv.Itoa(f.seq)
	return model.StreamDescription{Exists: true, SequenceToken: &token}
}

func (f *fakeLogBackend) PutEvents(
	_ context.Context,
	stream model.LogStream,
	entries []model.LogEntry,
	token *string,
) error {
	f.mu.Lock()
	wait := false
	if f.arrived < f.barrierN {
		f.arrived++
		wait = true
		if f.arrived == f.barrierN {
			close(f.release)
		}
	}
	f.mu.Unlock()
	if wait {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, putCall{token: token, entries: entries})
	if f.putErr != nil {
		return f.putErr
	}

	expected := f.describeLocked().SequenceToken
	if f.alwaysStale || !sameToken(expected, token) {
		return apperrors.StaleToken(stream.Stream, errors.New("InvalidSequenceTokenException"))
	}
	f.seq++
	f.accepted = append(f.accepted, entries...)
	return nil
}

func sameToken(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func newTestAppender(t *testing.T, backend *fakeLogBackend, logger *slog.Logger) *LogAppender {
	t.Helper()
	if logger == nil {
		logger = discardLogger()
	}
	a, err := NewLogAppender(LogAppenderOptions{
		Backend: backend,
		Stream:  testStream,
		Logger:  logger,
		Clock:   testutil.NewFakeClock(time.UnixMilli(1_700_000_000_000)),
	})
	require.NoError(t, err)
	return a
}

func TestNewLogAppender_RequiresStreamWithBackend(t *testing.T) {
	_, err := NewLogAppender(LogAppenderOptions{Backend: &fakeLogBackend{}})
	require.Error(t, err)

	a, err := NewLogAppender(LogAppenderOptions{})
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestLogAppender_AppendEmptyStreamOmitsToken(t *testing.T) {
	backend := &fakeLogBackend{}
	a := newTestAppender(t, backend, nil)

	err := a.Append(context.Background(), model.LogEntry{Timestamp: 1, Message: "[START] Started running script"})
	require.NoError(t, err)

	assert.Equal(t, 1, backend.describeCalls)
	require.Len(t, backend.puts, 1)
	assert.Nil(t, backend.puts[0].token)
}

func TestLogAppender_AppendRefetchesTokenBeforeWrite(t *testing.T) {
	backend := &fakeLogBackend{seq: 3}
	// another writer lands between the two describes
	backend.onDescribe = func(n int) {
		if n == 1 {
			backend.mu.Lock()
			backend.seq++
			backend.mu.Unlock()
		}
	}
	a := newTestAppender(t, backend, nil)

	require.NoError(t, a.Append(context.Background(), model.LogEntry{Timestamp: 1, Message: "hello"}))

	assert.Equal(t, 2, backend.describeCalls)
	require.Len(t, backend.puts, 1)
	require.NotNil(t, backend.puts[0].token)
	assert.Equal(t, "4", *backend.puts[0].token)
	assert.Equal(t, 5, backend.seq)
}

func TestLogAppender_ConcurrentAppendOneLosesRace(t *testing.T) {
	backend := (&fakeLogBackend{seq: 1}).withBarrier(2)
	a := newTestAppender(t, backend, nil)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = a.Append(context.Background(), model.LogEntry{Timestamp: int64(i), Message: "entry " + strconv.Itoa(i)})
		}()
	}
	wg.Wait()

	var ok, stale int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.IsStaleToken(err):
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, stale)

	// the loser succeeds after re-fetching
	for i, err := range errs {
		if err != nil {
			require.NoError(t, a.Append(context.Background(), model.LogEntry{Timestamp: int64(i), Message: "entry " + strconv.Itoa(i)}))
		}
	}
	assert.Len(t, backend.accepted, 2)
}

func TestLogAppender_ConcurrentRecordRetriesOnce(t *testing.T) {
	backend := (&fakeLogBackend{seq: 1}).withBarrier(2)
	a := newTestAppender(t, backend, nil)

	var wg sync.WaitGroup
	for _, msg := range []string{"first", "second"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Record(context.Background(), msg)
		}()
	}
	wg.Wait()

	assert.Len(t, backend.puts, 3)
	assert.Equal(t, 6, backend.describeCalls)
	require.Len(t, backend.accepted, 2)
	got := []string{backend.accepted[0].Message, backend.accepted[1].Message}
	assert.ElementsMatch(t, []string{"first", "second"}, got)
}

func TestLogAppender_RecordFallsBackAfterSecondStaleToken(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	backend := &fakeLogBackend{seq: 1, alwaysStale: true}
	a := newTestAppender(t, backend, logger)

	assert.NotPanics(t, func() { a.Record(context.Background(), "lost entry") })

	assert.Len(t, backend.puts, 2)
	assert.Empty(t, backend.accepted)
	assert.Contains(t, buf.String(), "durable log write failed")
	assert.Contains(t, buf.String(), "lost entry")
}

func TestLogAppender_RecordDoesNotRetryOtherErrors(t *testing.T) {
	backend := &fakeLogBackend{putErr: errors.New("AccessDenied")}
	a := newTestAppender(t, backend, nil)

	a.Record(context.Background(), "hello")

	assert.Len(t, backend.puts, 1)
}

func TestLogAppender_RecordStampsClockTime(t *testing.T) {
	backend := &fakeLogBackend{}
	a := newTestAppender(t, backend, nil)

	a.Record(context.Background(), "stamped")

	require.Len(t, backend.accepted, 1)
	assert.Equal(t, int64(1_700_000_000_000), backend.accepted[0].Timestamp)
}

func TestLogAppender_WithoutBackendMirrorsOnly(t *testing.T) {
	var buf bytes.Buffer
	a, err := NewLogAppender(LogAppenderOptions{Logger: slog.New(slog.NewJSONHandler(&buf, nil))})
	require.NoError(t, err)

	a.Recordf(context.Background(), "[FINISH] Finished running script status=%d", 0)

	assert.Contains(t, buf.String(), "status=0")
	assert.True(t, apperrors.IsInternal(a.Append(context.Background(), model.LogEntry{})))
}

func TestFormatDiagnostic(t *testing.T) {
	type response struct {
		Zeta  string `json:"zeta"`
		Alpha int    `json:"alpha"`
	}

	tests := []struct {
		name string
		msg  any
		want string
	}{
		{name: "text verbatim", msg: "plain {text}", want: "plain {text}"},
		{name: "error text", msg: errors.New("boom"), want: "boom"},
		{
			name: "nested map sorted",
			msg:  map[string]any{"b": 1, "a": map[string]any{"d": 2, "c": 3}},
			want: "[RESPONSE]\n{\"a\":{\"c\":3,\"d\":2},\"b\":1}",
		},
		{
			name: "struct fields sorted",
			msg:  response{Zeta: "z", Alpha: 1},
			want: "[RESPONSE]\n{\"alpha\":1,\"zeta\":\"z\"}",
		},
		{
			name: "large integers preserved",
			msg:  map[string]uint64{"n": 18446744073709551615},
			want: "[RESPONSE]\n{\"n\":18446744073709551615}",
		},
		{name: "unencodable falls back", msg: make(chan int), want: "[RESPONSE]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDiagnostic(tt.msg)
			if tt.name == "unencodable falls back" {
				assert.True(t, len(got) > len(tt.want))
				assert.Equal(t, tt.want, got[:len(tt.want)])
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
