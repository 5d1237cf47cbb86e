package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenario-quiz-service/internal/domain"
)

var key = domain.ProgressKey{User: "alice", QuizID: "regression-basics"}

func TestSaveMirrorsLocallyWhenRemoteFails(t *testing.T) {
	remote := &fakeRemote{failWith: errors.New("connection refused")}
	local := newFakeLocal()
	gw := NewGateway(remote, local, time.Second)

	res, err := gw.Save(context.Background(), key, sampleSnapshot())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	assert.False(t, res.Remote)
	assert.True(t, res.Local)
	assert.Contains(t, local.data, "alice_regression-basics")
}

func TestLoadPrefersRemote(t *testing.T) {
	remote := &fakeRemote{}
	local := newFakeLocal()
	gw := NewGateway(remote, local, time.Second)
	ctx := context.Background()

	older := sampleSnapshot()
	older.Experience = 10
	payload, err := Encode(older)
	require.NoError(t, err)
	local.data[key.String()] = payload

	newer := sampleSnapshot()
	newer.Experience = 40
	payload, err = Encode(newer)
	require.NoError(t, err)
	remote.data = map[domain.ProgressKey][]byte{key: payload}

	snap, source, err := gw.Load(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, SourceRemote, source)
	assert.Equal(t, 40, snap.Experience)
}

func TestLoadFallsBackToLocal(t *testing.T) {
	tests := []struct {
		name   string
		remote RemoteStore
	}{
		{"remote empty", &fakeRemote{}},
		{"remote down", &fakeRemote{failWith: errors.New("503")}},
		{"remote hangs", hangingRemote{}},
		{"no remote", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := newFakeLocal()
			payload, err := Encode(sampleSnapshot())
			require.NoError(t, err)
			local.data[key.String()] = payload

			gw := NewGateway(tt.remote, local, 20*time.Millisecond)
			snap, source, err := gw.Load(context.Background(), key)
			require.NoError(t, err)
			require.NotNil(t, snap)
			assert.Equal(t, SourceLocal, source)
			assert.Equal(t, 25, snap.Experience)
		})
	}
}

func TestHungRemoteSaveIsBounded(t *testing.T) {
	local := newFakeLocal()
	gw := NewGateway(hangingRemote{}, local, 20*time.Millisecond)

	start := time.Now()
	res, err := gw.Save(context.Background(), key, sampleSnapshot())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	assert.True(t, res.Local)
}

func TestRoundTrip(t *testing.T) {
	gw := NewGateway(&fakeRemote{}, newFakeLocal(), time.Second)
	ctx := context.Background()
	want := sampleSnapshot()

	_, err := gw.Save(ctx, key, want)
	require.NoError(t, err)

	got, _, err := gw.Load(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Experience, got.Experience)
	assert.Equal(t, want.Tools, got.Tools)
	assert.Equal(t, len(want.QuestionHistory), len(got.QuestionHistory))
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.QuestionHistory[0].SelectedAnswer, got.QuestionHistory[0].SelectedAnswer)
	assert.True(t, want.LastUpdated.Equal(got.LastUpdated))
}

func TestLoadNothingSaved(t *testing.T) {
	gw := NewGateway(&fakeRemote{}, newFakeLocal(), time.Second)
	snap, source, err := gw.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Equal(t, SourceNone, source)
}

func TestLoadReadsLegacyKey(t *testing.T) {
	local := newFakeLocal()
	local.data["regression-basics_alice"] = []byte(`{"experience": 12, "tools": ["Logs"]}`)
	gw := NewGateway(nil, local, time.Second)

	snap, source, err := gw.Load(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, SourceLocal, source)
	assert.Equal(t, 12, snap.Experience)
	assert.Equal(t, []string{"Logs"}, snap.Tools)
}

func TestClearRemovesLegacyKeys(t *testing.T) {
	local := newFakeLocal()
	for _, k := range append([]string{key.String()}, key.LegacyKeys()...) {
		local.data[k] = []byte(`{}`)
	}
	local.data["bob_regression-basics"] = []byte(`{}`)
	gw := NewGateway(&fakeRemote{}, local, time.Second)

	require.NoError(t, gw.Clear(context.Background(), key))
	assert.Equal(t, []string{"bob_regression-basics"}, local.keys())
}

func TestLoadIgnoresOtherUsersRecords(t *testing.T) {
	local := newFakeLocal()
	local.data["regression-basics_progress"] = []byte(`{"experience": 40, "tools": ["Debugger"]}`)
	carol := domain.ProgressKey{User: "carol", QuizID: key.QuizID}
	payload, err := Encode(sampleSnapshot())
	require.NoError(t, err)
	local.data[carol.String()] = payload
	gw := NewGateway(&fakeRemote{failWith: errors.New("503")}, local, time.Second)
	ctx := context.Background()

	snap, source, err := gw.Load(ctx, domain.ProgressKey{User: "bob", QuizID: key.QuizID})
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Equal(t, SourceNone, source)

	require.NoError(t, gw.Clear(ctx, domain.ProgressKey{User: "bob", QuizID: key.QuizID}))
	assert.ElementsMatch(t, []string{"regression-basics_progress", "carol_regression-basics"}, local.keys())
}

func TestLegacyKeysNameTheUser(t *testing.T) {
	for _, k := range key.LegacyKeys() {
		assert.Contains(t, k, key.User)
		assert.Contains(t, k, key.QuizID)
	}
}

func TestResetClearsBothSinks(t *testing.T) {
	remote := &fakeRemote{}
	local := newFakeLocal()
	gw := NewGateway(remote, local, time.Second)
	ctx := context.Background()

	_, err := gw.Save(ctx, key, sampleSnapshot())
	require.NoError(t, err)
	require.NoError(t, gw.Reset(ctx, key))

	snap, _, err := gw.Load(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestDecodeDefaultsMissingFields(t *testing.T) {
	snap, err := Decode([]byte(`{}`), key)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Experience)
	assert.Equal(t, []string{}, snap.Tools)
	assert.Empty(t, snap.QuestionHistory)
	assert.NotNil(t, snap.QuestionHistory)
	assert.Equal(t, 0, snap.CurrentScenarioIndex)
	assert.Equal(t, domain.StatusInProgress, snap.Status)
	assert.Equal(t, "alice", snap.User)
	assert.Equal(t, "regression-basics", snap.QuizID)
}

func TestDecodeToleratesBadFields(t *testing.T) {
	raw := []byte(`{
		"experience": "lots",
		"tools": ["Logs", 3],
		"status": "bogus",
		"currentScenarioIndex": -4,
		"questionHistory": [
			{"scenarioId": "b-1", "selectedIndex": 0, "selectedAnswer": {"text": "Reproduce", "experience": 15}},
			{"selectedIndex": "x"},
			42
		]
	}`)
	snap, err := Decode(raw, key)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Experience)
	assert.Equal(t, []string{}, snap.Tools)
	assert.Equal(t, domain.StatusInProgress, snap.Status)
	assert.Equal(t, 0, snap.CurrentScenarioIndex)
	require.Len(t, snap.QuestionHistory, 1)
	assert.Equal(t, 15, snap.QuestionHistory[0].SelectedAnswer.Experience)
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `null`, `not json`} {
		_, err := Decode([]byte(raw), key)
		assert.Error(t, err, raw)
	}
}

func sampleSnapshot() domain.ProgressSnapshot {
	return domain.ProgressSnapshot{
		SessionID:  "s-1",
		User:       key.User,
		QuizID:     key.QuizID,
		Experience: 25,
		Tools:      []string{"Bug Tracker"},
		QuestionHistory: []domain.HistoryEntry{
			{ScenarioID: "basic-1", Level: "Basic", SelectedIndex: 2, SelectedAnswer: domain.Option{Text: "File a bug", Outcome: "Triaged", Experience: 15, Tool: "Bug Tracker"}},
			{ScenarioID: "basic-2", Level: "Basic", SelectedIndex: 0, SelectedAnswer: domain.Option{Text: "Retest", Experience: 10}},
		},
		Status:      domain.StatusInProgress,
		LastUpdated: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

type fakeRemote struct {
	mu       sync.Mutex
	data     map[domain.ProgressKey][]byte
	failWith error
}

func (r *fakeRemote) SaveProgress(_ context.Context, k domain.ProgressKey, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if r.data == nil {
		r.data = make(map[domain.ProgressKey][]byte)
	}
	r.data[k] = payload
	return nil
}

func (r *fakeRemote) GetProgress(_ context.Context, k domain.ProgressKey) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	payload, ok := r.data[k]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	return payload, nil
}

func (r *fakeRemote) ResetProgress(_ context.Context, k domain.ProgressKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	delete(r.data, k)
	return nil
}

// hangingRemote blocks until the caller's deadline.
type hangingRemote struct{}

func (hangingRemote) SaveProgress(ctx context.Context, _ domain.ProgressKey, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangingRemote) GetProgress(ctx context.Context, _ domain.ProgressKey) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingRemote) ResetProgress(ctx context.Context, _ domain.ProgressKey) error {
	<-ctx.Done()
	return ctx.Err()
}

type fakeLocal struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{data: make(map[string][]byte)}
}

func (l *fakeLocal) Get(_ context.Context, k string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.data[k]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	return v, nil
}

func (l *fakeLocal) Set(_ context.Context, k string, v []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[k] = v
	return nil
}

func (l *fakeLocal) Delete(_ context.Context, keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		delete(l.data, k)
	}
	return nil
}

func (l *fakeLocal) keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.data))
	for k := range l.data {
		out = append(out, k)
	}
	return out
}
