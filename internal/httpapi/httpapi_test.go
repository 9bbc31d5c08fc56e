package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/dataset"
	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/filter"
	"jobsearch-engine/internal/form"
	"jobsearch-engine/internal/location"
	"jobsearch-engine/internal/session"
)

const refYAML = `
regions:
  近畿: [京都府, 大阪府, 滋賀県]
prefectures:
  京都府:
    京都市: [北区, 上京区]
    宇治市: []
  大阪府:
    大阪市: [北区, 中央区]
`

type stubLoader struct {
	mu   sync.Mutex
	recs []domain.JobRecord
	err  error
}

func (s *stubLoader) Name() string { return "stub" }
func (s *stubLoader) Load(context.Context) ([]domain.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recs, s.err
}

func (s *stubLoader) set(recs []domain.JobRecord, err error) {
	s.mu.Lock()
	s.recs, s.err = recs, err
	s.mu.Unlock()
}

func testRecords() []domain.JobRecord {
	return []domain.JobRecord{
		{ID: "1", Name: "カフェ京都", Prefecture: "京都府", City: "京都市", Ward: "北区",
			Categories: []string{"接客"}, Features: []string{"駅近"}, Employment: "アルバイト", AnnualIncome: 300},
		{ID: "2", Name: "大阪オフィス", Prefecture: "大阪府", City: "大阪市", Ward: "中央区",
			Categories: []string{"事務"}, Features: []string{"高収入"}, Employment: "正社員", AnnualIncome: 500},
		{ID: "3", Name: "宇治工房", Prefecture: "京都府", City: "宇治市",
			Categories: []string{"調理"}, Features: []string{"未経験OK"}, Employment: "パート"},
	}
}

type testEnv struct {
	srv    *httptest.Server
	deps   Deps
	loader *stubLoader

	mu      sync.Mutex
	applied []config.Config
	token   string
}

func (e *testEnv) appliedConfigs() []config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]config.Config(nil), e.applied...)
}

func (e *testEnv) storedToken() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.token
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	tree, err := location.Parse([]byte(refYAML))
	require.NoError(t, err)

	env := &testEnv{loader: &stubLoader{recs: testRecords()}}
	data := dataset.New(env.loader, nil)
	data.Load(context.Background())

	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	cfg := config.Default()
	require.NoError(t, config.SaveAtomic(cfgPath, cfg))
	cfgVal := &atomic.Value{}
	cfgVal.Store(cfg)

	d := Deps{
		Data:        data,
		Hub:         events.NewHub(),
		RefTree:     tree,
		CfgVal:      cfgVal,
		UserCfgPath: cfgPath,
		LoadCfg:     func() (config.Config, error) { return config.Load(cfgPath) },
		OnConfig: func(c config.Config) {
			env.mu.Lock()
			env.applied = append(env.applied, c)
			env.mu.Unlock()
		},
		SetToken: func(tok string) error {
			env.mu.Lock()
			env.token = tok
			env.mu.Unlock()
			return nil
		},
		DeleteToken: func() error {
			env.mu.Lock()
			env.token = ""
			env.mu.Unlock()
			return nil
		},
	}
	d.Sessions = session.NewStore(time.Hour, 10, d.NewForm)
	env.deps = d

	h := Chain(NewMux(d), RequestID, Recover, AccessLog, Cors(""))
	env.srv = httptest.NewServer(h)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rd = bytes.NewReader(raw)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func ids(recs []domain.JobRecord) []string {
	out := []string{}
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	res, body := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	got := decode[map[string]any](t, body)
	assert.Equal(t, true, got["ok"])
	assert.EqualValues(t, 3, got["records"])
	assert.Equal(t, dataset.OriginRemote, got["origin"])
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestJobs_ListAndGet(t *testing.T) {
	env := newEnv(t)

	_, body := env.do(t, http.MethodGet, "/jobs", nil)
	assert.Len(t, decode[[]domain.JobRecord](t, body), 3)

	_, body = env.do(t, http.MethodGet, "/jobs?limit=1", nil)
	assert.Equal(t, []string{"1"}, ids(decode[[]domain.JobRecord](t, body)))

	res, _ := env.do(t, http.MethodGet, "/jobs?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	_, body = env.do(t, http.MethodGet, "/jobs/2", nil)
	assert.Equal(t, "大阪オフィス", decode[domain.JobRecord](t, body).Name)

	res, body = env.do(t, http.MethodGet, "/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	apiErr := decode[APIError](t, body)
	assert.Equal(t, "not_found", apiErr.Error.Code)
	assert.Equal(t, res.Header.Get("X-Request-ID"), apiErr.Error.RequestID)
}

func TestSearch_RoundTrip(t *testing.T) {
	env := newEnv(t)
	state := `{"locations":[{"type":"pref","pref":"京都府"}],"annualIncomeMin":250}`

	res, body := env.do(t, http.MethodPost, "/search", state)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	got := decode[searchResponse](t, body)
	assert.Equal(t, []string{"1"}, ids(got.Records))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, 3, got.Total)
	assert.Nil(t, got.Reasons)

	_, body = env.do(t, http.MethodPost, "/search?explain=1", state)
	got = decode[searchResponse](t, body)
	assert.Equal(t, []filter.Verdict{
		{ID: "1"},
		{ID: "2", Reason: filter.ReasonLocation},
		{ID: "3", Reason: filter.ReasonIncome},
	}, got.Reasons)
}

func TestSearch_EmptyBodyReturnsEverything(t *testing.T) {
	env := newEnv(t)
	_, body := env.do(t, http.MethodPost, "/search", nil)
	assert.Equal(t, []string{"1", "2", "3"}, ids(decode[searchResponse](t, body).Records))
}

func TestSearch_InvalidRequests(t *testing.T) {
	env := newEnv(t)
	tests := []struct {
		name string
		body string
		code string
	}{
		{"negative income", `{"annualIncomeMin":-1}`, "invalid_request"},
		{"blank category", `{"jobCategories":[""]}`, "invalid_request"},
		{"unknown field", `{"area":"京都"}`, "invalid_json"},
		{"broken json", `{"keyword":`, "invalid_json"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, body := env.do(t, http.MethodPost, "/search", tc.body)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.Equal(t, tc.code, decode[APIError](t, body).Error.Code)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newEnv(t)
	res, body := env.do(t, http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	assert.Equal(t, "method_not_allowed", decode[APIError](t, body).Error.Code)
}

func TestCorsPreflight(t *testing.T) {
	env := newEnv(t)
	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/search", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestCatalogAndLocations(t *testing.T) {
	env := newEnv(t)

	_, body := env.do(t, http.MethodGet, "/catalog", nil)
	cat := decode[map[string]any](t, body)
	assert.Equal(t, []any{"事務", "接客", "調理"}, cat["jobCategories"])
	assert.Len(t, cat["annuals"], len(config.DefaultAnnuals()))

	_, body = env.do(t, http.MethodGet, "/locations", nil)
	regions := decode[[]map[string]any](t, body)
	require.Len(t, regions, 1)
	assert.Equal(t, "近畿", regions[0]["name"])
}

func TestSessionPickerLifecycle(t *testing.T) {
	env := newEnv(t)

	res, body := env.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	sess := decode[sessionResponse](t, body)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, "committed", sess.Phase)
	base := "/sessions/" + sess.ID

	res, _ = env.do(t, http.MethodPost, base+"/pickers/location/toggle", `{"path":"京都府/京都市","checked":true}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode, "nothing open yet")

	res, body = env.do(t, http.MethodPost, base+"/pickers/location/open", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.Equal(t, "editing", decode[form.PickerView](t, body).Phase)

	res, body = env.do(t, http.MethodPost, base+"/pickers/location/toggle",
		`{"path":{"type":"city","pref":"京都府","city":"京都市"},"checked":true}`)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	view := decode[form.PickerView](t, body)
	assert.Equal(t, "draft", view.Phase)
	assert.Equal(t, []domain.LocationPath{domain.CityPath("京都府", "京都市")}, view.Pending)
	assert.Equal(t, []string{"近畿"}, view.RegionDots)

	res, _ = env.do(t, http.MethodPost, base+"/pickers/job/toggle", `{"value":"接客","checked":true}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode, "another picker is open")

	sub := env.deps.Hub.Subscribe()
	defer env.deps.Hub.Unsubscribe(sub)

	res, body = env.do(t, http.MethodPost, base+"/pickers/location/apply", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	sess = decode[sessionResponse](t, body)
	assert.Equal(t, []domain.LocationPath{domain.CityPath("京都府", "京都市")}, sess.Committed.Locations)
	assert.Equal(t, "京都市", sess.Summary.Location)
	assert.Empty(t, sess.OpenPicker)

	select {
	case msg := <-sub:
		var evt events.Event
		require.NoError(t, json.Unmarshal([]byte(msg), &evt))
		assert.Equal(t, events.TypeFilterApplied, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("no filter_applied event")
	}

	_, body = env.do(t, http.MethodPost, base+"/search", nil)
	assert.Equal(t, []string{"1"}, ids(decode[searchResponse](t, body).Records))

	// reopening seeds the working copy from the committed state
	_, body = env.do(t, http.MethodPost, base+"/pickers/location/open", nil)
	assert.Equal(t, []domain.LocationPath{domain.CityPath("京都府", "京都市")}, decode[form.PickerView](t, body).Pending)

	_, _ = env.do(t, http.MethodPost, base+"/pickers/location/clear", nil)
	res, body = env.do(t, http.MethodPost, base+"/pickers/location/close", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, decode[sessionResponse](t, body).Committed.Locations, 1, "close discards the cleared copy")

	res, _ = env.do(t, http.MethodGet, base+"/pickers/location", nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestSession_LocationPickerSeesCitiesFromLaterReload(t *testing.T) {
	env := newEnv(t)

	_, body := env.do(t, http.MethodPost, "/sessions", nil)
	base := "/sessions/" + decode[sessionResponse](t, body).ID

	recs := append(testRecords(),
		domain.JobRecord{ID: "4", Name: "湖畔カフェ", Prefecture: "滋賀県", City: "大津市"},
		domain.JobRecord{ID: "5", Name: "草津食堂", Prefecture: "滋賀県", City: "草津市"},
	)
	env.loader.set(recs, nil)
	res, body := env.do(t, http.MethodPost, "/reload", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))

	res, body = env.do(t, http.MethodPost, base+"/pickers/location/open", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	res, body = env.do(t, http.MethodPost, base+"/pickers/location/toggle",
		`{"path":{"type":"city","pref":"滋賀県","city":"大津市"},"checked":true}`)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))

	res, body = env.do(t, http.MethodPost, base+"/pickers/location/apply", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.Equal(t, []domain.LocationPath{domain.CityPath("滋賀県", "大津市")},
		decode[sessionResponse](t, body).Committed.Locations)

	_, body = env.do(t, http.MethodPost, base+"/search", nil)
	assert.Equal(t, []string{"4"}, ids(decode[searchResponse](t, body).Records))
}

func TestSessionListAndIncomePickers(t *testing.T) {
	env := newEnv(t)
	_, body := env.do(t, http.MethodPost, "/sessions", nil)
	base := "/sessions/" + decode[sessionResponse](t, body).ID

	env.do(t, http.MethodPost, base+"/pickers/job/open", nil)
	env.do(t, http.MethodPost, base+"/pickers/job/toggle", `{"value":"事務","checked":true}`)
	_, body = env.do(t, http.MethodGet, base+"/pickers/job", nil)
	assert.Equal(t, []string{"事務"}, decode[form.PickerView](t, body).Selected)
	env.do(t, http.MethodPost, base+"/pickers/job/apply", nil)

	env.do(t, http.MethodPost, base+"/pickers/income/open", nil)
	res, _ := env.do(t, http.MethodPost, base+"/pickers/income/toggle", `{"checked":true}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "income value missing")
	res, _ = env.do(t, http.MethodPost, base+"/pickers/income/toggle", `{"checked":true,"income":-5}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	env.do(t, http.MethodPost, base+"/pickers/income/toggle", `{"checked":true,"income":400}`)
	_, body = env.do(t, http.MethodPost, base+"/pickers/income/apply", nil)
	sess := decode[sessionResponse](t, body)
	assert.Equal(t, "400万円超", sess.Summary.Income)
	assert.Equal(t, "事務", sess.Summary.Job)

	_, body = env.do(t, http.MethodPost, base+"/search", nil)
	assert.Equal(t, []string{"2"}, ids(decode[searchResponse](t, body).Records))

	_, body = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, "active", decode[sessionResponse](t, body).Phase)
}

func TestSessionKeywordAndClearCategory(t *testing.T) {
	env := newEnv(t)
	_, body := env.do(t, http.MethodPost, "/sessions", nil)
	base := "/sessions/" + decode[sessionResponse](t, body).ID

	_, body = env.do(t, http.MethodPost, base+"/keyword", `{"keyword":"  宇治 "}`)
	assert.Equal(t, "宇治", decode[sessionResponse](t, body).Committed.Keyword)

	_, body = env.do(t, http.MethodPost, base+"/search", nil)
	assert.Equal(t, []string{"3"}, ids(decode[searchResponse](t, body).Records))

	_, body = env.do(t, http.MethodPost, base+"/clear/keyword", nil)
	assert.Equal(t, form.Unset, decode[sessionResponse](t, body).Summary.Keyword)

	res, _ := env.do(t, http.MethodPost, base+"/clear/area", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSessionErrors(t *testing.T) {
	env := newEnv(t)

	res, body := env.do(t, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "session_not_found", decode[APIError](t, body).Error.Code)

	_, body = env.do(t, http.MethodPost, "/sessions", nil)
	id := decode[sessionResponse](t, body).ID

	res, body = env.do(t, http.MethodPost, "/sessions/"+id+"/pickers/area/open", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "unknown_picker", decode[APIError](t, body).Error.Code)

	env.do(t, http.MethodPost, "/sessions/"+id+"/pickers/location/open", nil)
	res, _ = env.do(t, http.MethodPost, "/sessions/"+id+"/pickers/location/toggle", `{"checked":true}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "path required")

	res, _ = env.do(t, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	res, _ = env.do(t, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestReload_PublishesEvents(t *testing.T) {
	env := newEnv(t)
	sub := env.deps.Hub.Subscribe()
	defer env.deps.Hub.Unsubscribe(sub)

	next := func() events.Event {
		t.Helper()
		select {
		case msg := <-sub:
			var evt events.Event
			require.NoError(t, json.Unmarshal([]byte(msg), &evt))
			return evt
		case <-time.After(time.Second):
			t.Fatal("no event")
			return events.Event{}
		}
	}

	env.loader.set(testRecords()[:1], nil)
	_, body := env.do(t, http.MethodPost, "/reload", nil)
	assert.Equal(t, true, decode[map[string]any](t, body)["ok"])
	assert.Equal(t, events.TypeRecordsReloaded, next().Type)
	assert.Len(t, env.deps.Data.Records(), 1)

	env.loader.set(testRecords()[:1], errors.New("sheet down"))
	_, body = env.do(t, http.MethodPost, "/reload", nil)
	assert.Equal(t, false, decode[map[string]any](t, body)["ok"])
	evt := next()
	assert.Equal(t, events.TypeReloadFailed, evt.Type)
	assert.Contains(t, string(evt.Data), "sheet down")
	assert.Len(t, env.deps.Data.Records(), 1, "previous snapshot keeps serving")

	_, body = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, "sheet down", decode[map[string]any](t, body)["last_error"])
}

func TestConfig_PutValidatesAndApplies(t *testing.T) {
	env := newEnv(t)

	res, body := env.do(t, http.MethodPut, "/config", `{"App":{"Port":70000}}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.NotEmpty(t, decode[config.Validation](t, body).Errors)
	assert.Empty(t, env.appliedConfigs())

	cfg := config.Default()
	cfg.Filters.IncomePolicy = "inclusive"
	res, body = env.do(t, http.MethodPut, "/config", cfg)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	applied := env.appliedConfigs()
	require.Len(t, applied, 1)
	assert.Equal(t, "inclusive", applied[0].Filters.IncomePolicy)

	// the new policy reaches search: 300 passes an inclusive 300 floor
	_, body = env.do(t, http.MethodPost, "/search", `{"annualIncomeMin":300}`)
	assert.Equal(t, []string{"1", "2"}, ids(decode[searchResponse](t, body).Records))

	_, body = env.do(t, http.MethodGet, "/config/validate", nil)
	assert.Empty(t, decode[config.Validation](t, body).Errors)

	_, body = env.do(t, http.MethodGet, "/config/path", nil)
	assert.Equal(t, env.deps.UserCfgPath, decode[map[string]string](t, body)["path"])
}

func TestSecrets_SourceToken(t *testing.T) {
	env := newEnv(t)

	res, _ := env.do(t, http.MethodPost, "/api/secrets/source-token", `{"token":"  "}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = env.do(t, http.MethodPost, "/api/secrets/source-token", `{"token":"abc"}`)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "abc", env.storedToken())

	res, _ = env.do(t, http.MethodDelete, "/api/secrets/source-token", nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Empty(t, env.storedToken())
}

func TestEvents_StreamsPing(t *testing.T) {
	env := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/events", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	buf := make([]byte, 512)
	n, err := res.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), `"type":"ping"`)
}
