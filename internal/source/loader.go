package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/ecodeclub/ekit/net/httpx"
	"github.com/ecodeclub/ekit/retry"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/domain"
)

const userAgent = "JobSearch/1.0 (+local)"

// Loader produces the full record list of one or more sheets.
type Loader interface {
	Name() string
	Load(ctx context.Context) ([]domain.JobRecord, error)
}

type Options struct {
	Kind    Kind
	Token   string
	Client  *http.Client
	Limiter *HostLimiter

	// IDPrefix is put in front of generated row ids.
	IDPrefix string

	Retries        int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Sheet loads one published sheet.
type Sheet struct {
	url  string
	kind Kind
	opts Options
}

func NewSheet(rawURL string, opts Options) (*Sheet, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &FetchError{URL: rawURL, Message: "invalid URL", Cause: err}
	}
	kind := opts.Kind
	if kind == "" || kind == KindAuto {
		kind = DetectKind(rawURL)
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 20 * time.Second}
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = 10 * opts.InitialBackoff
	}
	return &Sheet{url: rawURL, kind: kind, opts: opts}, nil
}

func (s *Sheet) Name() string { return string(s.kind) + ":" + s.url }

func (s *Sheet) Kind() Kind { return s.kind }

func (s *Sheet) Load(ctx context.Context) ([]domain.JobRecord, error) {
	rows, err := s.fetchWithRetry(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeRows(rows, s.opts.IDPrefix), nil
}

func (s *Sheet) fetchWithRetry(ctx context.Context) ([]Row, error) {
	rows, err := s.fetchOnce(ctx)
	if err == nil || s.opts.Retries <= 0 || !retryable(err) {
		return rows, err
	}
	strategy, serr := retry.NewExponentialBackoffRetryStrategy(s.opts.InitialBackoff, s.opts.MaxBackoff, int32(s.opts.Retries))
	if serr != nil {
		return nil, errors.Join(err, serr)
	}
	for {
		next, ok := strategy.Next()
		if !ok {
			return nil, err
		}
		log.Printf("[source] retry url=%s in=%s err=%v", s.url, next, err)
		select {
		case <-ctx.Done():
			return nil, errors.Join(err, ctx.Err())
		case <-time.After(next):
		}
		rows, err = s.fetchOnce(ctx)
		if err == nil || !retryable(err) {
			return rows, err
		}
	}
}

func retryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (s *Sheet) fetchOnce(ctx context.Context) ([]Row, error) {
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.WaitURL(ctx, s.url); err != nil {
			return nil, err
		}
	}
	if s.kind == KindJSON {
		return s.fetchJSON(ctx)
	}

	body, err := s.fetchBody(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	rows, err := Parse(s.kind, body)
	if err != nil {
		return nil, &FetchError{URL: s.url, Status: http.StatusOK, Message: "parse " + string(s.kind), Cause: err}
	}
	return rows, nil
}

// fetchJSON reads an Apps Script endpoint, which answers with a bare array.
func (s *Sheet) fetchJSON(ctx context.Context) ([]Row, error) {
	req := httpx.NewRequest(ctx, http.MethodGet, s.url).
		Client(s.opts.Client).
		AddHeader("User-Agent", userAgent)
	if s.opts.Token != "" {
		req = req.AddParam("token", s.opts.Token)
	}
	res := req.Do()
	if res.Response == nil {
		// JSONScan reports the transport error without touching the body
		return nil, &FetchError{URL: s.url, Message: "request failed", Cause: res.JSONScan(nil)}
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, &FetchError{URL: s.url, Status: res.StatusCode, Message: fmt.Sprintf("status %d", res.StatusCode)}
	}

	var raw []map[string]any
	if err := res.JSONScan(&raw); err != nil {
		return nil, &FetchError{URL: s.url, Status: res.StatusCode, Message: "parse json", Cause: err}
	}
	return RowsFromObjects(raw), nil
}

func (s *Sheet) fetchBody(ctx context.Context) (io.ReadCloser, error) {
	target := s.url
	if s.opts.Token != "" {
		u, _ := url.Parse(s.url)
		q := u.Query()
		q.Set("token", s.opts.Token)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: s.url, Message: "build request", Cause: err}
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.opts.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: s.url, Message: "request failed", Cause: err}
	}
	if res.StatusCode >= 400 {
		_ = res.Body.Close()
		return nil, &FetchError{URL: s.url, Status: res.StatusCode, Message: fmt.Sprintf("status %d", res.StatusCode)}
	}
	return res.Body, nil
}

// FromConfig builds the loader for every configured sheet. It returns nil
// when no URL is configured.
func FromConfig(cfg config.Config, token string) (Loader, error) {
	if len(cfg.Source.URLs) == 0 {
		return nil, nil
	}
	kind, err := ParseKind(cfg.Source.Kind)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Source.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	opts := Options{
		Kind:    kind,
		Client:  &http.Client{Timeout: timeout},
		Limiter: NewHostLimiter(cfg.Source.RatePerSec, cfg.Source.Burst),
		Retries: cfg.Source.Retries,
	}
	if cfg.Source.UseToken {
		opts.Token = token
	}

	loaders := make([]Loader, 0, len(cfg.Source.URLs))
	for i, u := range cfg.Source.URLs {
		sheetOpts := opts
		if len(cfg.Source.URLs) > 1 {
			// generated ids restart per sheet
			sheetOpts.IDPrefix = fmt.Sprintf("s%d-", i+1)
		}
		sh, err := NewSheet(u, sheetOpts)
		if err != nil {
			return nil, err
		}
		loaders = append(loaders, sh)
	}
	if len(loaders) == 1 {
		return loaders[0], nil
	}
	// a sheet gets its own timeout plus room for the retries
	return NewMultiLoader(timeout*time.Duration(cfg.Source.Retries+1), loaders...), nil
}
