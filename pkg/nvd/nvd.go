// Package nvd retrieves raw vulnerability units from the NVD CVE 2.0 API.
//
// A year query is split into four quarterly publication windows because the
// API rejects date ranges longer than 120 days. Each window is paged
// sequentially; a window that fails is abandoned and reported while the
// remaining windows still run.
package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	progressbar "github.com/schollz/progressbar/v3"
)

const (
	DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

	dateLayout = "2006-01-02T15:04:05.000"
)

var Severities = []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

// ErrRateLimited is returned for a page that stayed rate limited after every retry.
var ErrRateLimited = errors.New("rate limited")

type Query struct {
	Year       int
	Severity   string
	PageSize   int
	MaxResults int
}

// Window is a publication date range. The zero Window is unrestricted.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w Window) String() string {
	if w.IsZero() {
		return "all"
	}
	return fmt.Sprintf("%s..%s", w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
}

// Windows returns the quarterly windows of year in chronological order, or a
// single unrestricted window when year is 0.
func Windows(year int) []Window {
	if year == 0 {
		return []Window{{}}
	}
	ws := make([]Window, 0, 4)
	for _, m := range []time.Month{time.January, time.April, time.July, time.October} {
		start := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		ws = append(ws, Window{Start: start, End: start.AddDate(0, 3, 0).Add(-time.Millisecond)})
	}
	return ws
}

type response struct {
	ResultsPerPage  int               `json:"resultsPerPage"`
	StartIndex      int               `json:"startIndex"`
	TotalResults    int               `json:"totalResults"`
	Vulnerabilities []json.RawMessage `json:"vulnerabilities"`
}

type WindowStats struct {
	Window  string `json:"window"`
	Total   int    `json:"total"`
	Fetched int    `json:"fetched"`
	Pages   int    `json:"pages"`
	Retries int    `json:"retries"`
	Error   string `json:"error,omitempty"`
}

type Stats struct {
	Fetched int           `json:"fetched"`
	Errors  int           `json:"errors"`
	Windows []WindowStats `json:"windows"`
}

type Result struct {
	Units []json.RawMessage
	Stats Stats

	// Failures aggregates the errors of abandoned windows. The units of the
	// other windows are still valid when it is set.
	Failures error
}

type options struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	interval   time.Duration
	retryWait  time.Duration
	maxRetries int
	noProgress bool
}

type Option interface {
	apply(*options)
}

type baseURLOption string

func (o baseURLOption) apply(opts *options) {
	opts.baseURL = string(o)
}

func WithBaseURL(u string) Option {
	return baseURLOption(u)
}

type apiKeyOption string

func (o apiKeyOption) apply(opts *options) {
	opts.apiKey = string(o)
}

func WithAPIKey(key string) Option {
	return apiKeyOption(key)
}

type httpClientOption struct{ c *http.Client }

func (o httpClientOption) apply(opts *options) {
	opts.client = o.c
}

func WithHTTPClient(c *http.Client) Option {
	return httpClientOption{c: c}
}

type intervalOption time.Duration

func (o intervalOption) apply(opts *options) {
	opts.interval = time.Duration(o)
}

// WithInterval sets the delay between two successful page requests.
func WithInterval(d time.Duration) Option {
	return intervalOption(d)
}

type retryWaitOption time.Duration

func (o retryWaitOption) apply(opts *options) {
	opts.retryWait = time.Duration(o)
}

// WithRetryWait sets the fixed delay before re-issuing a rate limited page.
func WithRetryWait(d time.Duration) Option {
	return retryWaitOption(d)
}

type maxRetriesOption int

func (o maxRetriesOption) apply(opts *options) {
	opts.maxRetries = int(o)
}

func WithMaxRetries(n int) Option {
	return maxRetriesOption(n)
}

type noProgressOption bool

func (o noProgressOption) apply(opts *options) {
	opts.noProgress = bool(o)
}

func WithNoProgress(noProgress bool) Option {
	return noProgressOption(noProgress)
}

type Fetcher struct {
	opts options
}

func New(opts ...Option) *Fetcher {
	o := options{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		interval:   6 * time.Second,
		retryWait:  10 * time.Second,
		maxRetries: 5,
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return &Fetcher{opts: o}
}

// Fetch pages through every window of q in chronological order and returns
// the raw units in window, then offset, order. The returned error is set only
// for an invalid query or a canceled context; window failures are reported
// in Result.Failures.
func (f *Fetcher) Fetch(ctx context.Context, q Query) (Result, error) {
	if q.PageSize <= 0 {
		return Result{}, errors.Errorf("unexpected page size. expected: > 0, actual: %d", q.PageSize)
	}
	if q.Severity != "" && !slices.Contains(Severities, q.Severity) {
		return Result{}, errors.Errorf("unexpected severity. expected: %q, actual: %q", Severities, q.Severity)
	}

	pb := func() *progressbar.ProgressBar {
		if f.opts.noProgress {
			return progressbar.DefaultSilent(-1)
		}
		return progressbar.Default(-1, "fetching")
	}()
	defer pb.Finish() //nolint:errcheck

	var (
		res      Result
		failures *multierror.Error
	)
	for _, w := range Windows(q.Year) {
		if q.MaxResults > 0 && res.Stats.Fetched >= q.MaxResults {
			slog.Info("Reached max results", "max", q.MaxResults)
			break
		}

		slog.Info("Fetch window", "window", w.String())
		ws := WindowStats{Window: w.String()}
		err := f.fetchWindow(ctx, q, w, &ws, func(raw json.RawMessage) {
			res.Units = append(res.Units, raw)
			res.Stats.Fetched++
			_ = pb.Add(1)
		}, func() bool {
			return q.MaxResults > 0 && res.Stats.Fetched >= q.MaxResults
		})
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, errors.WithStack(ctx.Err())
			}
			slog.Warn("Abandon window", "window", w.String(), "fetched", ws.Fetched, "err", err)
			ws.Error = err.Error()
			res.Stats.Errors++
			failures = multierror.Append(failures, errors.Wrapf(err, "window %s", w))
		}
		res.Stats.Windows = append(res.Stats.Windows, ws)
	}
	res.Failures = failures.ErrorOrNil()

	return res, nil
}

func (f *Fetcher) fetchWindow(ctx context.Context, q Query, w Window, ws *WindowStats, emit func(json.RawMessage), full func() bool) error {
	start := 0
	for {
		r, retries, err := f.page(ctx, q, w, start)
		ws.Retries += retries
		if err != nil {
			return errors.Wrapf(err, "page %d", start)
		}
		ws.Pages++
		ws.Total = r.TotalResults

		if len(r.Vulnerabilities) == 0 {
			slog.Debug("No more results in this window", "window", w.String())
			return nil
		}

		for _, v := range r.Vulnerabilities {
			if ws.Fetched >= r.TotalResults {
				break
			}
			emit(v)
			ws.Fetched++
			if full() {
				return nil
			}
		}

		if start+q.PageSize >= r.TotalResults {
			slog.Debug("Fetched all results in this window", "window", w.String(), "total", r.TotalResults)
			return nil
		}
		start += q.PageSize

		if err := sleep(ctx, f.opts.interval); err != nil {
			return errors.WithStack(err)
		}
	}
}

// page requests one page, re-issuing the same request after a fixed wait
// while the service signals a rate limit, up to maxRetries times.
func (f *Fetcher) page(ctx context.Context, q Query, w Window, start int) (*response, int, error) {
	for retries := 0; ; retries++ {
		r, err := f.do(ctx, q, w, start)
		if err == nil {
			return r, retries, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return nil, retries, errors.WithStack(err)
		}
		if retries >= f.opts.maxRetries {
			return nil, retries, errors.Wrapf(err, "give up after %d retries", retries)
		}

		slog.Warn("Rate limited", "wait", f.opts.retryWait, "retry", retries+1)
		if err := sleep(ctx, f.opts.retryWait); err != nil {
			return nil, retries, errors.WithStack(err)
		}
	}
}

func (f *Fetcher) do(ctx context.Context, q Query, w Window, start int) (*response, error) {
	u, err := url.Parse(f.opts.baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", f.opts.baseURL)
	}
	vs := u.Query()
	vs.Set("resultsPerPage", strconv.Itoa(q.PageSize))
	vs.Set("startIndex", strconv.Itoa(start))
	if !w.IsZero() {
		vs.Set("pubStartDate", w.Start.Format(dateLayout))
		vs.Set("pubEndDate", w.End.Format(dateLayout))
	}
	if q.Severity != "" {
		vs.Set("cvssV3Severity", q.Severity)
	}
	u.RawQuery = vs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if f.opts.apiKey != "" {
		req.Header.Set("apiKey", f.opts.apiKey)
	}

	slog.Debug("GET", "url", u.String())
	resp, err := f.opts.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", u.String())
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrapf(ErrRateLimited, "GET %s: %s", u.String(), resp.Status)
	default:
		return nil, errors.Errorf("error request response with status code %d", resp.StatusCode)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &r, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
