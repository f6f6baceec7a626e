package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PriviQ/pkg/errors"
)

const (
	DefaultUserAgent    = "Mozilla/5.0"
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxBodyBytes = 5 << 20
	maxRedirects        = 10
)

// DocumentCache memoizes fetched text by origin.
type DocumentCache interface {
	GetOrLoad(ctx context.Context, origin string, load func(ctx context.Context) (string, error)) (string, error)
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	// AllowPrivateHosts permits loopback, private and link-local targets.
	AllowPrivateHosts bool
}

// Fetcher downloads web pages and extracts their paragraph text.
type Fetcher struct {
	client  *http.Client
	config  FetcherConfig
	cache   DocumentCache
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default client. Its timeout is left untouched.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithDocumentCache routes fetches through cache.
func WithDocumentCache(c DocumentCache) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

func WithFetchMetrics(m *prometheus.AppMetrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

func NewFetcher(cfg FetcherConfig, log logging.Logger, opts ...FetcherOption) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	f := &Fetcher{config: cfg, logger: log}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = newClient(cfg)
	}
	return f
}

// newClient dials only public addresses unless cfg allows private hosts.
// Every connection, including those made for redirects, passes the check.
func newClient(cfg FetcherConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.AllowPrivateHosts {
		dialer := &net.Dialer{Timeout: cfg.Timeout, KeepAlive: 30 * time.Second, Control: guardDial}
		transport.DialContext = dialer.DialContext
		transport.Proxy = nil
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New(errors.ErrCodeSourceFetchFailed, "too many redirects")
			}
			return checkTarget(req.URL, cfg.AllowPrivateHosts)
		},
	}
}

// checkTarget rejects non-http(s) URLs and, unless allowPrivate, hosts that
// are internal by name or literal address.  Resolved names are checked at
// dial time.
func checkTarget(u *url.URL, allowPrivate bool) error {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrCodeSourceUnsupported, "url must be absolute http(s)")
	}
	if allowPrivate {
		return nil
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return forbiddenHost(host)
	}
	if ip, err := netip.ParseAddr(host); err == nil && isInternal(ip) {
		return forbiddenHost(host)
	}
	return nil
}

func guardDial(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return forbiddenHost(address)
	}
	if isInternal(ap.Addr()) {
		return forbiddenHost(ap.Addr().String())
	}
	return nil
}

func isInternal(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast()
}

func forbiddenHost(host string) error {
	return errors.New(errors.ErrCodeSourceForbidden, "policy url points to an internal address").WithDetail("host=" + host)
}

// Fetch returns the space-joined text of every <p> element on the page.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.New(errors.ErrCodeSourceUnsupported, "url must be absolute http(s)").WithDetail("url=" + rawURL)
	}
	if err := checkTarget(u, f.config.AllowPrivateHosts); err != nil {
		return "", err
	}
	if f.cache == nil {
		return f.timedFetch(ctx, rawURL)
	}

	loaded := false
	text, err := f.cache.GetOrLoad(ctx, rawURL, func(ctx context.Context) (string, error) {
		loaded = true
		return f.timedFetch(ctx, rawURL)
	})
	if err == nil {
		prometheus.RecordCacheAccess(f.metrics, "document", !loaded)
		return text, nil
	}
	if loaded {
		return "", err
	}
	// Cache unavailable: fetch directly.
	f.logger.Warn("document cache unavailable", logging.String("url", rawURL), logging.Err(err))
	return f.timedFetch(ctx, rawURL)
}

func (f *Fetcher) timedFetch(ctx context.Context, rawURL string) (string, error) {
	start := time.Now()
	text, err := f.fetch(ctx, rawURL)
	prometheus.RecordSourceFetch(f.metrics, string(KindURL), time.Since(start), err)
	if err != nil {
		f.logger.Warn("url fetch failed", logging.String("url", rawURL), logging.Err(err))
		return "", err
	}
	f.logger.Debug("url fetched",
		logging.String("url", rawURL),
		logging.Int("chars", len(text)),
		logging.Duration("took", time.Since(start)))
	return text, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSourceFetchFailed, "failed to build request")
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeSourceForbidden) || errors.IsCode(err, errors.ErrCodeSourceUnsupported) {
			return "", errors.Wrap(err, errors.GetCode(err), "url rejected").WithDetail("url=" + rawURL)
		}
		return "", errors.Wrap(err, errors.ErrCodeSourceFetchFailed, "request failed").WithDetail("url=" + rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.New(errors.ErrCodeSourceFetchFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithDetail("url=" + rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes+1))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSourceFetchFailed, "failed to read body").WithDetail("url=" + rawURL)
	}
	if int64(len(body)) > f.config.MaxBodyBytes {
		return "", errors.New(errors.ErrCodeSourceFetchFailed, "response exceeds size limit").WithDetail("url=" + rawURL)
	}

	r, err := charset.NewReader(strings.NewReader(string(body)), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSourceFetchFailed, "unknown charset").WithDetail("url=" + rawURL)
	}
	return ExtractParagraphs(r)
}

// ExtractParagraphs parses HTML and joins the text of each <p> with a space.
func ExtractParagraphs(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSourceFetchFailed, "failed to parse html")
	}
	var paras []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			var sb strings.Builder
			collectText(n, &sb)
			paras = append(paras, sb.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(paras, " "), nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// URLSource loads a web page through a Fetcher.
type URLSource struct {
	URL     string
	Fetcher *Fetcher
}

func (s URLSource) Kind() Kind { return KindURL }

func (s URLSource) Load(ctx context.Context) (Document, error) {
	if s.Fetcher == nil {
		return Document{}, errors.New(errors.ErrCodeFeatureDisabled, "url fetching is not configured")
	}
	text, err := s.Fetcher.Fetch(ctx, s.URL)
	if err != nil {
		return Document{}, err
	}
	return Document{Text: text, Kind: KindURL, Origin: s.URL}, nil
}
