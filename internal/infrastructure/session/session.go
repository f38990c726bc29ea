// Package session resolves the request identity shared by every catalog
// call: user agent, site cookies and the geo token.
package session

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultUserAgent is used when no identity file is available.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	// DefaultDomain is the site whose cookies are kept.
	DefaultDomain = "wildberries.ru"

	fallbackDest = "-1257786"
	fallbackSpp  = "0"
)

// Options controls Bootstrap. Empty file paths fall back to the XDG
// config directory (wbparse/ua.txt, wbparse/cookies.json).
type Options struct {
	UserAgentFile string
	CookiesFile   string
	Domain        string
	GeoURL        string
	Address       string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Param is one ordered query parameter.
type Param struct {
	Key   string
	Value string
}

// Geo is the resolved locale token.
type Geo struct {
	// Params are merged into every API query (dest, spp, ...).
	Params []Param
	// XInfo is the raw token sent as the X-Info header; empty on fallback.
	XInfo string
}

// Apply sets the geo params on v, overriding keys already present.
func (g Geo) Apply(v url.Values) {
	for _, p := range g.Params {
		v.Set(p.Key, p.Value)
	}
}

// Get returns the value of a geo param.
func (g Geo) Get(key string) (string, bool) {
	for _, p := range g.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// FallbackGeo is used whenever geo resolution fails.
func FallbackGeo() Geo {
	return Geo{Params: []Param{{Key: "dest", Value: fallbackDest}, {Key: "spp", Value: fallbackSpp}}}
}

// Identity is the read-only request identity produced once per run.
type Identity struct {
	UserAgent string
	Jar       http.CookieJar
	Cookies   []*http.Cookie
	Geo       Geo
}

// Header builds the common request headers for the given Accept value.
func (id *Identity) Header(accept string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", id.UserAgent)
	h.Set("Accept", accept)
	h.Set("Accept-Language", "ru,en;q=0.9")
	if id.Geo.XInfo != "" {
		h.Set("X-Info", id.Geo.XInfo)
	}
	return h
}

// Bootstrap loads the user agent and cookies and resolves the geo token.
// Geo failures never surface as errors; the fallback token is used instead.
func Bootstrap(ctx context.Context, opts Options) (*Identity, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	domain := opts.Domain
	if domain == "" {
		domain = DefaultDomain
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	id := &Identity{
		UserAgent: LoadUserAgent(resolvePath(opts.UserAgentFile, "wbparse/ua.txt"), log),
		Jar:       jar,
	}

	if path := resolvePath(opts.CookiesFile, "wbparse/cookies.json"); path != "" {
		entries, err := LoadCookies(path, domain)
		if err != nil {
			log.Warn("cookies not loaded", slog.String("path", path), slog.String("error", err.Error()))
		} else {
			id.Cookies = installCookies(jar, entries)
			log.Info("cookies loaded", slog.Int("count", len(id.Cookies)), slog.String("path", path))
		}
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if client.Jar == nil {
		c := *client
		c.Jar = jar
		client = &c
	}

	geo, err := ResolveGeo(ctx, client, opts.GeoURL, opts.Address, id.UserAgent)
	if err != nil {
		log.Warn("geo resolution failed, using fallback", slog.String("error", err.Error()))
		geo = FallbackGeo()
	}
	id.Geo = geo

	return id, nil
}

// resolvePath returns configured, or the XDG config file for rel if one
// exists, or "".
func resolvePath(configured, rel string) string {
	if configured != "" {
		return configured
	}
	if p, err := xdg.SearchConfigFile(rel); err == nil {
		return p
	}
	return ""
}

// LoadUserAgent returns the first non-empty line of path, or
// DefaultUserAgent.
func LoadUserAgent(path string, log *slog.Logger) string {
	if path == "" {
		return DefaultUserAgent
	}
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) && log != nil {
			log.Warn("user agent file unreadable", slog.String("path", path), slog.String("error", err.Error()))
		}
		return DefaultUserAgent
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	if err := sc.Err(); err != nil && log != nil {
		log.Warn("user agent file unreadable", slog.String("path", path), slog.String("error", err.Error()))
	}
	return DefaultUserAgent
}

// ResolveGeo performs a single geo lookup for address. It does not retry.
func ResolveGeo(ctx context.Context, client *http.Client, geoURL, address, userAgent string) (Geo, error) {
	if geoURL == "" {
		return Geo{}, fmt.Errorf("geo url is not configured")
	}
	u, err := url.Parse(geoURL)
	if err != nil {
		return Geo{}, fmt.Errorf("parse geo url: %w", err)
	}
	q := u.Query()
	q.Set("address", address)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Geo{}, fmt.Errorf("create geo request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := client.Do(req)
	if err != nil {
		return Geo{}, fmt.Errorf("geo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Geo{}, fmt.Errorf("geo request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Geo{}, fmt.Errorf("read geo response: %w", err)
	}
	var payload struct {
		XInfo string `json:"xinfo"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Geo{}, fmt.Errorf("decode geo response: %w", err)
	}

	return ParseXInfo(payload.XInfo), nil
}

// ParseXInfo splits an xinfo token ("k=v&k=v") into ordered params and
// fills in dest/spp when the token lacks them.
func ParseXInfo(xinfo string) Geo {
	geo := Geo{XInfo: xinfo}
	index := map[string]int{}
	for _, part := range strings.Split(xinfo, "&") {
		k, v, ok := strings.Cut(part, "=")
		if !ok || v == "" {
			continue
		}
		if i, seen := index[k]; seen {
			geo.Params[i].Value = v
			continue
		}
		index[k] = len(geo.Params)
		geo.Params = append(geo.Params, Param{Key: k, Value: v})
	}
	if _, ok := index["dest"]; !ok {
		geo.Params = append(geo.Params, Param{Key: "dest", Value: fallbackDest})
	}
	if _, ok := index["spp"]; !ok {
		geo.Params = append(geo.Params, Param{Key: "spp", Value: fallbackSpp})
	}
	return geo
}

// CookieEntry is one cookie as stored in the cookie file.
type CookieEntry struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
}

type rawCookie struct {
	Name     string          `json:"name"`
	Value    json.RawMessage `json:"value"`
	Domain   string          `json:"domain"`
	Path     string          `json:"path"`
	Secure   bool            `json:"secure"`
	HTTPOnly bool            `json:"httpOnly"`
}

// LoadCookies reads a cookie file and keeps the entries for domain.
func LoadCookies(path, domain string) ([]CookieEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	return ParseCookies(data, domain)
}

// ParseCookies decodes a cookie export (array or single object) and drops
// entries for other domains, without a name, or with a null value.
func ParseCookies(data []byte, domain string) ([]CookieEntry, error) {
	data = bytes.TrimSpace(data)
	var raws []rawCookie
	if len(data) > 0 && data[0] == '{' {
		var one rawCookie
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("decode cookie file: %w", err)
		}
		raws = []rawCookie{one}
	} else if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode cookie file: %w", err)
	}

	out := make([]CookieEntry, 0, len(raws))
	for _, rc := range raws {
		if !matchesDomain(rc.Domain, domain) || rc.Name == "" {
			continue
		}
		value, ok := cookieValue(rc.Value)
		if !ok {
			continue
		}
		path := rc.Path
		if path == "" {
			path = "/"
		}
		out = append(out, CookieEntry{
			Name:     rc.Name,
			Value:    value,
			Domain:   rc.Domain,
			Path:     path,
			Secure:   rc.Secure,
			HTTPOnly: rc.HTTPOnly,
		})
	}
	return out, nil
}

// matchesDomain reports whether cookieDomain is domain or one of its
// subdomains. A leading dot on either side is ignored.
func matchesDomain(cookieDomain, domain string) bool {
	c := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cookieDomain), "."))
	d := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "."))
	if c == "" || d == "" {
		return false
	}
	return c == d || strings.HasSuffix(c, "."+d)
}

// cookieValue renders a JSON scalar as a cookie value; null or missing
// values are rejected.
func cookieValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	if raw[0] == '"' {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", false
		}
		return v, true
	}
	return string(raw), true
}

// installCookies puts entries into jar, scoping each one by its own domain.
func installCookies(jar http.CookieJar, entries []CookieEntry) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(entries))
	for _, e := range entries {
		c := &http.Cookie{
			Name:     e.Name,
			Value:    e.Value,
			Domain:   e.Domain,
			Path:     e.Path,
			Secure:   e.Secure,
			HttpOnly: e.HTTPOnly,
		}
		host := strings.TrimPrefix(e.Domain, ".")
		jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, []*http.Cookie{c})
		cookies = append(cookies, c)
	}
	return cookies
}

// NormalizeCookieFile filters a raw browser cookie export into the format
// Bootstrap reads and returns the number of cookies written.
func NormalizeCookieFile(src, dst, domain string) (int, error) {
	entries, err := LoadCookies(src, domain)
	if err != nil {
		return 0, err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode cookies: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return 0, fmt.Errorf("write cookie file: %w", err)
	}
	return len(entries), nil
}
