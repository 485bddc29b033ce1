package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucid-vigil/decoynet/pkg/event"
	"github.com/lucid-vigil/decoynet/pkg/store"
)

// DefaultBaseURL is the free ip-api.com JSON endpoint.
const DefaultBaseURL = "http://ip-api.com/json"

// apiResponse is the ip-api.com wire shape. Note regionName vs the
// cached Record's region field.
type apiResponse struct {
	Status      string  `json:"status"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
}

// Fetcher resolves IPs against a geolocation HTTP API, pacing requests
// to stay under the provider's rate limit.
type Fetcher struct {
	baseURL string
	delay   time.Duration
	client  *http.Client
	logger  zerolog.Logger
}

// NewFetcher builds a fetcher. delay is the pause between consecutive
// lookups.
func NewFetcher(baseURL string, delay time.Duration, logger zerolog.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		baseURL: baseURL,
		delay:   delay,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger.With().Str("component", "enrich").Logger(),
	}
}

// Lookup resolves one IP. A "fail" status from the provider (private
// ranges, bogons) returns nil without error.
func (f *Fetcher) Lookup(ctx context.Context, ip string) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/"+ip, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation lookup for %s: status %d", ip, resp.StatusCode)
	}
	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Status != "success" {
		return nil, nil
	}
	return &Record{
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Region:      body.RegionName,
		City:        body.City,
		Lat:         body.Lat,
		Lon:         body.Lon,
		ISP:         body.ISP,
		Org:         body.Org,
	}, nil
}

// CollectIPs gathers the distinct source IPs across every stream, in
// first-seen order, skipping loopback peers that would only enrich the
// operator's own tests.
func CollectIPs(st store.Store) ([]string, error) {
	seen := make(map[string]struct{})
	var ips []string
	for _, stream := range event.Streams {
		events, err := st.ReadAll(stream)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			ip := ev.SourceIP
			if ip == "" || ip == "127.0.0.1" || ip == "::1" || ip == "localhost" {
				continue
			}
			if _, ok := seen[ip]; ok {
				continue
			}
			seen[ip] = struct{}{}
			ips = append(ips, ip)
		}
	}
	return ips, nil
}

// Refresh resolves every distinct IP in the store and rewrites the
// cache file at path. Lookups that fail are logged and left out of the
// map; absence is the representation of "unknown".
func (f *Fetcher) Refresh(ctx context.Context, st store.Store, path string) (Map, error) {
	ips, err := CollectIPs(st)
	if err != nil {
		return nil, err
	}

	m := Map{}
	for i, ip := range ips {
		if i > 0 && f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		rec, err := f.Lookup(ctx, ip)
		if err != nil {
			f.logger.Warn().Str("ip", ip).Err(err).Msg("Geolocation lookup failed")
			continue
		}
		if rec == nil {
			continue
		}
		f.logger.Info().Str("ip", ip).Str("country", rec.Country).Msg("Geolocation resolved")
		m[ip] = *rec
	}

	if err := SaveMap(path, m); err != nil {
		return nil, err
	}
	f.logger.Info().Int("ips", len(m)).Str("path", path).Msg("Geolocation cache written")
	return m, nil
}
