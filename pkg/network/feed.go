package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// FeedConfig configures an HTTPFeed.
type FeedConfig struct {
	// URL is the network data endpoint returning the JSON snapshot.
	URL string

	// ConnectTimeout bounds TCP+TLS handshake time (default 10s).
	ConnectTimeout time.Duration

	// TotalTimeout bounds the entire request including body read (default 30s).
	TotalTimeout time.Duration

	// RequestsPerSecond caps how often Fetch issues a request; 0 disables
	// limiting beyond the orchestrator's own tick cadence.
	RequestsPerSecond float64

	Retry RetryConfig
}

// DefaultFeedConfig returns the default timeout and retry settings for url.
func DefaultFeedConfig(url string) FeedConfig {
	return FeedConfig{
		URL:               url,
		ConnectTimeout:    10 * time.Second,
		TotalTimeout:      30 * time.Second,
		RequestsPerSecond: 1,
		Retry:             DefaultRetryConfig(),
	}
}

// HTTPFeed fetches and parses a network data snapshot over HTTP. It
// implements Source.
type HTTPFeed struct {
	cfg         FeedConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewHTTPFeed builds an HTTPFeed. A connect-timeout-aware dialer is wired
// into the transport so connect and total timeouts are enforced separately.
func NewHTTPFeed(cfg FeedConfig) *HTTPFeed {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		DialContext: dialer.DialContext,
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &HTTPFeed{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.TotalTimeout,
			Transport: transport,
		},
		rateLimiter: limiter,
	}
}

// Fetch retrieves one snapshot, retrying transient failures per cfg.Retry.
// Parse failures are never retried.
func (f *HTTPFeed) Fetch(ctx context.Context) (*Snapshot, error) {
	return RetryWithBackoff(ctx, f.cfg.Retry, func() (*Snapshot, error) {
		return f.fetchOnce(ctx)
	})
}

func (f *HTTPFeed) fetchOnce(ctx context.Context) (*Snapshot, error) {
	if f.rateLimiter != nil {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return nil, Transient(fmt.Errorf("rate limiter: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, Parse(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, Transient(fmt.Errorf("fetch snapshot: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Transient(fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode >= 500 {
		return nil, Transient(fmt.Errorf("snapshot endpoint returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, Parse(fmt.Errorf("snapshot endpoint returned status %d: %s", resp.StatusCode, body))
	}

	return parseSnapshot(body)
}

// wireSnapshot mirrors the documented JSON schema of the upstream network
// data endpoint. Fields absent from a record (e.g. a flight with no filed
// position) are represented as pointers so the mapping step can tell
// "zero" from "missing".
type wireSnapshot struct {
	General struct {
		UpdateTimestamp string `json:"update_timestamp"`
	} `json:"general"`
	Pilots       []wirePilot       `json:"pilots"`
	Controllers  []wireController  `json:"controllers"`
	ATIS         []wireController  `json:"atis"`
	Transceivers []wireTransceiver `json:"transceivers"`
}

// wireTransceiver carries EntityID as the network user id of its owning
// pilot or controller record.
type wireTransceiver struct {
	EntityID    int64   `json:"entity_id"`
	EntityType  string  `json:"entity_type"`
	FrequencyHz int64   `json:"frequency"`
	Latitude    float64 `json:"latDeg"`
	Longitude   float64 `json:"lonDeg"`
	HeightFt    float64 `json:"heightAglM"`
}

type wirePilot struct {
	Callsign  string  `json:"callsign"`
	CID       int64   `json:"cid"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  float64  `json:"altitude"`
	GroundSpeed *float64 `json:"groundspeed"`
	Heading     float64  `json:"heading"`
	FlightPlan  *wireFlightPlan `json:"flight_plan"`
	LastUpdated string   `json:"last_updated"`
}

type wireFlightPlan struct {
	FlightRules string `json:"flight_rules"`
	Aircraft    string `json:"aircraft_short"`
	Departure   string `json:"departure"`
	Arrival     string `json:"arrival"`
	Route       string `json:"route"`
}

type wireController struct {
	Callsign    string `json:"callsign"`
	CID         int64  `json:"cid"`
	Name        string `json:"name"`
	Frequency   string `json:"frequency"`
	FacilityID  int    `json:"facility"`
	Rating      int    `json:"rating"`
	LastUpdated string `json:"last_updated"`
}

var wireTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z",
	time.RFC3339Nano,
	time.RFC3339,
}

func parseSnapshot(body []byte) (*Snapshot, error) {
	var wire wireSnapshot
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, Parse(fmt.Errorf("decode snapshot: %w", err))
	}

	serverTime, err := parseWireTime(wire.General.UpdateTimestamp)
	if err != nil {
		return nil, Parse(fmt.Errorf("parse snapshot timestamp: %w", err))
	}

	snapshot := &Snapshot{
		ServerTimestamp: serverTime,
		Flights:         make([]FlightSample, 0, len(wire.Pilots)),
		Controllers:     make([]ControllerSample, 0, len(wire.Controllers)+len(wire.ATIS)),
	}

	knownPilots := make(map[int64]bool, len(wire.Pilots))
	for _, p := range wire.Pilots {
		sample, err := toFlightSample(p, serverTime)
		if err != nil {
			return nil, Parse(fmt.Errorf("pilot %s: %w", p.Callsign, err))
		}
		snapshot.Flights = append(snapshot.Flights, sample)
		knownPilots[p.CID] = true
	}

	knownControllers := make(map[int64]bool, len(wire.Controllers)+len(wire.ATIS))
	controllerIndex := make(map[int64]int, len(wire.Controllers)+len(wire.ATIS))
	for _, c := range append(append([]wireController{}, wire.Controllers...), wire.ATIS...) {
		sample, err := toControllerSample(c, serverTime)
		if err != nil {
			return nil, Parse(fmt.Errorf("controller %s: %w", c.Callsign, err))
		}
		snapshot.Controllers = append(snapshot.Controllers, sample)
		knownControllers[c.CID] = true
		controllerIndex[c.CID] = len(snapshot.Controllers) - 1
	}

	snapshot.Transceivers = make([]TransceiverSample, 0, len(wire.Transceivers))
	for _, tx := range wire.Transceivers {
		var entityType EntityType
		switch {
		case knownPilots[tx.EntityID]:
			entityType = EntityFlight
		case knownControllers[tx.EntityID]:
			entityType = EntityController
		default:
			// Unlinked transceiver: owner not present in this snapshot.
			continue
		}

		snapshot.Transceivers = append(snapshot.Transceivers, TransceiverSample{
			EntityType:  entityType,
			EntityID:    tx.EntityID,
			FrequencyHz: tx.FrequencyHz,
			Latitude:    tx.Latitude,
			Longitude:   tx.Longitude,
			HeightFt:    tx.HeightFt,
		})

		// A controller's position comes from its linked transceiver; the
		// controller record itself never carries lat/lon. Only the first
		// transceiver seen for a controller sets its position.
		if entityType == EntityController {
			if idx, ok := controllerIndex[tx.EntityID]; ok && !snapshot.Controllers[idx].HasPosition {
				snapshot.Controllers[idx].HasPosition = true
				snapshot.Controllers[idx].Latitude = tx.Latitude
				snapshot.Controllers[idx].Longitude = tx.Longitude
			}
		}
	}

	return snapshot, nil
}

func toFlightSample(p wirePilot, fallback time.Time) (FlightSample, error) {
	observedAt := fallback
	if p.LastUpdated != "" {
		if t, err := parseWireTime(p.LastUpdated); err == nil {
			observedAt = t
		}
	}

	sample := FlightSample{
		Callsign:    p.Callsign,
		PilotID:     p.CID,
		ObservedAt:  observedAt,
		Altitude:    p.Altitude,
		Heading:     p.Heading,
		GroundSpeed: p.GroundSpeed,
	}

	if p.Latitude != nil && p.Longitude != nil {
		sample.HasPosition = true
		sample.Latitude = *p.Latitude
		sample.Longitude = *p.Longitude
	}

	if p.FlightPlan != nil {
		sample.DepartureICAO = p.FlightPlan.Departure
		sample.ArrivalICAO = p.FlightPlan.Arrival
		sample.AircraftType = p.FlightPlan.Aircraft
		sample.RawFlightPlan = p.FlightPlan.Route
		switch p.FlightPlan.FlightRules {
		case "I":
			sample.FlightRules = IFR
		case "V":
			sample.FlightRules = VFR
		}
	}

	return sample, nil
}

func toControllerSample(c wireController, fallback time.Time) (ControllerSample, error) {
	observedAt := fallback
	if c.LastUpdated != "" {
		if t, err := parseWireTime(c.LastUpdated); err == nil {
			observedAt = t
		}
	}

	var freq float64
	fmt.Sscanf(c.Frequency, "%f", &freq)

	return ControllerSample{
		Callsign:     c.Callsign,
		PilotID:      c.CID,
		ObservedAt:   observedAt,
		Frequency:    freq,
		Name:         c.Name,
		Rating:       c.Rating,
		FacilityCode: c.FacilityID,
	}, nil
}

func parseWireTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	var lastErr error
	for _, layout := range wireTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
