package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"procura.io/internal/auth"
	"procura.io/internal/award"
	"procura.io/internal/obs"
	"procura.io/internal/stream"
)

const serviceName = "procura-api"

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe reports ready when every dependency answers a ping.
type ReadyProbe struct {
	Deps []Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	for _, d := range rp.Deps {
		if d == nil {
			continue
		}
		if err := d.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

type readinessChecker interface {
	Check(ctx context.Context) error
}

// Deps wires the API to the award engine and its collaborators.
type Deps struct {
	Awards    *award.Service
	Signer    *auth.Signer
	Stream    *stream.Stream
	Ready     ReadyProbe
	Version   string
	DevTokens bool
}

// API is the HTTP layer.
type API struct {
	awards     *award.Service
	signer     *auth.Signer
	stream     *stream.Stream
	readyProbe readinessChecker
	version    string
	devTokens  bool

	rateBurst      int
	ratePerSec     float64
	trustedProxies []*net.IPNet
}

func New(d Deps) *API {
	return &API{
		awards:     d.Awards,
		signer:     d.Signer,
		stream:     d.Stream,
		readyProbe: d.Ready,
		version:    d.Version,
		devTokens:  d.DevTokens,
		rateBurst:  100,
		ratePerSec: 50,
	}
}

// SetRateLimit overrides the per-client token bucket. Zero perSecond turns
// limiting off.
func (a *API) SetRateLimit(burst int, perSecond float64) {
	a.rateBurst = burst
	a.ratePerSec = perSecond
}

// SetTrustedProxies lists the peers allowed to report the client address in
// X-Forwarded-For.
func (a *API) SetTrustedProxies(nets []*net.IPNet) {
	a.trustedProxies = nets
}

// Handler builds the router with the middleware chain applied.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, LoggingJSON, SecurityHeaders, CORS, obs.Instrument)
	if a.ratePerSec > 0 {
		r.Use(RateLimit(a.rateBurst, a.ratePerSec, a.trustedProxies))
	}

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)
	r.Handle("/metrics", obs.Handler())
	if a.devTokens {
		r.Post("/v1/auth/token", a.handleAuthToken)
	}

	r.Group(func(r chi.Router) {
		r.Use(a.withAuth)

		r.Get("/v1/events", a.Stream)
		r.Get("/v1/rfqs/{rfqID}", a.getRFQ)
		r.Get("/v1/rfqs/{rfqID}/awards", a.listAwards)
		r.Get("/v1/pos/{poID}", a.getPurchaseOrder)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(auth.RoleBuyer))

			r.Post("/v1/rfqs/{rfqID}/award-lines", a.awardLines)
			r.Post("/v1/rfqs/{rfqID}/awards", a.createAwards)
			r.Post("/v1/rfqs/{rfqID}/publish", a.publishRFQ)
			r.Post("/v1/rfqs/{rfqID}/close", a.closeRFQ)
			r.Post("/v1/rfqs/{rfqID}/cancel", a.cancelRFQ)
			r.Delete("/v1/awards/{awardID}", a.deleteAward)
			r.Post("/v1/pos/from-awards", a.convertAwards)
			r.Post("/v1/pos/{poID}/cancel", a.cancelPurchaseOrder)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
