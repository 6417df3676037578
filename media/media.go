package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"rubika_content_bot/config"
	"rubika_content_bot/localize"
)

// PlaceholderURL is posted whenever no image could be resolved.
const PlaceholderURL = "https://images.pexels.com/photos/235734/pexels-photo-235774.jpeg"

const (
	searchTimeout = 10 * time.Second
	perPage       = 5
	maxBodyBytes  = 2 << 20
)

// ErrProviderUnavailable covers every way the image search can fail.
var ErrProviderUnavailable = errors.New("image provider unavailable")

var errNoResults = fmt.Errorf("%w: no results", ErrProviderUnavailable)

// Largest rendition first.
var sizePreference = []string{"original", "large", "medium", "small"}

// Rand picks one of n candidates.
type Rand interface {
	IntN(n int) int
}

// Resolver finds a photo URL for a post via the Pexels search API.
type Resolver struct {
	cfg     config.Pexels
	client  *http.Client
	rnd     Rand
	breaker circuitbreaker.CircuitBreaker[string]
	logger  *logrus.Logger
}

// NewResolver creates a Resolver. Three consecutive provider failures open
// the breaker for the rest of the run so later items skip the network.
func NewResolver(cfg config.Pexels, client *http.Client, rnd Rand, logger *logrus.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: searchTimeout}
	}
	if cfg.APIBase == "" {
		cfg.APIBase = config.DefaultPexelsAPIBase
	}
	breaker := circuitbreaker.NewBuilder[string]().
		WithFailureThresholdRatio(3, 3).
		WithDelay(time.Hour).
		WithSuccessThreshold(1).
		HandleIf(func(_ string, err error) bool {
			return err != nil && !errors.Is(err, errNoResults)
		}).
		Build()

	return &Resolver{
		cfg:     cfg,
		client:  client,
		rnd:     rnd,
		breaker: breaker,
		logger:  logger,
	}
}

// Resolve returns PlaceholderURL when no API key is configured, a photo URL
// on success, and "" when the provider failed for any reason.
func (r *Resolver) Resolve(ctx context.Context, query string, category localize.Category) string {
	if r.cfg.APIKey == "" {
		return PlaceholderURL
	}
	photo, err := r.Search(ctx, query+" "+string(category))
	if err != nil {
		if r.logger != nil {
			r.logger.WithError(err).WithField("query", query).Warn("Image search failed")
		}
		return ""
	}
	return photo
}

// Search runs one search request through the circuit breaker.
func (r *Resolver) Search(ctx context.Context, query string) (string, error) {
	photo, err := failsafe.With[string](r.breaker).WithContext(ctx).Get(func() (string, error) {
		return r.search(ctx, query)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return photo, err
}

func (r *Resolver) search(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.APIBase+"/v1/search", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("orientation", "landscape")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", r.cfg.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ErrProviderUnavailable, err)
	}
	return pickPhoto(body, r.rnd)
}

// pickPhoto chooses one photo uniformly at random and returns its largest
// non-empty rendition.
func pickPhoto(body []byte, rnd Rand) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: malformed response", ErrProviderUnavailable)
	}
	photos := gjson.GetBytes(body, "photos").Array()
	if len(photos) == 0 {
		return "", errNoResults
	}
	src := photos[rnd.IntN(len(photos))].Get("src")
	for _, size := range sizePreference {
		if u := src.Get(size).String(); u != "" {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: photo has no usable rendition", ErrProviderUnavailable)
}
