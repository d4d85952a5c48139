// Package avatar downloads profile images, substituting a fallback image
// when the original source is unreachable.
package avatar

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoImage means neither the source URL nor the fallback produced bytes.
var ErrNoImage = errors.New("no profile image available")

// Fallback selects what happens when the source image cannot be fetched.
type Fallback string

const (
	// FallbackIdenticon substitutes a deterministic identicon keyed by the
	// account's remote ID.
	FallbackIdenticon Fallback = "identicon"
	// FallbackRandom substitutes a randomly chosen avatar.
	FallbackRandom Fallback = "random"
	// FallbackNone skips the image instead of substituting one.
	FallbackNone Fallback = "none"
)

// ParseFallback maps a flag value to a Fallback strategy.
func ParseFallback(s string) (Fallback, error) {
	switch Fallback(s) {
	case FallbackIdenticon, FallbackRandom, FallbackNone:
		return Fallback(s), nil
	}
	return "", fmt.Errorf("unknown avatar fallback %q", s)
}

// Export thumbnails are often behind services that reject requests without
// a browser user agent.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var defaultRandomAvatarAPIs = []string{
	"https://api.dicebear.com/7.x/adventurer/svg",
	"https://api.dicebear.com/7.x/bottts/svg",
	"https://api.dicebear.com/7.x/fun-emoji/svg",
	"https://api.dicebear.com/7.x/pixel-art/svg",
}

const defaultIdenticonBase = "https://www.gravatar.com/avatar"

// Fetcher downloads avatar images with a per-request timeout and a
// configurable fallback strategy.
type Fetcher struct {
	Strategy Fallback

	// Service bases are overridable for tests.
	IdenticonBase    string
	RandomAvatarAPIs []string

	http   *http.Client
	logger *zap.SugaredLogger
}

func NewFetcher(strategy Fallback, logger *zap.SugaredLogger) *Fetcher {
	return &Fetcher{
		Strategy:         strategy,
		IdenticonBase:    defaultIdenticonBase,
		RandomAvatarAPIs: defaultRandomAvatarAPIs,
		http:             &http.Client{Timeout: 10 * time.Second},
		logger:           logger,
	}
}

// Fetch returns image bytes and format ("png", "jpeg", ...) for an account.
// The source URL is tried first; on failure the configured fallback kicks
// in. ErrNoImage when everything fails.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, remoteID string) ([]byte, string, error) {
	if sourceURL != "" {
		data, format, err := f.download(ctx, sourceURL, true)
		if err == nil {
			return data, format, nil
		}
		f.logger.Warnw("profile image download failed", "url", sourceURL, "err", err)
	}

	switch f.Strategy {
	case FallbackIdenticon:
		url := f.identiconURL(identiconHash(remoteID))
		f.logger.Infow("falling back to identicon image", "url", url)
		return f.downloadOrNoImage(ctx, url)
	case FallbackRandom:
		api := f.RandomAvatarAPIs[rand.Intn(len(f.RandomAvatarAPIs))]
		url := fmt.Sprintf("%s?seed=%d", api, rand.Intn(10000))
		data, format, err := f.download(ctx, url, false)
		if err == nil {
			return data, format, nil
		}
		f.logger.Warnw("random avatar download failed", "url", url, "err", err)
		return f.downloadOrNoImage(ctx, f.identiconURL(randomHash()))
	}
	return nil, "", ErrNoImage
}

func (f *Fetcher) downloadOrNoImage(ctx context.Context, url string) ([]byte, string, error) {
	data, format, err := f.download(ctx, url, false)
	if err != nil {
		f.logger.Warnw("fallback image download failed", "url", url, "err", err)
		return nil, "", ErrNoImage
	}
	return data, format, nil
}

func (f *Fetcher) download(ctx context.Context, url string, browserUA bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	if browserUA {
		req.Header.Set("User-Agent", browserUserAgent)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, formatFromContentType(resp.Header.Get("Content-Type")), nil
}

func (f *Fetcher) identiconURL(hash string) string {
	return fmt.Sprintf("%s/%s?d=identicon&s=200", f.IdenticonBase, hash)
}

// identiconHash keys the deterministic fallback image off the remote ID so
// a user keeps the same substitute avatar across reruns.
func identiconHash(remoteID string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(remoteID+"@example.com")))
}

func randomHash() string {
	const hexdigits = "0123456789abcdef"
	b := make([]byte, 32)
	for i := range b {
		b[i] = hexdigits[rand.Intn(len(hexdigits))]
	}
	return string(b)
}

func formatFromContentType(ct string) string {
	if ct == "" {
		return "jpeg"
	}
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	if i := strings.LastIndex(ct, "/"); i >= 0 {
		ct = ct[i+1:]
	}
	if ct == "" {
		return "jpeg"
	}
	return ct
}
