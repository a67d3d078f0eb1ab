package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsheet/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultConsentTimeout bounds how long the operator has to approve access in the browser.
const DefaultConsentTimeout = 2 * time.Minute

// Consent runs the browser authorization flow on a loopback listener.
type Consent struct {
	// Host and Port are used when the redirect URL does not name them.
	Host string
	Port int

	Open    shared.BrowserOpener
	Out     io.Writer
	Timeout time.Duration
	Logger  *log.Logger
}

// NewConsent creates a [Consent] that opens the system browser and prints the URL to stderr.
func NewConsent(cfg shared.ServerConfig, logger *log.Logger) *Consent {
	return &Consent{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Open:    shared.OpenBrowser,
		Out:     os.Stderr,
		Timeout: DefaultConsentTimeout,
		Logger:  logger,
	}
}

// Run asks the operator to approve access and returns the exchanged token.
//
// config is not modified; when the listener port differs from the redirect URL a copy is used.
func (c *Consent) Run(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	logger := c.Logger
	if logger == nil {
		logger = log.Default()
	}

	redirect, err := c.redirectURL(config.RedirectURL)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	if _, port, _ := net.SplitHostPort(redirect.Host); port == "0" {
		_, actual, _ := net.SplitHostPort(ln.Addr().String())
		redirect.Host = net.JoinHostPort(redirect.Hostname(), actual)
	}

	cfg := *config
	cfg.RedirectURL = redirect.String()

	state, err := shared.GenerateState()
	if err != nil {
		ln.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	handler := NewOAuthHandler(ctx, &cfg, state, verifier, redirect.Path)
	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))
	router.Handler(handler)

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	logger.Info("waiting for authorization", "redirect", cfg.RedirectURL)

	if c.Out != nil {
		fmt.Fprintf(c.Out, "Open this URL to authorize playsheet:\n\n  %s\n\n", authURL)
	}
	if c.Open != nil {
		if err := c.Open(authURL); err != nil {
			logger.Warn("could not open browser", "error", err)
		}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultConsentTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: no authorization received within %s", shared.ErrTimeout, timeout)
	}
}

// redirectURL fills in the loopback host, port and path missing from raw.
func (c *Consent) redirectURL(raw string) (*url.URL, error) {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}

	if raw == "" {
		raw = "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port)) + "/callback"
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redirect URL %q: %v", shared.ErrConfig, raw, err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("%w: redirect URL %q must use http on a loopback address", shared.ErrConfig, raw)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(c.Port))
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}
