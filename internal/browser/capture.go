// Package browser captures the ESPN authentication cookies by driving an
// interactive Chromium login session and polling its cookie jar.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
)

const loginURL = "https://www.espn.com/fantasy/football/"

const (
	cookieS2   = "espn_s2"
	cookieSWID = "SWID"
)

const pollInterval = 500 * time.Millisecond

// ErrAuthTimeout indicates the operator did not complete the login before the
// deadline. The browser has been released when this is returned.
var ErrAuthTimeout = errors.New("timed out waiting for login cookies; log into ESPN in the opened browser window and retry")

// ErrBrowserLaunch indicates the browser engine could not start. The wrapped
// message tells the operator how to install the missing runtime.
var ErrBrowserLaunch = errors.New("browser launch failed")

const installHint = "install the Playwright browser runtime with: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium"

// cookieJar abstracts the browser context cookie store so the polling loop
// can be exercised without a real browser.
type cookieJar interface {
	cookies() (map[string]string, error)
}

// Capture opens a fresh browser context on the ESPN fantasy login page and
// waits for the espn_s2 and SWID cookies to appear. All browser resources are
// released before returning, on every path.
//
// Callers are expected to serialize invocations; the process-wide gate lives
// in the auth coordinator.
func Capture(ctx context.Context, timeout time.Duration, headless bool) (string, string, error) {
	pw, err := playwright.Run()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v (%s)", ErrBrowserLaunch, err, installHint)
	}
	defer pw.Stop()

	chromium, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v (%s)", ErrBrowserLaunch, err, installHint)
	}
	defer chromium.Close()

	browserCtx, err := chromium.NewContext()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	if _, err := page.Goto(loginURL); err != nil {
		return "", "", fmt.Errorf("opening login page: %w", err)
	}

	log.Info().Bool("headless", headless).Msg("waiting for ESPN login in browser window")

	return pollCookies(ctx, contextJar{browserCtx}, timeout, pollInterval)
}

// pollCookies watches the jar until both auth cookies are non-empty or the
// deadline elapses. Cookie names are matched case-insensitively.
func pollCookies(ctx context.Context, jar cookieJar, timeout, interval time.Duration) (string, string, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	tick := time.NewTicker(interval)
	defer tick.Stop()

	var s2, swid string
	for {
		found, err := jar.cookies()
		if err != nil {
			return "", "", fmt.Errorf("reading cookie jar: %w", err)
		}

		for name, value := range found {
			switch {
			case s2 == "" && strings.EqualFold(name, cookieS2):
				s2 = value
				log.Debug().Msg("espn_s2 cookie observed")
			case swid == "" && strings.EqualFold(name, cookieSWID):
				swid = value
				log.Debug().Msg("SWID cookie observed")
			}
		}

		if s2 != "" && swid != "" {
			return s2, swid, nil
		}

		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-deadline.C:
			return "", "", ErrAuthTimeout
		case <-tick.C:
		}
	}
}

// contextJar adapts a playwright browser context to the cookieJar interface.
type contextJar struct {
	ctx playwright.BrowserContext
}

func (j contextJar) cookies() (map[string]string, error) {
	cookies, err := j.ctx.Cookies()
	if err != nil {
		return nil, err
	}

	found := make(map[string]string, len(cookies))
	for _, c := range cookies {
		if c.Value != "" {
			found[c.Name] = c.Value
		}
	}
	return found, nil
}
