// Package admin talks to the tournament dashboard REST API. Every call
// reduces to (result, error); transport failures never propagate past
// the caller's log line.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/jose-valero/tourneydeck/internal/state"
)

const (
	// reads tolerate more latency than actions: an action that times
	// out is just a failed optimistic call, the next sync corrects it
	readTimeout   = 10 * time.Second
	actionTimeout = 5 * time.Second
)

// ErrUnauthorized means the API token is invalid or expired. Terminal
// for the credential: retrying will not help.
var ErrUnauthorized = errors.New("invalid or expired API token")

type Client struct {
	base    string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Entry
}

func New(base, token string, log *logrus.Logger) *Client {
	entry := log.WithField("component", "admin")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "admin-api",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		// auth failures are a credential problem, not a transport one
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnauthorized)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			entry.WithFields(logrus.Fields{
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("admin API circuit breaker state changed")
		},
	})

	return &Client{
		base:    strings.TrimRight(base, "/"),
		token:   token,
		http:    &http.Client{Timeout: readTimeout},
		breaker: cb,
		log:     entry,
	}
}

// apiResp is the dashboard's response envelope.
type apiResp struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (r apiResp) ok() (bool, string) { return r.Success, r.Error }

type envelope interface {
	ok() (bool, string)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, timeout time.Duration) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, body, out, timeout)
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-API-Token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.WithField("path", path).Warn("admin API rejected token")
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if env, isEnv := out.(envelope); isEnv {
		if ok, msg := env.ok(); !ok {
			if msg == "" {
				msg = "request rejected"
			}
			return fmt.Errorf("%s %s: %s", method, path, msg)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, readTimeout)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	var env apiResp
	return c.do(ctx, http.MethodPost, path, body, &env, actionTimeout)
}

// ---------- read side ----------

type statusResp struct {
	Modules struct {
		Match struct {
			State struct {
				TournamentID string `json:"tournamentId"`
			} `json:"state"`
		} `json:"match"`
	} `json:"modules"`
}

// Status returns the active tournament id, or "" when none is running.
func (c *Client) Status(ctx context.Context) (string, error) {
	var out statusResp
	if err := c.get(ctx, "/api/status", &out); err != nil {
		return "", err
	}
	return out.Modules.Match.State.TournamentID, nil
}

type verifyResp struct {
	apiResp
	Device struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"device"`
}

// VerifyToken checks the credential once at startup. A failure is a
// standing warning, never fatal.
func (c *Client) VerifyToken(ctx context.Context) error {
	var out verifyResp
	if err := c.get(ctx, "/api/auth/verify-token", &out); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"device": out.Device.Name,
		"type":   out.Device.Type,
	}).Info("API token verified")
	return nil
}

type participantsResp struct {
	apiResp
	Participants []state.RawParticipant `json:"participants"`
}

func (c *Client) Participants(ctx context.Context, tournamentID string) ([]state.RawParticipant, error) {
	var out participantsResp
	if err := c.get(ctx, "/api/participants/"+tournamentID, &out); err != nil {
		return nil, err
	}
	return out.Participants, nil
}

type stationsResp struct {
	apiResp
	Stations []state.RawStation `json:"stations"`
}

func (c *Client) Stations(ctx context.Context, tournamentID string) ([]state.RawStation, error) {
	var out stationsResp
	if err := c.get(ctx, "/api/stations/"+tournamentID, &out); err != nil {
		return nil, err
	}
	return out.Stations, nil
}

type matchesResp struct {
	apiResp
	Matches []state.RawMatch `json:"matches"`
}

func (c *Client) Matches(ctx context.Context, tournamentID string) ([]state.RawMatch, error) {
	var out matchesResp
	if err := c.get(ctx, "/api/matches/"+tournamentID, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

type statsResp struct {
	apiResp
	state.RawStats
}

func (c *Client) MatchStats(ctx context.Context, tournamentID string) (state.RawStats, error) {
	var out statsResp
	if err := c.get(ctx, "/api/matches/"+tournamentID+"/stats", &out); err != nil {
		return state.RawStats{}, err
	}
	return out.RawStats, nil
}
