package admin

import (
	"context"
	"fmt"
)

// Mutation actions. All of them are fired optimistically by the app:
// the caller has already painted the intended end state, so these only
// need to land eventually. Failures are the caller's log line.

func matchPath(tournamentID string, matchID int) string {
	return fmt.Sprintf("/api/matches/%s/%d", tournamentID, matchID)
}

func (c *Client) MarkUnderway(ctx context.Context, tournamentID string, matchID int) error {
	return c.post(ctx, matchPath(tournamentID, matchID)+"/underway", nil)
}

func (c *Client) UnmarkUnderway(ctx context.Context, tournamentID string, matchID int) error {
	return c.post(ctx, matchPath(tournamentID, matchID)+"/unmark-underway", nil)
}

func (c *Client) UpdateScore(ctx context.Context, tournamentID string, matchID, p1, p2 int) error {
	return c.post(ctx, matchPath(tournamentID, matchID)+"/score", map[string]any{
		"scores": fmt.Sprintf("%d-%d", p1, p2),
	})
}

// DeclareWinner reports the winner; the bracket service requires the
// final scores alongside.
func (c *Client) DeclareWinner(ctx context.Context, tournamentID string, matchID, winnerID, p1, p2 int) error {
	return c.post(ctx, matchPath(tournamentID, matchID)+"/winner", map[string]any{
		"winnerId": winnerID,
		"scores":   fmt.Sprintf("%d-%d", p1, p2),
	})
}

// Forfeit disqualifies loserID and advances winnerID with no score.
func (c *Client) Forfeit(ctx context.Context, tournamentID string, matchID, winnerID, loserID int) error {
	return c.post(ctx, matchPath(tournamentID, matchID)+"/dq", map[string]any{
		"winnerId": winnerID,
		"loserId":  loserID,
	})
}

func (c *Client) Reopen(ctx context.Context, tournamentID string, matchID int) error {
	return c.post(ctx, matchPath(tournamentID, matchID)+"/reopen", nil)
}

// AssignStation moves the match onto a station; nil unassigns.
func (c *Client) AssignStation(ctx context.Context, tournamentID string, matchID int, stationID *string) error {
	return c.post(ctx, matchPath(tournamentID, matchID)+"/station", map[string]any{
		"stationId": stationID,
	})
}

// SendTicker pushes a message to the venue ticker. Fire and forget.
func (c *Client) SendTicker(ctx context.Context, message string, duration int) error {
	return c.post(ctx, "/api/ticker/send", map[string]any{
		"message":  message,
		"duration": duration,
	})
}
