// Package playback emits deterrent patterns on the device speaker.
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greenguile/internal/logger"
)

// ErrPlayback wraps every failure reported by a Player.
var ErrPlayback = errors.New("playback failed")

// Player plays one pattern and returns when it has finished.
type Player interface {
	Play(ctx context.Context, patternID string, volume int) error
}

// DefaultPatternDuration is how long one pattern occupies the speaker.
const DefaultPatternDuration = 2 * time.Second

// LogPlayer stands in for the audio hardware: it logs the pattern and holds
// the speaker for Duration.
type LogPlayer struct {
	Duration time.Duration
	log      *logger.Logger
}

func NewLogPlayer(d time.Duration, log *logger.Logger) *LogPlayer {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPlayer{Duration: d, log: log}
}

func (p *LogPlayer) Play(ctx context.Context, patternID string, volume int) error {
	p.log.Infow("pattern_playing", "pattern", patternID, "volume", volume)
	if p.Duration <= 0 {
		return nil
	}
	t := time.NewTimer(p.Duration)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrPlayback, patternID, ctx.Err())
	case <-t.C:
		return nil
	}
}

// TimeoutPlayer bounds every Play call on the wrapped player.
type TimeoutPlayer struct {
	Next    Player
	Timeout time.Duration
}

func WithTimeout(next Player, d time.Duration) Player {
	if d <= 0 {
		return next
	}
	return &TimeoutPlayer{Next: next, Timeout: d}
}

func (p *TimeoutPlayer) Play(ctx context.Context, patternID string, volume int) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Next.Play(ctx, patternID, volume) }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, ErrPlayback) {
			err = fmt.Errorf("%w: %s: %w", ErrPlayback, patternID, err)
		}
		return err
	case <-ctx.Done():
		// a player that ignores ctx is abandoned, not waited for
		return fmt.Errorf("%w: %s: %w", ErrPlayback, patternID, ctx.Err())
	}
}
