package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"greenguile/internal/logger"
	"greenguile/internal/metrics"
	"greenguile/internal/models"
	"greenguile/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedCommand = errors.New("invalid command format")
)

// Command is a recognized text command keyword.
type Command string

const (
	CmdActivate   Command = "ACTIVATE"
	CmdDeactivate Command = "DEACTIVATE"
	CmdSeason     Command = "SEASON"
	CmdStatus     Command = "STATUS"
)

// Metric labels for input that never reached a handler.
const (
	labelUnknown = "UNKNOWN"
	labelInvalid = "INVALID"
)

// Reply texts.
const (
	replyActivated        = "System activated"
	replyDeactivated      = "System deactivated"
	replyInvalidFormat    = "Invalid command format"
	replySeasonMissingArg = "SEASON command requires a season parameter"
	replyInternalError    = "Internal error"
)

// ParsedCommand is one tokenized line of input.
type ParsedCommand struct {
	Keyword string
	Command Command
	Args    []string
}

// ParseCommand trims, uppercases and splits raw on whitespace.
func ParseCommand(raw string) (ParsedCommand, error) {
	parts := strings.Fields(strings.ToUpper(strings.TrimSpace(raw)))
	if len(parts) == 0 {
		return ParsedCommand{}, ErrMalformedCommand
	}
	pc := ParsedCommand{Keyword: parts[0], Args: parts[1:]}
	if _, ok := commandHandlers[Command(pc.Keyword)]; !ok {
		return pc, fmt.Errorf("%w: %s", ErrUnknownCommand, pc.Keyword)
	}
	pc.Command = Command(pc.Keyword)
	return pc, nil
}

type commandHandler func(d *CommandDispatcher, ctx context.Context, args []string) string

var commandHandlers map[Command]commandHandler

func init() {
	commandHandlers = map[Command]commandHandler{
		CmdActivate:   (*CommandDispatcher).activate,
		CmdDeactivate: (*CommandDispatcher).deactivate,
		CmdSeason:     (*CommandDispatcher).season,
		CmdStatus:     (*CommandDispatcher).status,
	}
}

// CommandDispatcher routes text commands to the controller. It never returns
// errors: every outcome is a reply string.
type CommandDispatcher struct {
	ctrl    Controller
	events  repository.EventRepo
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewCommandDispatcher builds a dispatcher. events and m may be nil.
func NewCommandDispatcher(ctrl Controller, events repository.EventRepo, m *metrics.Metrics, log *logger.Logger) *CommandDispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &CommandDispatcher{ctrl: ctrl, events: events, metrics: m, log: log}
}

func (d *CommandDispatcher) Process(ctx context.Context, raw string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("command_panic", "input", raw, "panic", r)
			reply = replyInternalError
		}
	}()

	pc, err := ParseCommand(raw)
	switch {
	case errors.Is(err, ErrMalformedCommand):
		d.metrics.CommandSeen(labelInvalid)
		return replyInvalidFormat
	case errors.Is(err, ErrUnknownCommand):
		d.metrics.CommandSeen(labelUnknown)
		d.log.Infow("command_unknown", "keyword", pc.Keyword)
		return "Unknown command: " + pc.Keyword
	}

	d.metrics.CommandSeen(string(pc.Command))
	reply = commandHandlers[pc.Command](d, ctx, pc.Args)
	d.log.Infow("command_processed", "command", pc.Command, "args", pc.Args)
	d.record(ctx, pc, reply)
	return reply
}

func (d *CommandDispatcher) activate(ctx context.Context, _ []string) string {
	d.ctrl.Activate(ctx)
	return replyActivated
}

func (d *CommandDispatcher) deactivate(ctx context.Context, _ []string) string {
	d.ctrl.Deactivate(ctx)
	return replyDeactivated
}

func (d *CommandDispatcher) season(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return replySeasonMissingArg
	}
	tag := strings.ToLower(args[0])
	s, err := models.ParseSeason(tag)
	if err == nil {
		err = d.ctrl.SetSeason(ctx, s)
	}
	if err != nil {
		return fmt.Sprintf("Invalid season: %s. Use spring/summer/autumn/winter", tag)
	}
	return "Season set to " + string(s)
}

func (d *CommandDispatcher) status(context.Context, []string) string {
	return FormatStatus(d.ctrl.IsActive(), d.ctrl.Season())
}

// FormatStatus renders the STATUS reply.
func FormatStatus(active bool, season models.Season) string {
	flag := "False"
	if active {
		flag = "True"
	}
	return fmt.Sprintf("GreenGuile Status:\nActive: %s\nCurrent Season: %s", flag, season)
}

func (d *CommandDispatcher) record(ctx context.Context, pc ParsedCommand, reply string) {
	if d.events == nil || pc.Command == CmdStatus {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventWriteTimeout)
	defer cancel()
	ev := models.DeviceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventCommand,
		Description: strings.TrimSpace(string(pc.Command) + " " + strings.Join(pc.Args, " ")),
		Metadata:    map[string]any{"reply": reply},
	}
	if err := d.events.Append(ctx, ev); err != nil {
		d.log.Errorw("event_append_failed", "type", models.EventCommand, "err", err)
	}
}
