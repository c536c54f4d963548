package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/observability"
)

// logHooks reports editor and store events at debug level.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.EditorHooks = (*logHooks)(nil)
	_ observability.StoreHooks  = (*logHooks)(nil)
)

func (h *logHooks) OnMutation(planogramID, op string, err error) {
	if err != nil {
		h.logger.Debug("mutation rejected", "planogram", planogramID, "op", op, "code", errors.GetCode(err))
		return
	}
	h.logger.Debug("mutation applied", "planogram", planogramID, "op", op)
}

func (h *logHooks) OnSaveStart(_ context.Context, planogramID string, expectedVersion int) {
	h.logger.Debug("save started", "planogram", planogramID, "expected", expectedVersion)
}

func (h *logHooks) OnSaveComplete(_ context.Context, planogramID string, version int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("save failed", "planogram", planogramID, "duration", d.Round(time.Millisecond), "code", errors.GetCode(err))
		return
	}
	h.logger.Debug("save complete", "planogram", planogramID, "version", version, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnLoad(_ context.Context, planogramID string, version int, d time.Duration, err error) {
	h.logger.Debug("load", "planogram", planogramID, "version", version, "duration", d.Round(time.Millisecond), "err", err)
}

func (h *logHooks) OnPut(_ context.Context, planogramID string, version, size int, d time.Duration, err error) {
	h.logger.Debug("put", "planogram", planogramID, "version", version, "bytes", size, "duration", d.Round(time.Millisecond), "err", err)
}

func (h *logHooks) OnConflict(_ context.Context, planogramID string, expectedVersion int) {
	h.logger.Warn("version conflict", "planogram", planogramID, "expected", expectedVersion)
}

func (h *logHooks) OnRetry(_ context.Context, op string, attempt int, err error) {
	h.logger.Warn("retrying", "op", op, "attempt", attempt, "err", err)
}
