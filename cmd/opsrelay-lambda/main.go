package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/target/opsrelay/internal/bootstrap"
	"github.com/target/opsrelay/internal/domain/model"
)

// eventHandler is the part of the dispatcher the Lambda runtime needs.
type eventHandler interface {
	Handle(ctx context.Context, payload []byte) int
}

type handler struct {
	events eventHandler
	flush  func()
	logger *slog.Logger
}

// Invoke handles one Lambda event and returns the workflow status as the
// invocation result. Outcome failures are statuses, not errors, so the
// runtime does not retry them; an error means the event was never dispatched.
func (h handler) Invoke(ctx context.Context, event json.RawMessage) (int, error) {
	if h.events == nil {
		return model.ExitInternal, errors.New("dispatcher is not initialised")
	}
	status := h.events.Handle(ctx, event)
	if h.flush != nil {
		h.flush()
	}
	if status != model.ExitOK {
		h.logger.WarnContext(ctx, "invocation finished with failure status", "status", status)
	}
	return status, nil
}

func main() {
	cfg, err := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.IsDev)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(model.ExitInternal) //nolint:forbidigo // runtime init failure must surface before Start
	}

	app, err := bootstrap.Open(context.Background(), &cfg, logger)
	if err != nil {
		logger.Error("bootstrap", "error", err)
		os.Exit(model.ExitInternal) //nolint:forbidigo // runtime init failure must surface before Start
	}

	h := handler{events: app.Dispatcher, logger: logger}
	if app.Metrics != nil {
		h.flush = app.Metrics.Flush
	}
	lambda.Start(h.Invoke)
}
