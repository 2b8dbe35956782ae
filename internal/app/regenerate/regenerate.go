package regenerate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"regenerate-thumbnails/internal/app"
	"regenerate-thumbnails/internal/config"
	"regenerate-thumbnails/internal/usecase/utility"

	"github.com/wb-go/wbf/zlog"
)

type lifecycle interface {
	Activate(ctx context.Context) (*utility.Activation, error)
	RenderNotices(ctx context.Context) (string, error)
}

// Runner performs a single activation cycle: activate, regenerate, show
// the notice and deactivate.
type Runner struct {
	lifecycle lifecycle
	out       io.Writer
	logger    *zlog.Zerolog
	close     func()
}

func NewRunner(cfg *config.Config, out io.Writer, logger *zlog.Zerolog) (*Runner, error) {
	container, err := app.NewContainer(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependencies: %w", err)
	}

	return &Runner{
		lifecycle: container.Lifecycle,
		out:       out,
		logger:    logger,
		close:     container.Close,
	}, nil
}

func (r *Runner) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r.close != nil {
		defer r.close()
	}

	return r.run(ctx)
}

func (r *Runner) run(ctx context.Context) error {
	activation, err := r.lifecycle.Activate(ctx)
	if err != nil {
		// nothing else renders notices for a one-shot run
		if _, renderErr := r.lifecycle.RenderNotices(context.WithoutCancel(ctx)); renderErr != nil {
			return errors.Join(err, renderErr)
		}
		return err
	}

	if activation.Result != nil {
		r.logger.Info().
			Str("run_id", activation.Result.ID).
			Int("found", activation.Result.Found).
			Int("created", activation.Result.Created).
			Msg("Regeneration completed")
	}

	// rendering is what deactivates the utility
	body, err := r.lifecycle.RenderNotices(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}

	if body != "" {
		if _, err := fmt.Fprintln(r.out, body); err != nil {
			return fmt.Errorf("failed to write notice: %w", err)
		}
	}

	return nil
}
