package utility

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"regenerate-thumbnails/internal/domain"
	"regenerate-thumbnails/internal/usecase/regenerate"

	"github.com/wb-go/wbf/zlog"
)

type Activation struct {
	Result *domain.RunResult
	Notice *domain.Notice
}

// Lifecycle drives the one-shot utility: activation runs the regeneration
// and leaves a notice behind, the next notice render shows it once and
// deactivates the utility.
type Lifecycle struct {
	id          string
	store       utilityStore
	regenerator regenerator
	logger      *zlog.Zerolog
	running     sync.Mutex
}

func NewLifecycle(id string, store utilityStore, regenerator regenerator, logger *zlog.Zerolog) *Lifecycle {
	return &Lifecycle{
		id:          id,
		store:       store,
		regenerator: regenerator,
		logger:      logger,
	}
}

func (l *Lifecycle) ID() string {
	return l.id
}

// Activate marks the utility active and regenerates synchronously. The
// resulting notice is stored for RenderNotices and also returned.
func (l *Lifecycle) Activate(ctx context.Context) (*Activation, error) {
	if !l.running.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer l.running.Unlock()

	if err := l.store.Activate(ctx, l.id); err != nil {
		return nil, fmt.Errorf("failed to activate %s: %w", l.id, err)
	}
	l.logger.Info().Str("utility", l.id).Msg("Utility activated")

	result, err := l.regenerator.Run(ctx)

	var notice *domain.Notice
	switch {
	case errors.Is(err, regenerate.ErrNoImagesFound):
		notice = NoImagesNotice()
	case err != nil:
		return nil, fmt.Errorf("failed to regenerate thumbnails: %w", err)
	default:
		notice = SuccessNotice(result.Created)
	}

	if err := l.store.SaveNotice(ctx, notice); err != nil {
		return nil, fmt.Errorf("failed to store notice: %w", err)
	}

	return &Activation{Result: result, Notice: notice}, nil
}

// RenderNotices returns the pending notice body, or "" when there is none,
// and deactivates the utility in every case. A notice is shown once.
func (l *Lifecycle) RenderNotices(ctx context.Context) (string, error) {
	notice, consumeErr := l.store.ConsumeNotice(ctx, domain.NoticeKey)
	if consumeErr != nil {
		consumeErr = fmt.Errorf("failed to read notice: %w", consumeErr)
	}

	wasActive, err := l.store.Deactivate(ctx, l.id)
	if err != nil {
		return "", errors.Join(consumeErr, fmt.Errorf("failed to deactivate %s: %w", l.id, err))
	}
	if wasActive {
		l.logger.Info().Str("utility", l.id).Msg("Utility deactivated")
	}

	if err := l.store.DeleteNotice(ctx, domain.NoticeKey); err != nil {
		return "", errors.Join(consumeErr, err)
	}

	if consumeErr != nil || notice == nil {
		return "", consumeErr
	}

	return notice.Body, nil
}

func (l *Lifecycle) ActiveUtilities(ctx context.Context) ([]string, error) {
	ids, err := l.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active utilities: %w", err)
	}
	return ids, nil
}
