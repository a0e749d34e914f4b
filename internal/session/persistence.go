package session

import (
	"context"
	"errors"
	"time"

	"taskchat/internal/logging"
	"taskchat/internal/store"
	"taskchat/internal/types"
)

const persistTimeout = 5 * time.Second

// Outcome records how a best-effort persistence call ended. Callers only
// look at it in tests and logs; a failure never changes what the user sees.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeMissing
	OutcomeCorrupt
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeMissing:
		return "missing"
	case OutcomeCorrupt:
		return "corrupt"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Persistence keeps history in a store without ever failing the caller.
type Persistence struct {
	store  store.HistoryStore
	logger logging.Logger
}

func NewPersistence(backend store.HistoryStore, logger logging.Logger) *Persistence {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Persistence{store: backend, logger: logger}
}

var errNoStore = errors.New("history store unavailable")

// Load returns the stored history, or an empty one when nothing usable is
// stored.
func (p *Persistence) Load() ([]types.Message, Outcome) {
	if p == nil || p.store == nil {
		return []types.Message{}, p.fail("load", errNoStore)
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	history, err := p.store.Load(ctx)
	switch {
	case err == nil:
		return types.CloneMessages(history), OutcomeOK
	case errors.Is(err, store.ErrNoHistory):
		return []types.Message{}, OutcomeMissing
	case errors.Is(err, store.ErrCorruptHistory):
		p.logger.Warn("stored history ignored", logging.F("backend", p.store.Backend()), logging.Err(err))
		return []types.Message{}, OutcomeCorrupt
	default:
		return []types.Message{}, p.fail("load", err)
	}
}

func (p *Persistence) Save(history []types.Message) Outcome {
	if p == nil || p.store == nil {
		return p.fail("save", errNoStore)
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := p.store.Save(ctx, history); err != nil {
		return p.fail("save", err)
	}
	return OutcomeOK
}

func (p *Persistence) Clear() Outcome {
	if p == nil || p.store == nil {
		return p.fail("clear", errNoStore)
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := p.store.Clear(ctx); err != nil {
		return p.fail("clear", err)
	}
	return OutcomeOK
}

func (p *Persistence) Backend() string {
	if p == nil || p.store == nil {
		return "none"
	}
	return p.store.Backend()
}

func (p *Persistence) fail(op string, err error) Outcome {
	if p != nil && p.logger != nil {
		p.logger.Warn("history "+op+" failed", logging.Err(err))
	}
	return OutcomeFailed
}
