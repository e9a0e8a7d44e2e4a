package binstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/diwise/iot-bin-routing/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-bin-routing/pkg/types"
	"github.com/samber/lo"
)

const DefaultInterval time.Duration = 2 * time.Second

var ErrRefreshInProgress = errors.New("a refresh is already in progress")
var ErrResultDiscarded = errors.New("refresh result discarded since polling was stopped")
var ErrInvalidInterval = errors.New("poll interval must be greater than zero")

//go:generate moq -rm -out source_mock.go . Source

type Source interface {
	FetchBins(ctx context.Context) ([]types.Bin, error)
}

type SubscriberFunc func(types.BinCollection)

// Store holds the latest known bin collection and the operator's selection.
// The collection is only ever replaced as a whole.
type Store struct {
	source   Source
	interval time.Duration

	refreshing sync.Mutex

	mu          sync.RWMutex
	bins        types.BinCollection
	selection   []string
	subscribers []SubscriberFunc
	poller      *Poller
	generation  uint64
}

func New(source Source, interval time.Duration) (*Store, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	return &Store{
		source:    source,
		interval:  interval,
		bins:      types.BinCollection{},
		selection: []string{},
	}, nil
}

func (s *Store) Interval() time.Duration {
	return s.interval
}

// Subscribe registers fn to be called with the new collection every time it changes.
func (s *Store) Subscribe(fn SubscriberFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) Bins() types.BinCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bins.Clone()
}

// Refresh fetches the bins from the source once. Concurrent calls are not queued, a call
// made while another refresh is in flight returns ErrRefreshInProgress.
func (s *Store) Refresh(ctx context.Context) error {
	if !s.refreshing.TryLock() {
		return ErrRefreshInProgress
	}
	defer s.refreshing.Unlock()

	log := logging.GetFromContext(ctx)

	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	fetched, err := s.source.FetchBins(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh bins: %w", err)
	}

	latest := types.NewBinCollection(fetched)

	s.mu.Lock()

	if generation != s.generation {
		s.mu.Unlock()
		return ErrResultDiscarded
	}

	if latest.Equal(s.bins) {
		s.mu.Unlock()
		log.Debug().Msg("bins unchanged since last refresh")
		return nil
	}

	s.bins = latest
	subscribers := append([]SubscriberFunc{}, s.subscribers...)

	s.mu.Unlock()

	log.Debug().Msgf("bins changed, notifying %d subscribers", len(subscribers))

	for _, fn := range subscribers {
		fn(latest.Clone())
	}

	return nil
}

// Trigger starts an out of band refresh in the background.
func (s *Store) Trigger(ctx context.Context) {
	go func() {
		err := s.Refresh(ctx)
		if err != nil {
			log := logging.GetFromContext(ctx)
			if errors.Is(err, ErrRefreshInProgress) {
				log.Debug().Msg("refresh already in progress, dropping trigger")
				return
			}
			log.Error().Err(err).Msg("triggered refresh failed")
		}
	}()
}

// Select replaces the current selection. Unknown and duplicate ids are dropped and the
// order of the remaining ids is kept. The applied selection is returned.
func (s *Store) Select(ids []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = lo.Filter(lo.Uniq(ids), func(id string, _ int) bool {
		_, ok := s.bins[id]
		return ok
	})

	return append([]string{}, s.selection...)
}

// Selected resolves the selection against the current collection. Ids of bins that have
// since disappeared are skipped.
func (s *Store) Selected() []types.Bin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bins.Resolve(s.selection)
}

func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Contains(s.selection, id)
}

// Start refreshes once and then keeps polling every interval until the returned poller is
// stopped. Calling Start on a store that is already polling returns the running poller.
func (s *Store) Start(ctx context.Context) *Poller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poller != nil {
		return s.poller
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &Poller{
		store:  s,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.poller = p

	go p.run(ctx)

	return p
}

type Poller struct {
	store  *Store
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	log := logging.GetFromContext(ctx)

	ticker := time.NewTicker(p.store.interval)
	defer ticker.Stop()

	for {
		err := p.store.Refresh(ctx)
		if err != nil {
			switch {
			case errors.Is(err, ErrRefreshInProgress):
				log.Debug().Msg("refresh already in progress, skipping tick")
			case errors.Is(err, ErrResultDiscarded), ctx.Err() != nil:
				return
			default:
				log.Error().Err(err).Msg("failed to poll bins")
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop cancels polling. Results of a refresh that is still in flight are discarded.
func (p *Poller) Stop() {
	p.once.Do(func() {
		p.cancel()

		s := p.store
		s.mu.Lock()
		s.generation++
		if s.poller == p {
			s.poller = nil
		}
		s.mu.Unlock()
	})
}

// Done is closed when the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
