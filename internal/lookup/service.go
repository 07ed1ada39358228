package lookup

import (
	"context"
	"log/slog"
	"time"

	"github.com/safebite/safebite/internal/cache"
	"github.com/safebite/safebite/internal/model"
)

// Finder fetches a product by normalized barcode.
type Finder interface {
	Lookup(ctx context.Context, barcode string) (*model.Product, error)
}

// Enqueuer defers a write for later replay.
type Enqueuer interface {
	Enqueue(ctx context.Context, kind model.OperationKind, payload any) (model.QueuedOperation, error)
}

// Service resolves barcodes through the product cache, falling back to the
// external database and filling the cache on the way out.
type Service struct {
	finder Finder
	cache  cache.Store[model.Product]
	queue  Enqueuer
	logger *slog.Logger
	ttl    time.Duration
}

// NewService wires a lookup service.
func NewService(finder Finder, store cache.Store[model.Product], q Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		finder: finder,
		cache:  store,
		queue:  q,
		logger: logger,
		ttl:    cache.DefaultTTL,
	}
}

// Find returns the product for a raw scanned code. Cache errors degrade to a
// forced miss; a failed cache fill is deferred onto the offline queue rather
// than failing the scan.
func (s *Service) Find(ctx context.Context, rawBarcode string) (*model.Product, error) {
	barcode, err := model.NormalizeBarcode(rawBarcode)
	if err != nil {
		return nil, err
	}

	key := cache.ProductKey(barcode)
	if cached, ok, cacheErr := s.cache.Get(ctx, key); cacheErr != nil {
		s.logger.Warn("product cache read failed, treating as miss", "barcode", barcode, "error", cacheErr)
	} else if ok {
		cached.Source = model.SourceCache
		return &cached, nil
	}

	product, err := s.finder.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	if putErr := s.cache.Put(ctx, key, *product, s.ttl); putErr != nil {
		s.logger.Warn("product cache write failed, deferring", "barcode", barcode, "error", putErr)
		if s.queue != nil {
			if _, qErr := s.queue.Enqueue(ctx, model.OpCacheProduct, model.CacheProductPayload{Product: *product}); qErr != nil {
				s.logger.Error("failed to defer product cache fill", "barcode", barcode, "error", qErr)
			}
		}
	}

	return product, nil
}
