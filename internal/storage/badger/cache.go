package badger

import (
	"errors"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/coquo/internal/interfaces"
)

const cachePrefix = "pagecache:"

// PageCache stores fetched documents keyed by URL in the raw Badger keyspace
// under a dedicated prefix, each entry expiring after the configured TTL.
type PageCache struct {
	db     *Store
	ttl    time.Duration
	logger arbor.ILogger
}

// NewPageCache creates a page cache on top of an open store
func NewPageCache(db *Store, ttl time.Duration, logger arbor.ILogger) interfaces.PageCache {
	return &PageCache{
		db:     db,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached document for a URL, or false on a miss
func (c *PageCache) Get(url string) ([]byte, bool) {
	var body []byte
	err := c.db.DB().View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(cachePrefix + url))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			c.logger.Warn().Err(err).Str("url", url).Msg("Page cache read failed")
		}
		return nil, false
	}
	return body, true
}

// Set stores a document under its URL with the cache TTL
func (c *PageCache) Set(url string, body []byte) error {
	return c.db.DB().Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry([]byte(cachePrefix+url), body)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}
