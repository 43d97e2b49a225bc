package billing

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/xpert786/SurePoint/internal/pkg/cache"
)

// UserIndex maps provider references (checkout session ids, customer ids)
// back to user ids. Entries are written when a checkout session is created,
// turning the fuzzy recent-session scan into an exact lookup while the entry
// is warm. Best-effort: a cold or unavailable index only degrades fallback
// attribution, never correctness.
type UserIndex interface {
	RememberSession(sessionID string, userID uint)
	RememberCustomer(customerRef string, userID uint)
	LookupSession(sessionID string) (uint, bool)
	LookupCustomer(customerRef string) (uint, bool)
}

const userIndexTTL = 24 * time.Hour

type cacheUserIndex struct{}

// NewCacheUserIndex returns the Redis-backed user index.
func NewCacheUserIndex() UserIndex {
	return cacheUserIndex{}
}

func (cacheUserIndex) RememberSession(sessionID string, userID uint) {
	if sessionID == "" || userID == 0 {
		return
	}
	if err := cache.Set("billing:session:"+sessionID, strconv.FormatUint(uint64(userID), 10), userIndexTTL); err != nil {
		log.Warnf("[Billing] failed to index session %s: %v", sessionID, err)
	}
}

func (cacheUserIndex) RememberCustomer(customerRef string, userID uint) {
	if customerRef == "" || userID == 0 {
		return
	}
	if err := cache.Set("billing:customer:"+customerRef, strconv.FormatUint(uint64(userID), 10), userIndexTTL); err != nil {
		log.Warnf("[Billing] failed to index customer %s: %v", customerRef, err)
	}
}

func (cacheUserIndex) LookupSession(sessionID string) (uint, bool) {
	if sessionID == "" {
		return 0, false
	}
	id, err := cache.GetUint("billing:session:" + sessionID)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func (cacheUserIndex) LookupCustomer(customerRef string) (uint, bool) {
	if customerRef == "" {
		return 0, false
	}
	id, err := cache.GetUint("billing:customer:" + customerRef)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
