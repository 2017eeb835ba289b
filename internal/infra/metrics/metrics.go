package metrics

import "sync/atomic"

type Counters struct {
	NotificationsReceived uint64 `json:"notifications_received"`
	PaymentsInserted      uint64 `json:"payments_inserted"`
	PaymentsDuplicated    uint64 `json:"payments_duplicated"`
	PaymentsDiscarded     uint64 `json:"payments_discarded"`
	FetchFailures         uint64 `json:"fetch_failures"`
	AnnouncementsSpoken   uint64 `json:"announcements_spoken"`
	AnnouncementsFailed   uint64 `json:"announcements_failed"`
}

func (c *Counters) IncReceived() {
	atomic.AddUint64(&c.NotificationsReceived, 1)
}

func (c *Counters) IncInserted() {
	atomic.AddUint64(&c.PaymentsInserted, 1)
}

func (c *Counters) IncDuplicated() {
	atomic.AddUint64(&c.PaymentsDuplicated, 1)
}

func (c *Counters) IncDiscarded() {
	atomic.AddUint64(&c.PaymentsDiscarded, 1)
}

func (c *Counters) IncFetchFailed() {
	atomic.AddUint64(&c.FetchFailures, 1)
}

func (c *Counters) IncSpoken() {
	atomic.AddUint64(&c.AnnouncementsSpoken, 1)
}

func (c *Counters) IncSpeechFailed() {
	atomic.AddUint64(&c.AnnouncementsFailed, 1)
}

// Snapshot returns a consistent-per-field copy safe to serialize.
func (c *Counters) Snapshot() Counters {
	return Counters{
		NotificationsReceived: atomic.LoadUint64(&c.NotificationsReceived),
		PaymentsInserted:      atomic.LoadUint64(&c.PaymentsInserted),
		PaymentsDuplicated:    atomic.LoadUint64(&c.PaymentsDuplicated),
		PaymentsDiscarded:     atomic.LoadUint64(&c.PaymentsDiscarded),
		FetchFailures:         atomic.LoadUint64(&c.FetchFailures),
		AnnouncementsSpoken:   atomic.LoadUint64(&c.AnnouncementsSpoken),
		AnnouncementsFailed:   atomic.LoadUint64(&c.AnnouncementsFailed),
	}
}
