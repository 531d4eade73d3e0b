package detection

import (
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

// optionalTime is a timestamp that may be absent on a record.
type optionalTime struct {
	t  time.Time
	ok bool
}

func optional(t *time.Time) optionalTime {
	if t == nil || t.IsZero() {
		return optionalTime{}
	}
	return optionalTime{t: *t, ok: true}
}

// ticket is the normalized projection of a TicketRecord shared by the
// baseline calculator and the detectors.
type ticket struct {
	key        string
	created    optionalTime
	updated    optionalTime
	status     string
	assignee   string
	issueType  string
	unassigned bool
	terminal   bool
}

// Corpus is a read-only, normalized view of a ticket sequence. Detectors
// never modify it, so the same corpus can feed all of them.
type Corpus struct {
	tickets []ticket

	missingCreated int
	missingUpdated int
}

// NewCorpus normalizes records once. Terminal statuses come from rules.
func NewCorpus(records []domain.TicketRecord, rules Rules) *Corpus {
	c := &Corpus{tickets: make([]ticket, 0, len(records))}
	for _, r := range records {
		t := ticket{
			key:        r.Key,
			created:    optional(r.Created),
			updated:    optional(r.Updated),
			status:     r.Status,
			assignee:   r.AssigneeBucket(),
			issueType:  r.IssueType,
			unassigned: r.IsUnassigned(),
			terminal:   rules.IsTerminal(r.Status),
		}
		if !t.created.ok {
			c.missingCreated++
		}
		if !t.updated.ok {
			c.missingUpdated++
		}
		c.tickets = append(c.tickets, t)
	}
	return c
}

// Len returns the number of tickets in the corpus.
func (c *Corpus) Len() int {
	return len(c.tickets)
}

// MissingCreated returns how many records had no usable creation timestamp.
func (c *Corpus) MissingCreated() int {
	return c.missingCreated
}

// MissingUpdated returns how many records had no usable update timestamp.
func (c *Corpus) MissingUpdated() int {
	return c.missingUpdated
}

// sample returns at most n keys.
func sample(keys []string, n int) []string {
	if len(keys) > n {
		keys = keys[:n]
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}
