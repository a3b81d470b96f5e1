// Package dummydb is an in-memory database used in tests.
package dummydb

import (
	"fmt"
	"sync"

	"github.com/bataanhss/websystem/core/announcement"
	"github.com/bataanhss/websystem/core/attendance"
	"github.com/bataanhss/websystem/core/delivery"
	"github.com/bataanhss/websystem/core/distribution"
	"github.com/bataanhss/websystem/core/event"
	"github.com/bataanhss/websystem/core/filesub"
	"github.com/bataanhss/websystem/core/push"
	"github.com/bataanhss/websystem/core/school"
	"github.com/bataanhss/websystem/core/user"
)

type (
	DB struct {
		sync.RWMutex
		pkCount int

		users         map[string]*user.User
		batches       map[distribution.Kind]map[string]*distribution.Batch
		rows          map[distribution.Kind]map[string]*distribution.Row
		attendance    map[string]*attendance.Record
		deliveries    map[string]*delivery.Record
		events        map[string]*event.Event
		announcements map[string]*announcement.Announcement
		pushSubs      map[string]*push.Subscription
		fileSubs      map[string]*filesub.Submission
		beneficiaries map[string]*school.Beneficiary
		schoolDetails map[string]*school.Details
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:         make(map[string]*user.User),
		batches:       make(map[distribution.Kind]map[string]*distribution.Batch),
		rows:          make(map[distribution.Kind]map[string]*distribution.Row),
		attendance:    make(map[string]*attendance.Record),
		deliveries:    make(map[string]*delivery.Record),
		events:        make(map[string]*event.Event),
		announcements: make(map[string]*announcement.Announcement),
		pushSubs:      make(map[string]*push.Subscription),
		fileSubs:      make(map[string]*filesub.Submission),
		beneficiaries: make(map[string]*school.Beneficiary),
		schoolDetails: make(map[string]*school.Details),
	}
	for _, kind := range distribution.AllKinds {
		db.batches[kind] = make(map[string]*distribution.Batch)
		db.rows[kind] = make(map[string]*distribution.Row)
	}
	return db, nil
}

// nextID mints a hex ID in stored-document format. Callers must hold the
// write lock.
func (db *DB) nextID() string {
	db.pkCount++
	return fmt.Sprintf("%024x", db.pkCount)
}
