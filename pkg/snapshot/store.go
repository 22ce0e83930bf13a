package snapshot

import (
	"os"

	"github.com/pantheon-systems/repo-guardian/pkg/database"
	"github.com/pantheon-systems/repo-guardian/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	timestampFormat = "2006-01-02_150405"
	latestResource  = "latest"
)

type (

	// Store persists snapshots in the file database. Every run appends its
	// snapshot to the history, and a pointer record names the one that is
	// authoritative for the next run's diff. Writing the pointer is the
	// last step of Save, so a crash mid-save leaves the previous pointer
	// intact.
	Store struct {
		db  *database.Database
		log logrus.FieldLogger
	}

	pointer struct {
		Timestamp string `json:"timestamp"`
	}
)

func NewStore(db *database.Database, log logrus.FieldLogger) *Store {
	return &Store{
		db:  db,
		log: log,
	}
}

// LoadPrevious returns the snapshot the latest pointer names, or nil on the
// first-ever run. A pointer that names an unreadable snapshot is an error,
// never an empty snapshot: treating it as empty would misclassify every
// repository as new.
func (s *Store) LoadPrevious() (result *Snapshot, err error) {
	var exists bool
	exists, err = s.db.Exists(database.PointerTable, latestResource)
	if err != nil {
		err = errors.WithMessage(err, "unable to check for latest snapshot pointer")
		return
	}
	if !exists {
		s.log.Info("no previous snapshot, this is a bootstrap run")
		return
	}

	var ptr pointer
	if err = s.db.Read(database.PointerTable, latestResource, &ptr); err != nil {
		err = errors.Wrap(err, "unable to read latest snapshot pointer")
		return
	}

	result = &Snapshot{}
	if err = s.db.Read(database.SnapshotTable, ptr.Timestamp, result); err != nil {
		result = nil
		if os.IsNotExist(err) {
			err = errors.Errorv("latest pointer names a missing snapshot", ptr.Timestamp)
			return
		}
		err = errors.Wrapv(err, "unable to read previous snapshot", ptr.Timestamp)
		return
	}

	s.log.WithField("snapshot", ptr.Timestamp).Debug("loaded previous snapshot")

	return
}

// Save appends the snapshot to the history and flips the latest pointer to
// it. The pointer write is the commit point.
func (s *Store) Save(snap *Snapshot) (err error) {
	resource := snap.TakenAt.Format(timestampFormat)

	if err = s.db.Write(database.SnapshotTable, resource, snap); err != nil {
		err = errors.Wrapv(err, "unable to write snapshot", resource)
		return
	}

	if err = s.db.Write(database.PointerTable, latestResource, &pointer{Timestamp: resource}); err != nil {
		err = errors.Wrapv(err, "unable to write latest snapshot pointer", resource)
		return
	}

	s.log.WithField("snapshot", resource).Debug("saved snapshot")

	return
}

// History returns the serialized snapshots kept for audit.
func (s *Store) History() (result []string, err error) {
	result, err = s.db.ReadAll(database.SnapshotTable)
	if err != nil {
		err = errors.WithMessage(err, "unable to read snapshot history")
	}
	return
}
