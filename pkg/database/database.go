package database

import (
	"os"
	"path/filepath"
	"sync"

	scribble "github.com/nanobox-io/golang-scribble"
	"github.com/pantheon-systems/repo-guardian/pkg/errors"
)

const (
	SnapshotTable = "snapshot"
	PointerTable  = "pointer"
)

type Database struct {
	dir     string
	mutex   sync.Mutex
	mutexes map[string]*sync.Mutex
	driver  *scribble.Driver
}

func New(dir string) (database *Database, err error) {
	var driver *scribble.Driver
	driver, err = scribble.New(dir, nil)
	if err != nil {
		err = errors.Wrapv(err, "unable to create new database driver for directory", dir)
		return
	}

	database = &Database{
		dir:     dir,
		mutexes: make(map[string]*sync.Mutex),
		driver:  driver,
	}
	return
}

func (d *Database) TableExists(collection string) bool {
	dir := filepath.Join(d.dir, collection)
	_, err := os.Stat(dir)
	return !os.IsNotExist(err)
}

// Write marshals v into the collection under the resource name. The driver
// writes to a temporary file and renames it into place, so a reader never
// observes a half-written resource.
func (d *Database) Write(collection, resource string, v interface{}) (err error) {
	mutex := d.getOrCreateMutex(collection)
	mutex.Lock()
	defer mutex.Unlock()

	return d.driver.Write(collection, resource, v)
}

func (d *Database) Read(collection, resource string, v interface{}) (err error) {
	return d.driver.Read(collection, resource, v)
}

func (d *Database) Exists(collection, resource string) (result bool, err error) {
	if !d.TableExists(collection) {
		return
	}

	if readErr := d.driver.Read(collection, resource, nil); readErr != nil {
		if os.IsNotExist(readErr) {
			return
		}

		err = readErr
		return
	}

	result = true

	return
}

func (d *Database) ReadAll(collection string) (rows []string, err error) {
	if !d.TableExists(collection) {
		return
	}
	return d.driver.ReadAll(collection)
}

// getOrCreateMutex creates a new collection specific mutex any time a collection
// is being modified to avoid unsafe operations
func (d *Database) getOrCreateMutex(collection string) *sync.Mutex {

	d.mutex.Lock()
	defer d.mutex.Unlock()

	m, ok := d.mutexes[collection]

	// if the mutex doesn't exist make it
	if !ok {
		m = &sync.Mutex{}
		d.mutexes[collection] = m
	}

	return m
}
