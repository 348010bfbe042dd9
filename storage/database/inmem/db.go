package inmemdb

import (
	"sync"
	"time"

	"github.com/trezcool/swimschool/core/attendance"
	"github.com/trezcool/swimschool/core/chat"
	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/core/level"
	"github.com/trezcool/swimschool/core/passwordreset"
	"github.com/trezcool/swimschool/core/profile"
	"github.com/trezcool/swimschool/core/schedule"
	"github.com/trezcool/swimschool/core/user"
)

// DB keeps every table in memory. It backs the API tests and local runs without PostgreSQL.
type DB struct {
	mu sync.RWMutex

	seq         map[string]int
	users       map[int]*user.User
	levels      map[int]level.Level
	userLevels  []level.UserLevel
	schedules   []schedule.Schedule
	attendances []attendance.Attendance
	resetTokens map[string]passwordreset.Token
	revoked     map[string]time.Time
	contents    map[int]*content.Content
	profiles    map[int]*profile.Entry
	messages    []chat.Message

	locksMu   sync.Mutex
	userLocks map[int]*sync.Mutex
}

var levelSeeds = []string{"Foca", "Tortuga", "Mantarraya", "Pez Vela", "Tiburón"}

// Open returns an empty DB holding the same swimming level catalogue as the migrations.
func Open() *DB {
	db := &DB{
		seq:         make(map[string]int),
		users:       make(map[int]*user.User),
		levels:      make(map[int]level.Level),
		resetTokens: make(map[string]passwordreset.Token),
		revoked:     make(map[string]time.Time),
		contents:    make(map[int]*content.Content),
		profiles:    make(map[int]*profile.Entry),
		userLocks:   make(map[int]*sync.Mutex),
	}
	now := time.Now().UTC()
	for _, name := range levelSeeds {
		id := db.nextID("levels")
		db.levels[id] = level.Level{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	}
	return db
}

// nextID must be called with mu held for writing.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

func (db *DB) userExists(id int) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	usr, ok := db.users[id]
	return ok && usr.DeletedAt == nil
}

// withUserLock serializes fn with every other call for the same user, like SELECT ... FOR UPDATE.
func (db *DB) withUserLock(userID int, fn func() error) error {
	if !db.userExists(userID) {
		return user.ErrNotFound
	}

	db.locksMu.Lock()
	lock, ok := db.userLocks[userID]
	if !ok {
		lock = new(sync.Mutex)
		db.userLocks[userID] = lock
	}
	db.locksMu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn()
}
