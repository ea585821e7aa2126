// Package dummydb is an in-memory implementation of the core repositories,
// used in tests and for running the app without Postgres. It can persist its
// whole state to a JSON snapshot file between runs.
package dummydb

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"sync"

	"github.com/edumanage/backend/core/academic"
	"github.com/edumanage/backend/core/fee"
	"github.com/edumanage/backend/core/staff"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
)

type DB struct {
	sync.RWMutex

	snapshotPath string

	users         map[int]*user.User
	students      map[int]*student.Student
	staff         map[int]*staff.Staff
	feeStructures map[int]*fee.Structure
	classes       map[int]*academic.Class
	subjects      map[int]*academic.Subject
}

// Open builds an empty store. When snapshotPath is non-empty, a previously
// saved snapshot is loaded from it; a missing or unreadable file starts fresh.
func Open(snapshotPath string) (*DB, error) {
	db := &DB{
		snapshotPath:  snapshotPath,
		users:         make(map[int]*user.User),
		students:      make(map[int]*student.Student),
		staff:         make(map[int]*staff.Staff),
		feeStructures: make(map[int]*fee.Structure),
		classes:       make(map[int]*academic.Class),
		subjects:      make(map[int]*academic.Subject),
	}
	if snapshotPath != "" {
		db.loadSnapshot()
	}
	return db, nil
}

// snapshotUser re-exposes the password hash that user.User hides from JSON.
type snapshotUser struct {
	user.User
	PasswordHash []byte `json:"password_hash"`
}

type snapshot struct {
	Users         []snapshotUser     `json:"users"`
	Students      []student.Student  `json:"students"`
	Staff         []staff.Staff      `json:"staff"`
	FeeStructures []fee.Structure    `json:"fee_structures"`
	Classes       []academic.Class   `json:"classes"`
	Subjects      []academic.Subject `json:"subjects"`
}

func (db *DB) loadSnapshot() {
	data, err := ioutil.ReadFile(db.snapshotPath)
	if err != nil {
		return
	}
	var snap snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return // corrupt snapshot; start fresh
	}

	for i := range snap.Users {
		usr := snap.Users[i].User
		usr.PasswordHash = snap.Users[i].PasswordHash
		db.users[usr.ID] = &usr
	}
	for i := range snap.Students {
		db.students[snap.Students[i].ID] = &snap.Students[i]
	}
	for i := range snap.Staff {
		db.staff[snap.Staff[i].ID] = &snap.Staff[i]
	}
	for i := range snap.FeeStructures {
		db.feeStructures[snap.FeeStructures[i].ID] = &snap.FeeStructures[i]
	}
	for i := range snap.Classes {
		db.classes[snap.Classes[i].ID] = &snap.Classes[i]
	}
	for i := range snap.Subjects {
		db.subjects[snap.Subjects[i].ID] = &snap.Subjects[i]
	}
}

// save persists the current state to the snapshot file. Callers must hold the
// write lock. Persistence is best-effort; an unwritable path is ignored.
func (db *DB) save() {
	if db.snapshotPath == "" {
		return
	}

	var snap snapshot
	for _, usr := range db.users {
		snap.Users = append(snap.Users, snapshotUser{User: *usr, PasswordHash: usr.PasswordHash})
	}
	for _, st := range db.students {
		snap.Students = append(snap.Students, *st)
	}
	for _, st := range db.staff {
		snap.Staff = append(snap.Staff, *st)
	}
	for _, s := range db.feeStructures {
		snap.FeeStructures = append(snap.FeeStructures, *s)
	}
	for _, c := range db.classes {
		snap.Classes = append(snap.Classes, *c)
	}
	for _, s := range db.subjects {
		snap.Subjects = append(snap.Subjects, *s)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	_ = ioutil.WriteFile(db.snapshotPath, data, os.FileMode(0644))
}

func nextUserPK(table map[int]*user.User) int {
	maxID := 0
	for id := range table {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}
