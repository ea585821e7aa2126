package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.students))
	for _, st := range repo.db.students {
		students = append(students, *st)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.students[st.ID] = &st
	repo.db.save()
	return st, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := repo.query()
	if filter == nil || filter.IsEmpty() {
		return students, nil
	}
	filter.Clean()

	if filter.Search != "" {
		var filtered []student.Student
		search := strings.ToLower(filter.Search)
		for _, st := range students {
			if strings.Contains(strings.ToLower(st.Name), search) ||
				strings.Contains(strings.ToLower(st.RollNumber), search) {
				filtered = append(filtered, st)
			}
		}
		students = filtered
	}
	if students != nil && filter.Class != "" {
		var filtered []student.Student
		for _, st := range students {
			if st.Class == filter.Class {
				filtered = append(filtered, st)
			}
		}
		students = filtered
	}

	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id int) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.students[id]; ok {
		return *st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origSt, ok := repo.db.students[st.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	origSt.Name = st.Name
	origSt.Class = st.Class
	origSt.ParentID = st.ParentID
	origSt.UpdatedAt = st.UpdatedAt

	repo.db.save()
	return *origSt, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.students, id)
	}
	repo.db.save()
	return nil
}

func (repo *studentRepository) AppendAttendance(_ context.Context, id int, entry student.AttendanceEntry) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	st, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	st.Attendance = append(st.Attendance, entry)
	st.UpdatedAt = time.Now().UTC()
	repo.db.save()
	return nil
}

func (repo *studentRepository) SetGrade(_ context.Context, id int, subject, grade string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	st, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	if st.Grades == nil {
		st.Grades = map[string]string{}
	}
	st.Grades[subject] = grade
	st.UpdatedAt = time.Now().UTC()
	repo.db.save()
	return nil
}

func (repo *studentRepository) AppendLedgerEntry(_ context.Context, id int, entry student.LedgerEntry) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	st, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	if entry.ID == 0 {
		maxID := 0
		for _, e := range st.Fees.History {
			if e.ID > maxID {
				maxID = e.ID
			}
		}
		entry.ID = maxID + 1
	}
	st.Fees.History = append(st.Fees.History, entry)
	st.Fees.Balance += entry.Delta()
	st.UpdatedAt = time.Now().UTC()
	repo.db.save()
	return nil
}

func (repo *studentRepository) QueryClasses(_ context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	seen := make(map[string]bool)
	var classes []string
	for _, st := range repo.query() {
		if st.Class != "" && !seen[st.Class] {
			seen[st.Class] = true
			classes = append(classes, st.Class)
		}
	}
	sort.Strings(classes)
	return classes, nil
}
