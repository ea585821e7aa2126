package dummydb

import (
	"context"
	"sort"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/academic"
)

type academicRepository struct {
	db *DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *DB) academic.Repository {
	return &academicRepository{db: db}
}

func (repo *academicRepository) CreateClass(_ context.Context, c academic.Class) (academic.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	maxID := 0
	for id := range repo.db.classes {
		if id > maxID {
			maxID = id
		}
	}
	c.ID = maxID + 1
	repo.db.classes[c.ID] = &c
	repo.db.save()
	return c, nil
}

func (repo *academicRepository) QueryClasses(_ context.Context, ordering []core.DBOrdering) ([]academic.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]academic.Class, 0, len(repo.db.classes))
	for _, c := range repo.db.classes {
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *academicRepository) GetClass(_ context.Context, id int) (academic.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.classes[id]; ok {
		return *c, nil
	}
	return academic.Class{}, academic.ErrClassNotFound
}

func (repo *academicRepository) UpdateClass(_ context.Context, c academic.Class) (academic.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[c.ID]; !ok {
		return academic.Class{}, academic.ErrClassNotFound
	}
	repo.db.classes[c.ID] = &c
	repo.db.save()
	return c, nil
}

func (repo *academicRepository) DeleteClassesByID(_ context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.classes, id)
	}
	repo.db.save()
	return nil
}

func (repo *academicRepository) CreateSubject(_ context.Context, s academic.Subject) (academic.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	maxID := 0
	for id := range repo.db.subjects {
		if id > maxID {
			maxID = id
		}
	}
	s.ID = maxID + 1
	repo.db.subjects[s.ID] = &s
	repo.db.save()
	return s, nil
}

func (repo *academicRepository) QuerySubjects(_ context.Context, ordering []core.DBOrdering) ([]academic.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]academic.Subject, 0, len(repo.db.subjects))
	for _, s := range repo.db.subjects {
		subjects = append(subjects, *s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *academicRepository) GetSubject(_ context.Context, id int) (academic.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.subjects[id]; ok {
		return *s, nil
	}
	return academic.Subject{}, academic.ErrSubjectNotFound
}

func (repo *academicRepository) UpdateSubject(_ context.Context, s academic.Subject) (academic.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.subjects[s.ID]; !ok {
		return academic.Subject{}, academic.ErrSubjectNotFound
	}
	repo.db.subjects[s.ID] = &s
	repo.db.save()
	return s, nil
}

func (repo *academicRepository) DeleteSubjectsByID(_ context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.subjects, id)
	}
	repo.db.save()
	return nil
}
