package dummydb

import (
	"time"

	"github.com/pkg/errors"

	"github.com/edumanage/backend/core/academic"
	"github.com/edumanage/backend/core/fee"
	"github.com/edumanage/backend/core/staff"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
)

type seedUser struct {
	name, username, email, role, loginCode, password string
	class, assignedClass, subject                    string
	parentUsername                                   string
}

var seedUsers = []seedUser{
	{name: "Admin User", username: "admin", email: "admin@edumanage.local", role: user.RoleAdmin,
		loginCode: "ADMSEED01", password: "admin123"},
	{name: "John Teacher", username: "teacher1", email: "teacher1@edumanage.local", role: user.RoleTeacher,
		loginCode: "TEASEED01", password: "teacher123", subject: "Mathematics", assignedClass: "Class 10"},
	{name: "Robert Parent", username: "parent1", email: "parent1@edumanage.local", role: user.RoleParent,
		loginCode: "PARSEED01", password: "parent123"},
	{name: "Alex Johnson", username: "student1", email: "student1@edumanage.local", role: user.RoleStudent,
		loginCode: "STUSEED01", password: "student123", class: "Class 10", parentUsername: "parent1"},
	{name: "Emma Davis", username: "student2", email: "student2@edumanage.local", role: user.RoleStudent,
		loginCode: "STUSEED02", password: "student123", class: "Class 9", parentUsername: "parent1"},
}

// Seed populates an empty store with a small sample dataset: an admin, a
// teacher with their staff record, a parent and two students with their
// student records, fee structures for both classes, and reference data.
// A non-empty store is left untouched.
func Seed(db *DB) error {
	db.Lock()
	defer db.Unlock()

	if len(db.users) > 0 {
		return nil
	}
	now := time.Now().UTC()

	byUsername := make(map[string]*user.User)
	for _, su := range seedUsers {
		usr := user.User{
			ID:            nextUserPK(db.users),
			Name:          su.name,
			Username:      su.username,
			Email:         su.email,
			Role:          su.role,
			LoginCode:     su.loginCode,
			Class:         su.class,
			AssignedClass: su.assignedClass,
			Subject:       su.subject,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		usr.SetActive(true)
		if err := usr.SetPassword(su.password); err != nil {
			return errors.Wrapf(err, "seeding user %s", su.username)
		}
		if su.parentUsername != "" {
			if parent, ok := byUsername[su.parentUsername]; ok {
				usr.ParentID = &parent.ID
			}
		}
		db.users[usr.ID] = &usr
		byUsername[usr.Username] = &usr

		switch usr.Role {
		case user.RoleStudent:
			st := student.NewFromUser(usr)
			db.students[st.ID] = &st
		case user.RoleTeacher:
			st := staff.NewFromUser(usr)
			db.staff[st.ID] = &st
		}
	}

	structures := []fee.Structure{
		{ID: 1, ClassName: "Class 10", Amount: 5000, Description: "Monthly Tuition Fee", CreatedAt: now, UpdatedAt: now},
		{ID: 2, ClassName: "Class 9", Amount: 4500, Description: "Monthly Tuition Fee", CreatedAt: now, UpdatedAt: now},
	}
	for i := range structures {
		db.feeStructures[structures[i].ID] = &structures[i]
	}

	classes := []academic.Class{
		{ID: 1, Name: "Class 9", Section: "A", GradeLevel: 9, AcademicYear: "2026-2027", CreatedAt: now, UpdatedAt: now},
		{ID: 2, Name: "Class 10", Section: "A", GradeLevel: 10, AcademicYear: "2026-2027", CreatedAt: now, UpdatedAt: now},
	}
	for i := range classes {
		db.classes[classes[i].ID] = &classes[i]
	}

	subjects := []academic.Subject{
		{ID: 1, Name: "Mathematics", Code: "MATH101", Credits: 4, CreatedAt: now, UpdatedAt: now},
		{ID: 2, Name: "Science", Code: "SCI101", Credits: 4, CreatedAt: now, UpdatedAt: now},
		{ID: 3, Name: "English", Code: "ENG101", Credits: 3, CreatedAt: now, UpdatedAt: now},
	}
	for i := range subjects {
		db.subjects[subjects[i].ID] = &subjects[i]
	}

	db.save()
	return nil
}
