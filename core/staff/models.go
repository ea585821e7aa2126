package staff

import (
	"time"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/user"
)

// Staff is the denormalized companion record for teacher (and other staff)
// users. Its ID always equals the owning user's ID.
type Staff struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	Class      string    `json:"class"` // assigned class
	Position   string    `json:"position"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

const PositionTeacher = "Teacher"

// NewFromUser derives the companion record for a freshly registered teacher
// user.
func NewFromUser(usr user.User) Staff {
	now := time.Now().UTC()
	return Staff{
		ID:         usr.ID,
		Name:       usr.Name,
		Subject:    usr.Subject,
		Class:      usr.AssignedClass,
		Position:   PositionTeacher,
		Department: usr.Subject,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

type QueryFilter struct {
	Search     string `query:"search"`
	Position   string `query:"position"`
	Department string `query:"department"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Position == "" && qf.Department == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Position = core.CleanString(qf.Position)
	qf.Department = core.CleanString(qf.Department)
}

// UpdateStaff defines what information may be provided to modify an existing
// Staff record.
type UpdateStaff struct {
	Name       string `json:"name"`
	Subject    string `json:"subject"`
	Class      string `json:"class"`
	Position   string `json:"position"`
	Department string `json:"department"`
}
