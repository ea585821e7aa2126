package sqlxrepos

import (
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/edumanage/backend/core"
)

func nullInt(p *int) null.Int {
	if p == nil {
		return null.Int{}
	}
	return null.IntFrom(*p)
}

func intPtr(n null.Int) *int {
	if !n.Valid {
		return nil
	}
	v := n.Int
	return &v
}

// orderBy renders an ORDER BY clause, falling back to the given default field
// ascending. Field names come from code, never from user input.
func orderBy(ordering []core.DBOrdering, defaultField string) string {
	if len(ordering) == 0 {
		return ` ORDER BY ` + defaultField
	}
	parts := make([]string, 0, len(ordering))
	for _, o := range ordering {
		parts = append(parts, o.String())
	}
	return ` ORDER BY ` + strings.Join(parts, `, `)
}
