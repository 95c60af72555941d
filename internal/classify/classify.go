// Package classify sorts column names into role buckets by keyword containment.
package classify

import "strings"

// Role names a bucket a column can fall into.
type Role string

const (
	RoleRegion   Role = "region"
	RoleCategory Role = "category"
	RoleOther    Role = "other"
)

// Rule maps a role to the keywords that select it.
type Rule struct {
	Role     Role
	Keywords []string
}

// DefaultRegionKeywords match administrative-unit columns.
var DefaultRegionKeywords = []string{
	"region", "country", "nation", "state", "province", "city", "district", "area",
	"지역", "시도", "시군구", "국가", "나라", "행정",
}

// DefaultCategoryKeywords match category or subject columns.
var DefaultCategoryKeywords = []string{
	"category", "subject", "type", "kind", "class", "genre",
	"과목", "분류", "유형", "종류", "업종",
}

// DefaultRules checks region keywords before category keywords.
func DefaultRules() []Rule {
	return []Rule{
		{Role: RoleRegion, Keywords: append([]string(nil), DefaultRegionKeywords...)},
		{Role: RoleCategory, Keywords: append([]string(nil), DefaultCategoryKeywords...)},
	}
}

// Contains reports whether name contains any keyword, ignoring case.
// Blank keywords never match.
func Contains(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Match returns every column whose name contains any keyword, in column order.
func Match(columns []string, keywords []string) []string {
	var out []string
	for _, c := range columns {
		if Contains(c, keywords) {
			out = append(out, c)
		}
	}
	return out
}

// Buckets holds the classification of a column set. Every column appears in
// exactly one bucket.
type Buckets struct {
	roles  []Role
	byRole map[Role][]string
	role   map[string]Role
}

// Classify assigns each column to the first rule whose keywords it contains,
// or to RoleOther. Bucket contents keep column order.
func Classify(columns []string, rules []Rule) Buckets {
	b := Buckets{byRole: map[Role][]string{}, role: map[string]Role{}}
	for _, r := range rules {
		b.addRole(r.Role)
	}
	b.addRole(RoleOther)
	for _, c := range columns {
		role := RoleOther
		for _, r := range rules {
			if Contains(c, r.Keywords) {
				role = r.Role
				break
			}
		}
		b.byRole[role] = append(b.byRole[role], c)
		b.role[c] = role
	}
	return b
}

func (b *Buckets) addRole(r Role) {
	for _, have := range b.roles {
		if have == r {
			return
		}
	}
	b.roles = append(b.roles, r)
}

// Roles lists the bucket names in rule order, RoleOther last.
func (b Buckets) Roles() []Role { return append([]Role(nil), b.roles...) }

// Columns returns the columns assigned to r.
func (b Buckets) Columns(r Role) []string { return append([]string(nil), b.byRole[r]...) }

// First returns the first column assigned to r.
func (b Buckets) First(r Role) (string, bool) {
	cols := b.byRole[r]
	if len(cols) == 0 {
		return "", false
	}
	return cols[0], true
}

// RoleOf returns the bucket of column c.
func (b Buckets) RoleOf(c string) (Role, bool) {
	r, ok := b.role[c]
	return r, ok
}

// Matched reports whether any column landed outside RoleOther.
func (b Buckets) Matched() bool {
	for r, cols := range b.byRole {
		if r != RoleOther && len(cols) > 0 {
			return true
		}
	}
	return false
}
