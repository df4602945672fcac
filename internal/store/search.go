package store

import (
	"context"
	"math"
	"strconv"
	"strings"

	mberror "github.com/manebot/manebot/foundation/core/error"
	"github.com/manebot/manebot/foundation/search"
)

// ArgumentHandler turns the value of a "key:value" token into a SQL
// condition and its bind arguments
type ArgumentHandler func(value string) (string, []interface{}, error)

// Translator is a search.Handler that renders a clause tree as a SQL
// condition. Strings and plain tokens match any of the text columns with
// LIKE; "key:value" tokens go to the argument handler registered for key.
type Translator struct {
	columns   []string
	arguments map[string]ArgumentHandler

	stack []*sqlFrame
	where string
	args  []interface{}
}

// sqlFrame accumulates one clause left to right: each element combines
// with everything before it, so "a +b c" is ((a OR b) AND c)
type sqlFrame struct {
	op    search.Operator
	cond  string
	terms int
	args  []interface{}
}

var _ search.Handler = (*Translator)(nil)

// NewTranslator creates a translator over the given text columns
func NewTranslator(columns []string, arguments map[string]ArgumentHandler) *Translator {
	return &Translator{columns: columns, arguments: arguments}
}

// Where returns the translated condition. An empty query matches every row.
func (t *Translator) Where() (string, []interface{}) {
	if t.where == "" {
		return "1=1", nil
	}
	return t.where, t.args
}

// Push implements search.Handler
func (t *Translator) Push(op search.Operator) error {
	t.stack = append(t.stack, &sqlFrame{op: op})
	return nil
}

// Pop implements search.Handler
func (t *Translator) Pop() error {
	if len(t.stack) == 0 {
		return mberror.New("unbalanced clause").WithCode(mberror.CodeInternal)
	}
	frame := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]

	if frame.terms == 0 {
		return nil
	}
	cond := "(" + frame.cond + ")"

	if len(t.stack) == 0 {
		t.where, t.args = cond, frame.args
		return nil
	}
	t.add(frame.op, cond, frame.args...)
	return nil
}

// String implements search.Handler
func (t *Translator) String(op search.Operator, text string) error {
	cond, args := t.like(text)
	t.add(op, cond, args...)
	return nil
}

// Token implements search.Handler
func (t *Translator) Token(op search.Operator, text string) error {
	if key, value, ok := strings.Cut(text, ":"); ok {
		handler, found := t.arguments[strings.ToLower(key)]
		if !found {
			return mberror.Newf("Unknown search argument: %s.", key).
				WithCode(mberror.CodeInvalidFormat).
				WithDetail("argument", key)
		}
		cond, args, err := handler(value)
		if err != nil {
			return err
		}
		t.add(op, cond, args...)
		return nil
	}

	cond, args := t.like(text)
	t.add(op, cond, args...)
	return nil
}

func (t *Translator) add(op search.Operator, cond string, args ...interface{}) {
	frame := t.stack[len(t.stack)-1]

	prev := frame.cond
	if frame.terms > 1 {
		prev = "(" + prev + ")"
	}

	switch {
	case frame.terms == 0 && op == search.Exclude:
		frame.cond = "NOT " + cond
	case frame.terms == 0:
		frame.cond = cond
	case op == search.Exclude:
		frame.cond = prev + " AND NOT " + cond
	case op == search.Merge:
		frame.cond = prev + " OR " + cond
	default:
		frame.cond = prev + " AND " + cond
	}

	frame.terms++
	frame.args = append(frame.args, args...)
}

func (t *Translator) like(text string) (string, []interface{}) {
	pattern := "%" + escapeLike(text) + "%"
	conds := make([]string, len(t.columns))
	args := make([]interface{}, len(t.columns))
	for i, col := range t.columns {
		conds[i] = col + ` LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SearchUsers returns one page of the users matching query. The page
// number comes from the query's page directive.
func (s *Store) SearchUsers(ctx context.Context, query *search.Search, pageSize int) (*Page, error) {
	if pageSize < 1 {
		pageSize = 10
	}

	translator := NewTranslator(
		[]string{"u.username", "u.display_name"},
		map[string]ArgumentHandler{
			"group":  groupArgument,
			"banned": s.bannedArgument,
		},
	)
	if err := search.Walk(query.Root, translator); err != nil {
		return nil, err
	}
	where, args := translator.Where()

	page := &Page{Number: query.Page, Size: pageSize}
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Number > math.MaxInt/pageSize {
		return nil, mberror.Newf("invalid page: %d", page.Number).
			WithCode(mberror.CodeInvalidFormat).
			WithOperation("store.SearchUsers")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u WHERE `+where, args...).Scan(&page.Total); err != nil {
		return nil, dbError(err, "store.SearchUsers")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users u
		WHERE `+where+`
		ORDER BY u.username COLLATE NOCASE
		LIMIT ? OFFSET ?
	`, append(args, pageSize, (page.Number-1)*pageSize)...)
	if err != nil {
		return nil, dbError(err, "store.SearchUsers")
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, dbError(err, "store.SearchUsers")
		}
		page.Users = append(page.Users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "store.SearchUsers")
	}
	return page, nil
}

func groupArgument(value string) (string, []interface{}, error) {
	return `u.id IN (
		SELECT m.user_id FROM group_members m
		JOIN user_groups g ON g.id = m.group_id
		WHERE g.name = ?)`, []interface{}{value}, nil
}

func (s *Store) bannedArgument(value string) (string, []interface{}, error) {
	banned, err := strconv.ParseBool(value)
	if err != nil {
		return "", nil, mberror.Wrap(err, "banned: expects true or false").
			WithCode(mberror.CodeInvalidFormat).
			WithDetail("value", value)
	}

	cond := `EXISTS (SELECT 1 FROM bans b WHERE b.user_id = u.id AND ` + activeBan + `)`
	if !banned {
		cond = "NOT " + cond
	}
	return cond, []interface{}{s.now()}, nil
}
