package store

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mberror "github.com/manebot/manebot/foundation/core/error"
	"github.com/manebot/manebot/foundation/search"
)

func translate(t *testing.T, query string) (string, []interface{}) {
	t.Helper()
	parsed, err := search.Parse(query)
	require.NoError(t, err)

	tr := NewTranslator([]string{"name"}, map[string]ArgumentHandler{
		"tag": func(v string) (string, []interface{}, error) {
			return "tag = ?", []interface{}{v}, nil
		},
	})
	require.NoError(t, search.Walk(parsed.Root, tr))
	return tr.Where()
}

func TestTranslatorWhere(t *testing.T) {
	const like = `(name LIKE ? ESCAPE '\')`

	tests := []struct {
		query string
		where string
		args  []interface{}
	}{
		{"", "1=1", nil},
		{"a", "(" + like + ")", []interface{}{"%a%"}},
		{"a b", "(" + like + " AND " + like + ")", []interface{}{"%a%", "%b%"}},
		{"a ~b", "(" + like + " AND " + like + ")", []interface{}{"%a%", "%b%"}},
		{"a -b", "(" + like + " AND NOT " + like + ")", []interface{}{"%a%", "%b%"}},
		{"a +b", "(" + like + " OR " + like + ")", []interface{}{"%a%", "%b%"}},
		{
			"a -(b +c)",
			"(" + like + " AND NOT (" + like + " OR " + like + "))",
			[]interface{}{"%a%", "%b%", "%c%"},
		},
		{`"50%_off"`, "(" + like + ")", []interface{}{`%50\%\_off%`}},
		{"tag:x +a", "(tag = ? OR " + like + ")", []interface{}{"x", "%a%"}},
		{
			"a +b c",
			"((" + like + " OR " + like + ") AND " + like + ")",
			[]interface{}{"%a%", "%b%", "%c%"},
		},
		{
			"-a b +c",
			"((NOT " + like + " AND " + like + ") OR " + like + ")",
			[]interface{}{"%a%", "%b%", "%c%"},
		},
		{"() a", "(" + like + ")", []interface{}{"%a%"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			where, args := translate(t, tt.query)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestTranslatorUnknownArgument(t *testing.T) {
	parsed, err := search.Parse("nick:bob")
	require.NoError(t, err)

	err = search.Walk(parsed.Root, NewTranslator([]string{"name"}, nil))
	assert.True(t, mberror.HasCode(err, mberror.CodeInvalidFormat))
}

func seedUsers(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	users := []struct{ name, display string }{
		{"alice", "Alice"},
		{"alicia", ""},
		{"bob", "Bobby"},
		{"carol", "Carol"},
	}
	for _, u := range users {
		_, err := s.EnsureUser(ctx, u.name, u.display)
		require.NoError(t, err)
	}

	_, err := s.CreateGroup(ctx, "admins")
	require.NoError(t, err)
	require.NoError(t, s.AddMember(ctx, "admins", "alice"))
	require.NoError(t, s.AddMember(ctx, "admins", "bob"))

	_, err = s.Ban(ctx, "bob", "alice", "spam", nil)
	require.NoError(t, err)
}

func usernames(p *Page) []string {
	names := make([]string, 0, len(p.Users))
	for _, u := range p.Users {
		names = append(names, u.Username)
	}
	return names
}

func TestSearchUsers(t *testing.T) {
	s := openTestStore(t)
	seedUsers(t, s)
	ctx := context.Background()

	tests := []struct {
		query string
		want  []string
	}{
		{"ali", []string{"alice", "alicia"}},
		{"ALI", []string{"alice", "alicia"}},
		{"ali -alicia", []string{"alice"}},
		{"ali +bob", []string{"alice", "alicia", "bob"}},
		{`"bobby"`, []string{"bob"}},
		{"group:admins", []string{"alice", "bob"}},
		{"group:admins -banned:true", []string{"alice"}},
		{"banned:false", []string{"alice", "alicia", "carol"}},
		{"carol +(group:admins -ali)", []string{"bob", "carol"}},
		{"ali +bob -alice", []string{"alicia", "bob"}},
		{`"%"`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			parsed, err := search.Parse(tt.query)
			require.NoError(t, err)

			page, err := s.SearchUsers(ctx, parsed, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, usernames(page))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestSearchUsersPaging(t *testing.T) {
	s := openTestStore(t)
	seedUsers(t, s)
	ctx := context.Background()

	parsed, err := search.Parse("p:2")
	require.NoError(t, err)

	page, err := s.SearchUsers(ctx, parsed, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.Pages())
	assert.Equal(t, []string{"carol"}, usernames(page))

	parsed, err = search.Parse("p:" + strconv.Itoa(math.MaxInt))
	require.NoError(t, err)
	_, err = s.SearchUsers(ctx, parsed, 3)
	assert.True(t, mberror.HasCode(err, mberror.CodeInvalidFormat))

	parsed, err = search.Parse("banned:maybe")
	require.NoError(t, err)
	_, err = s.SearchUsers(ctx, parsed, 3)
	assert.True(t, mberror.HasCode(err, mberror.CodeInvalidFormat))
}
