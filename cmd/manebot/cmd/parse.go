package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/manebot/manebot/foundation/search"
)

var parseCmd = &cobra.Command{
	Use:   "parse <query>",
	Short: "Shows the clause tree of a search query",
	Long: `Parses a search query and prints its clause tree, the canonical
form and the requested page.

Elements are prefixed with an operator: ~ include, - exclude, + merge.
Parentheses group clauses, double quotes make string literals and a
trailing page:N or p:N selects a result page.

Example:
  manebot parse 'alice -"bob smith" +(carol ~dave) page:2'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	parsed, err := search.Parse(query)
	if err != nil {
		printError("parsing query", err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, HeaderStyle.Render("Query"))
	fmt.Fprintln(out, renderClause(parsed.Root, "root"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, LabelStyle.Render("Canonical: ")+ValueStyle.Render(parsed.String()))
	fmt.Fprintln(out, LabelStyle.Render("Page:      ")+ValueStyle.Render(strconv.Itoa(parsed.Page)))
	return nil
}

// renderClause renders a clause and its children as a tree
func renderClause(clause *search.Clause, name string) *tree.Tree {
	t := tree.Root(styleOperator(clause.Op, name+" clause")).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(EnumeratorStyle)

	for _, child := range clause.Children {
		switch p := child.(type) {
		case *search.Clause:
			t.Child(renderClause(p, "nested"))
		case *search.StringLiteral:
			t.Child(styleOperator(p.Op, "string "+strconv.Quote(p.Text)))
		case *search.BareToken:
			t.Child(styleOperator(p.Op, "token "+p.Text))
		}
	}
	return t
}

func styleOperator(op search.Operator, text string) string {
	style, ok := operatorStyles[op.String()]
	if !ok {
		return text
	}
	return style.Render(text) + " " + LabelStyle.Render("["+op.String()+"]")
}
