// File: doc.go
// Title: Search Query Package Documentation
// Description: Lexes free-text search queries into nested clause trees.
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial query lexer

/*
Package search turns a free-text query into a tree of predicates.

A query is a sequence of elements separated by whitespace:

  - "quoted strings", where a backslash escapes the next character
  - bare tokens, ended by whitespace or a closing parenthesis
  - ( nested clauses ) holding elements of their own

Every element after the first in a clause may carry an operator prefix:
~ (include), - (exclude) or + (merge). The first element of a clause carries
Unspecified; later elements without a prefix carry DefaultOperator.

A trailing bare token of the form page:<n> or p:<n> in the deepest last
clause is a pagination directive. It is removed from the tree and stored in
Search.Page.

Example:

	s, err := search.Parse(`alice -"bob smith" (group:admin +group:mods) page:2`)
	if err != nil {
	    return err
	}
	// s.Page == 2, s.Root holds four children

Trees are consumed through the Handler visitor driven by Walk.
*/
package search
