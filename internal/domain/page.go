package domain

// Cursor is an opaque continuation token for a paginated resource.
// The zero value means there are no more pages.
type Cursor string

// NoMorePages is the terminal cursor.
const NoMorePages Cursor = ""

func (c Cursor) Done() bool {
	return c == NoMorePages
}

// Page is one fetched page of list entries.
type Page struct {
	Entries []ListEntry
	Next    Cursor
	Total   int
}
