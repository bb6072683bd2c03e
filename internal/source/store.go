package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store is an in-memory dataset with bulk, by-key accessors shaped as
// batchloader batch functions. Every bulk read is appended to a query log so
// callers can observe exactly how many backend round-trips a resolution
// took.
type Store struct {
	mu      sync.Mutex
	authors map[int]Author
	books   map[int]Book
	reviews map[int][]Review // keyed by book ID
	queries []Query
}

type Author struct {
	ID   int
	Name string
}

type Book struct {
	ID       int
	Title    string
	AuthorID int
}

type Review struct {
	ID         int
	BookID     int
	ReviewerID int
	Stars      int
	Comment    string
}

// Query records one bulk read against the store.
type Query struct {
	Table string
	Keys  []int
}

func (q Query) String() string {
	return fmt.Sprintf("SELECT ... FROM %s WHERE id IN %v", q.Table, q.Keys)
}

// NewStore returns a Store seeded with a small publishing dataset. Two books
// share an author and one reviewer is also an author, which is what makes
// deduplication and result caching visible in the query log.
func NewStore() *Store {
	s := &Store{
		authors: make(map[int]Author),
		books:   make(map[int]Book),
		reviews: make(map[int][]Review),
	}

	for _, a := range []Author{
		{ID: 1, Name: "Ada Lovette"},
		{ID: 2, Name: "Brandon Mills"},
		{ID: 3, Name: "Carol Nguyen"},
	} {
		s.authors[a.ID] = a
	}
	for _, b := range []Book{
		{ID: 1, Title: "The Silent Harbor", AuthorID: 1},
		{ID: 2, Title: "Glass Meridian", AuthorID: 2},
		{ID: 3, Title: "Northern Circuit", AuthorID: 1},
	} {
		s.books[b.ID] = b
	}
	for _, r := range []Review{
		{ID: 1, BookID: 1, ReviewerID: 2, Stars: 4, Comment: "Tense and precise."},
		{ID: 2, BookID: 1, ReviewerID: 3, Stars: 5, Comment: "Did not want it to end."},
		{ID: 3, BookID: 2, ReviewerID: 1, Stars: 3, Comment: "Strong start, uneven middle."},
	} {
		s.reviews[r.BookID] = append(s.reviews[r.BookID], r)
	}
	return s
}

// BooksByID is a batchloader.BatchFunc over books.
func (s *Store) BooksByID(_ context.Context, ids []int) (map[int][]Book, error) {
	s.log("books", ids)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int][]Book, len(ids))
	for _, id := range ids {
		if b, ok := s.books[id]; ok {
			out[id] = []Book{b}
		}
	}
	return out, nil
}

// AuthorsByID is a batchloader.BatchFunc over authors.
func (s *Store) AuthorsByID(_ context.Context, ids []int) (map[int][]Author, error) {
	s.log("authors", ids)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int][]Author, len(ids))
	for _, id := range ids {
		if a, ok := s.authors[id]; ok {
			out[id] = []Author{a}
		}
	}
	return out, nil
}

// ReviewsByBookID is a batchloader.BatchFunc mapping book IDs to their
// reviews. Books without reviews are simply absent from the result.
func (s *Store) ReviewsByBookID(_ context.Context, ids []int) (map[int][]Review, error) {
	s.log("reviews", ids)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int][]Review, len(ids))
	for _, id := range ids {
		if rs, ok := s.reviews[id]; ok {
			out[id] = append([]Review(nil), rs...)
		}
	}
	return out, nil
}

// BookIDs returns all known book IDs in ascending order.
func (s *Store) BookIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Queries returns the bulk reads issued so far, in execution order.
func (s *Store) Queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Query, len(s.queries))
	copy(out, s.queries)
	return out
}

func (s *Store) log(table string, keys []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, Query{
		Table: table,
		Keys:  append([]int(nil), keys...),
	})
}
