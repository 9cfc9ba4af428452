package db

import "fmt"

// PageID opaquely identifies one page within one table. It is hashable and
// usable as a map key.
type PageID struct {
	TableID    int
	PageNumber int
}

// Equals reports structural equality.
func (p PageID) Equals(other PageID) bool {
	return p.TableID == other.TableID && p.PageNumber == other.PageNumber
}

func (p PageID) String() string {
	return fmt.Sprintf("table(%d)/page(%d)", p.TableID, p.PageNumber)
}
