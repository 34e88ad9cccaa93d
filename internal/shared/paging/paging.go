// Package paging holds the page size rules shared by the list endpoints.
package paging

const (
	DefaultSize int32 = 20
	MaxSize     int32 = 100
)

// Size returns DefaultSize for a missing or non-positive size and caps
// larger ones at MaxSize.
func Size(n int32) int32 {
	if n <= 0 {
		return DefaultSize
	}
	return min(n, MaxSize)
}
