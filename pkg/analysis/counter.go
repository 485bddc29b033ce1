package analysis

import "sort"

// Entry is one (key, count) pair of a ranking table.
type Entry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Counter accumulates key frequencies while remembering first-seen
// order, so rankings are deterministic: count descending, ties broken
// by the order keys first appeared in the input stream.
type Counter struct {
	counts map[string]int
	order  []string
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add counts one occurrence of key.
func (c *Counter) Add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// Ranking returns the frequency table, highest count first. The sort is
// stable over insertion order, so equal counts keep first-seen order.
func (c *Counter) Ranking() []Entry {
	entries := make([]Entry, 0, len(c.order))
	for _, key := range c.order {
		entries = append(entries, Entry{Key: key, Count: c.counts[key]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// TopN returns at most n leading entries of a ranking.
func TopN(entries []Entry, n int) []Entry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}
