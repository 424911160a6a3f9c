package pipeline

import (
	"context"
	"fmt"
	"sort"
)

// Algorithm describes a pipeline stage.
type Algorithm struct {
	Name     string
	Requires []Item
	Optional []Item
	Produces []Item
	Run      func(ctx context.Context, c *Context) error
}

func (a Algorithm) String() string {
	return a.Name
}

var registry = map[string]Algorithm{}

func register(a Algorithm) {
	if _, ok := registry[a.Name]; ok {
		panic(fmt.Errorf("duplicate algorithm %s", a.Name))
	}
	registry[a.Name] = a
}

// Lookup finds an algorithm by name.
func Lookup(name string) (a Algorithm, ok bool) {
	a, ok = registry[name]
	return
}

// Algorithms returns all algorithms sorted by name.
func Algorithms() (list []Algorithm) {
	for _, a := range registry {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
