package mesh

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Route is a bit-set of router exit ports.
// Bits 0..5 are links, bits 6..23 are processors.
type Route uint32

// Route bit layout.
const (
	RouteLinkMask      Route = 1<<NLinks - 1
	RouteProcessorMask Route = (1<<NProcessors - 1) << NLinks
)

// RouteOf constructs a Route from links and processors.
func RouteOf(links []Link, processors []int) (r Route) {
	for _, l := range links {
		r = r.WithLink(l)
	}
	for _, p := range processors {
		r = r.WithProcessor(p)
	}
	return r
}

// WithLink returns a copy of r that includes link l.
func (r Route) WithLink(l Link) Route {
	if !l.Valid() {
		panic(fmt.Errorf("invalid link %d", l))
	}
	return r | 1<<uint(l)
}

// WithProcessor returns a copy of r that includes processor p.
func (r Route) WithProcessor(p int) Route {
	if p < 0 || p >= NProcessors {
		panic(fmt.Errorf("invalid processor %d", p))
	}
	return r | 1<<uint(NLinks+p)
}

// HasLink determines whether r includes link l.
func (r Route) HasLink(l Link) bool {
	return l.Valid() && r&(1<<uint(l)) != 0
}

// HasProcessor determines whether r includes processor p.
func (r Route) HasProcessor(p int) bool {
	return p >= 0 && p < NProcessors && r&(1<<uint(NLinks+p)) != 0
}

// Links returns links in r.
func (r Route) Links() (list []Link) {
	for l := Link(0); l < NLinks; l++ {
		if r.HasLink(l) {
			list = append(list, l)
		}
	}
	return list
}

// Processors returns processors in r.
func (r Route) Processors() (list []int) {
	for p := 0; p < NProcessors; p++ {
		if r.HasProcessor(p) {
			list = append(list, p)
		}
	}
	return list
}

// Empty determines whether r has no exit port.
func (r Route) Empty() bool {
	return r == 0
}

// Count returns number of exit ports.
func (r Route) Count() int {
	return bits.OnesCount32(uint32(r))
}

// String returns a string like "E+N+p3".
func (r Route) String() string {
	if r == 0 {
		return "-"
	}
	var tokens []string
	for _, l := range r.Links() {
		tokens = append(tokens, l.String())
	}
	for _, p := range r.Processors() {
		tokens = append(tokens, "p"+strconv.Itoa(p))
	}
	return strings.Join(tokens, "+")
}

type routeJSON struct {
	Links      []Link `json:"links,omitempty"`
	Processors []int  `json:"processors,omitempty"`
}

// MarshalJSON implements json.Marshaler interface.
func (r Route) MarshalJSON() ([]byte, error) {
	return json.Marshal(routeJSON{Links: r.Links(), Processors: r.Processors()})
}

// UnmarshalJSON implements json.Unmarshaler interface.
// It accepts either an object with links and processors, or a raw integer bit-set.
func (r *Route) UnmarshalJSON(j []byte) error {
	var raw uint32
	if e := json.Unmarshal(j, &raw); e == nil {
		*r = Route(raw)
		return nil
	}

	var obj routeJSON
	if e := json.Unmarshal(j, &obj); e != nil {
		return e
	}
	for _, l := range obj.Links {
		if !l.Valid() {
			return fmt.Errorf("invalid link %d", l)
		}
	}
	for _, p := range obj.Processors {
		if p < 0 || p >= NProcessors {
			return fmt.Errorf("invalid processor %d", p)
		}
	}
	*r = RouteOf(obj.Links, obj.Processors)
	return nil
}
