// Package routegen builds multicast trees on the mesh and records them as routing entries.
package routegen

import (
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mcroute/mcroute/app/keyalloc"
	"github.com/mcroute/mcroute/container/mcrt"
	"github.com/mcroute/mcroute/container/rtdef"
	"github.com/mcroute/mcroute/core/logging"
	"github.com/mcroute/mcroute/graph"
	"github.com/mcroute/mcroute/mesh"
	"go.uber.org/zap"
)

var logger = logging.New("routegen")

// ErrNoKeys indicates a partition has no allocated key and mask.
var ErrNoKeys = errors.New("partition has no allocated keys")

// PathCacheCapacity is the number of chip-to-chip paths remembered during Generate.
const PathCacheCapacity = 4096

type pathKey struct {
	src, dst mesh.Coords
}

// pathCache memoizes Machine.Path.
type pathCache struct {
	m     mesh.Machine
	cache *lru.Cache
}

func newPathCache(m mesh.Machine) *pathCache {
	cache, e := lru.New(PathCacheCapacity)
	if e != nil {
		panic(e)
	}
	return &pathCache{m: m, cache: cache}
}

func (pc *pathCache) Path(src, dst mesh.Coords) []mesh.Link {
	key := pathKey{src, dst}
	if links, ok := pc.cache.Get(key); ok {
		return links.([]mesh.Link)
	}
	links := pc.m.Path(src, dst)
	pc.cache.Add(key, links)
	return links
}

// node is a chip in a multicast tree.
type node struct {
	chip mesh.Coords
	// in is the port where packets arrive; hasIn is false on the source chip.
	in    mesh.Link
	hasIn bool
}

type tree struct {
	nodes map[mesh.Coords]*node
	order []*node
}

func (t *tree) add(n *node) {
	t.nodes[n.chip] = n
	t.order = append(t.order, n)
}

// nearest returns the tree node closest to dst; ties are broken by insertion order.
func (t *tree) nearest(m mesh.Machine, dst mesh.Coords) (best *node) {
	bestDist := -1
	for _, n := range t.order {
		if d := m.Distance(n.chip, dst); bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// Generate builds routing entries for every partition of g with at least one destination.
//
// Each partition is routed as a tree rooted at its source chip. Destinations are visited
// from nearest to farthest; each one is attached through a shortest path starting at
// the closest chip already in the tree. An entry on a chip that only forwards packets
// straight through is marked defaultable.
func Generate(m mesh.Machine, g graph.Graph, ri *keyalloc.RoutingInfo) (*mcrt.TableByPartition, error) {
	tbp := mcrt.New()
	paths := newPathCache(m)
	for _, p := range g.Partitions {
		if len(p.Destinations) == 0 {
			continue
		}
		km, ok := ri.Get(p.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoKeys, p.ID)
		}
		if e := route(m, paths, g, p, km, tbp); e != nil {
			return nil, fmt.Errorf("route %s: %w", p.ID, e)
		}
	}

	logger.Info("routes generated",
		zap.Int("routers", len(tbp.Routers())),
		zap.Int("entries", tbp.NEntries()),
		zap.Int("cached-paths", paths.cache.Len()),
	)
	return tbp, nil
}

func route(m mesh.Machine, paths *pathCache, g graph.Graph, p graph.Partition, km rtdef.KeyAndMask, tbp *mcrt.TableByPartition) error {
	src, ok := g.Placements[p.ID.Vertex]
	if !ok {
		return fmt.Errorf("source vertex %s is not placed", p.ID.Vertex)
	}

	dsts := make([]graph.Placement, 0, len(p.Destinations))
	seen := map[string]bool{}
	for _, vertex := range p.Destinations {
		if seen[vertex] {
			continue
		}
		seen[vertex] = true
		dst, ok := g.Placements[vertex]
		if !ok {
			return fmt.Errorf("destination vertex %s is not placed", vertex)
		}
		dsts = append(dsts, dst)
	}
	sort.SliceStable(dsts, func(i, j int) bool {
		return m.Distance(src.Chip, dsts[i].Chip) < m.Distance(src.Chip, dsts[j].Chip)
	})

	emit := func(chip mesh.Coords, r mesh.Route, defaultable bool) {
		tbp.AddPathEntry(rtdef.Entry{KeyAndMask: km, Route: r, Defaultable: defaultable}, chip.X, chip.Y, p.ID)
	}

	t := &tree{nodes: map[mesh.Coords]*node{}}
	t.add(&node{chip: src.Chip})
	for _, dst := range dsts {
		if t.nodes[dst.Chip] == nil {
			cur := t.nearest(m, dst.Chip)
			for _, l := range paths.Path(cur.chip, dst.Chip) {
				next, ok := m.Neighbor(cur.chip, l)
				if !ok {
					panic(fmt.Errorf("path from %s leaves machine via %s", cur.chip, l))
				}
				straight := cur.hasIn && cur.in.Opposite() == l
				emit(cur.chip, mesh.Route(0).WithLink(l), straight)

				n := &node{chip: next, in: l.Opposite(), hasIn: true}
				t.add(n)
				cur = n
			}
		}
		emit(dst.Chip, mesh.Route(0).WithProcessor(dst.Core), false)
	}

	logger.Debug("partition routed",
		zap.Stringer("partition", p.ID),
		src.Chip.ZapField("source"),
		zap.Int("destinations", len(dsts)),
		zap.Int("chips", len(t.order)),
	)
	return nil
}
