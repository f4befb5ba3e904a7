package block

import (
	"fmt"
	"sync"

	"github.com/nickng/looprotate/cfg"
	"github.com/pkg/errors"
)

var (
	ErrBadNode     = errors.New("VisitNode does not contain block (or has nil block)")
	ErrNotVisited  = errors.New("previous block was not visited")
	ErrDiffParents = errors.New("blocks are in different functions")
)

// visitedEdges keeps track of whether blocks are visited.
//
// Edges are mapped as Block --> incoming Block --> bool
type visitedEdges map[*cfg.Block]map[*cfg.Block]bool

// VisitGraph is a data structure to track the traversal of the blocks of
// functions. Each node is a cfg.Block that has been visited.
//
// VisitGraph, unlike the name suggests, is a doubly linked list of the nodes
// in visit order.
type VisitGraph struct {
	sync.Mutex

	nodes []*VisitNode

	// visited keeps track of whether a block is visited.
	// visited: Function --> visitedEdges
	//
	// A block is visited if all incoming edges (i.e. paths into the block)
	// have been visited. The visited entry of a block is initialised with
	// false for all of its predecessors.
	visited map[*cfg.Function]visitedEdges
}

// NewVisitGraph returns a new VisitGraph.
func NewVisitGraph() *VisitGraph {
	return &VisitGraph{visited: make(map[*cfg.Function]visitedEdges)}
}

func (g *VisitGraph) append(n *VisitNode) {
	g.nodes = append(g.nodes, n)
	if len(g.nodes) > 1 {
		n.Prev = g.nodes[len(g.nodes)-2]
		g.nodes[len(g.nodes)-2].Next = n
	}
}

// Visit enters a block without following an edge, e.g. the entry block.
// The first visit to a function initialises the visited edges of all of its
// blocks.
func (g *VisitGraph) Visit(n *VisitNode) {
	g.Lock()
	defer g.Unlock()
	g.append(n)
	if _, ok := g.visited[n.Fn()]; !ok {
		g.markNewFuncVisit(n.Fn())
	}
}

// VisitFrom enters n following the edge prev --> n. prev must be visited
// before.
func (g *VisitGraph) VisitFrom(prev, n *VisitNode) error {
	g.Lock()
	defer g.Unlock()
	if prev.Fn() != n.Fn() {
		return errors.Wrapf(ErrDiffParents, "visit %s from %s", n, prev)
	}
	validPrev := false
	for i := len(g.nodes) - 1; i >= 0; i-- {
		if g.nodes[i].Blk() == prev.Blk() {
			validPrev = true
			break
		}
	}
	if !validPrev {
		return errors.Wrapf(ErrNotVisited, "visit %s from %s", n, prev)
	}
	g.append(n)
	g.visited[n.Fn()][n.Blk()][prev.Blk()] = true
	return nil
}

// markNewFuncVisit initialises all blocks in fn to be not visited.
func (g *VisitGraph) markNewFuncVisit(fn *cfg.Function) {
	g.visited[fn] = make(visitedEdges)
	for _, b := range fn.Blocks {
		g.visited[fn][b] = make(map[*cfg.Block]bool)
		// This iterates through all possible input edges to each block
		// and mark them not visited.
		for _, p := range b.Preds() {
			g.visited[fn][b][p] = false
		}
	}
}

// LastNode returns the last node in the VisitGraph, nil if the graph is
// empty.
func (g *VisitGraph) LastNode() *VisitNode {
	if len(g.nodes) == 0 {
		return nil
	}
	return g.nodes[len(g.nodes)-1]
}

// Size of the graph.
func (g *VisitGraph) Size() int {
	return len(g.nodes)
}

// NodeVisited returns true if the block is visited.
// A block is visited if all the in edges are visited.
func (g *VisitGraph) NodeVisited(toVisit *VisitNode) bool {
	g.Lock()
	defer g.Unlock()
	if g.nodes == nil {
		return false
	}
	if fn, ok := g.visited[toVisit.Fn()]; ok {
		inEdges, ok := fn[toVisit.Blk()]
		if !ok {
			return false
		}
		for from := range inEdges {
			if !inEdges[from] {
				return false
			}
		}
		return g.entered(toVisit.Blk())
	}
	return false
}

// entered returns true if blk is in the graph.
func (g *VisitGraph) entered(blk *cfg.Block) bool {
	for _, n := range g.nodes {
		if n.Blk() == blk {
			return true
		}
	}
	return false
}

// EdgeVisited returns true if the edge between the node pair has been visited.
func (g *VisitGraph) EdgeVisited(from, to *VisitNode) bool {
	g.Lock()
	defer g.Unlock()
	if fn, ok := g.visited[to.Fn()]; ok {
		return fn[to.Blk()][from.Blk()]
	}
	return false
}

// VisitedOnce returns true if the block is visited at least once.
func (g *VisitGraph) VisitedOnce(toVisit *VisitNode) bool {
	g.Lock()
	defer g.Unlock()
	return g.entered(toVisit.Blk())
}

// VisitNode is one node in the VisitGraph.
// Each VisitNode corresponds to one cfg.Block.
type VisitNode struct {
	blk *cfg.Block // Block.

	Prev, Next *VisitNode
}

// NewVisitNode returns a new VisitNode. block must not be nil.
func NewVisitNode(block *cfg.Block) *VisitNode {
	if block == nil {
		panic(ErrBadNode)
	}
	return &VisitNode{blk: block}
}

// Blk returns the underlying Block.
func (n *VisitNode) Blk() *cfg.Block {
	return n.blk
}

// Fn returns the function which the block belongs to.
func (n *VisitNode) Fn() *cfg.Function {
	return n.blk.Parent()
}

// Index returns the block index.
func (n *VisitNode) Index() int {
	return n.blk.Index
}

func (n *VisitNode) String() string {
	return fmt.Sprintf("%s#%d", n.Fn().Name, n.Index())
}
