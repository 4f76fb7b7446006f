package blockindex

import (
	"github.com/google/btree"

	"github.com/UdjinM6/dash-sub001/model/pow"
	"github.com/UdjinM6/dash-sub001/util"
)

// Arena owns every BlockIndex node. Nodes are addressed by their position,
// and a hash table maps block hashes to positions. Pointers returned by Get
// are only valid until the next Insert.
type Arena struct {
	nodes  []BlockIndex
	byHash map[util.Hash]int32
}

func NewArena() *Arena {
	return &Arena{
		byHash: make(map[util.Hash]int32),
	}
}

func (a *Arena) Len() int {
	return len(a.nodes)
}

// Insert returns the position of the node for hash, creating an empty node
// the first time the hash is seen. The null hash has no node.
func (a *Arena) Insert(hash util.Hash) int32 {
	if hash.IsNull() {
		return NoIndex
	}
	if i, ok := a.byHash[hash]; ok {
		return i
	}
	var node BlockIndex
	node.SetNull()
	node.BlockHash = hash
	a.nodes = append(a.nodes, node)
	i := int32(len(a.nodes) - 1)
	a.byHash[hash] = i
	return i
}

func (a *Arena) Lookup(hash *util.Hash) (int32, bool) {
	i, ok := a.byHash[*hash]
	return i, ok
}

// Get returns the node at position i, or nil for NoIndex.
func (a *Arena) Get(i int32) *BlockIndex {
	if i == NoIndex {
		return nil
	}
	return &a.nodes[i]
}

func (a *Arena) Parent(i int32) *BlockIndex {
	return a.Get(a.nodes[i].Prev)
}

// Turn the lowest '1' bit in the binary representation of a number into a '0'.
func invertLowestOne(n int32) int32 {
	return n & (n - 1)
}

// getSkipHeight computes what height to jump back to with the skip link.
func getSkipHeight(height int32) int32 {
	if height < 2 {
		return 0
	}

	// Any number strictly lower than height is acceptable, but the following
	// expression performs well in simulations (max 110 steps to go back up
	// to 2**18 blocks).
	if (height & 1) > 0 {
		return invertLowestOne(invertLowestOne(height-1)) + 1
	}
	return invertLowestOne(height)
}

// GetAncestor finds the ancestor of node i at the given height.
func (a *Arena) GetAncestor(i int32, height int32) int32 {
	if i == NoIndex {
		return NoIndex
	}
	walk := i
	heightWalk := a.nodes[i].Height
	if height > heightWalk || height < 0 {
		return NoIndex
	}
	for heightWalk > height {
		node := &a.nodes[walk]
		heightSkip := getSkipHeight(heightWalk)
		heightSkipPrev := getSkipHeight(heightWalk - 1)
		if node.Skip != NoIndex && (heightSkip == height ||
			(heightSkip > height && !(heightSkipPrev < heightSkip-2 && heightSkipPrev >= height))) {
			// Only follow skip if prev->skip isn't better than skip->prev.
			walk = node.Skip
			heightWalk = heightSkip
		} else {
			if node.Prev == NoIndex {
				return NoIndex
			}
			walk = node.Prev
			heightWalk--
		}
	}
	return walk
}

func (a *Arena) BuildSkip(i int32) {
	node := &a.nodes[i]
	if node.Prev != NoIndex {
		node.Skip = a.GetAncestor(node.Prev, getSkipHeight(node.Height))
	}
}

type heightItem struct {
	height int32
	pos    int32
}

func (h heightItem) Less(than btree.Item) bool {
	o := than.(heightItem)
	if h.height != o.height {
		return h.height < o.height
	}
	return h.pos < o.pos
}

// SortedByHeight returns every position ordered by height, ties broken by
// insertion order.
func (a *Arena) SortedByHeight() []int32 {
	tree := btree.New(32)
	for i := range a.nodes {
		tree.ReplaceOrInsert(heightItem{height: a.nodes[i].Height, pos: int32(i)})
	}
	sorted := make([]int32, 0, len(a.nodes))
	tree.Ascend(func(item btree.Item) bool {
		sorted = append(sorted, item.(heightItem).pos)
		return true
	})
	return sorted
}

// ComputeChainState fills the memory-only fields of every node in height
// order: accumulated chain work, chain transaction count, time max and the
// skip link.
func (a *Arena) ComputeChainState() {
	for _, i := range a.SortedByHeight() {
		node := &a.nodes[i]
		proof := pow.GetBlockProof(node.Header.Bits)
		prev := a.Get(node.Prev)
		if prev == nil {
			node.ChainWork.Set(proof)
			node.TimeMax = node.Header.Time
			node.ChainTxCount = node.TxCount
		} else {
			node.ChainWork.Add(&prev.ChainWork, proof)
			node.TimeMax = node.Header.Time
			if prev.TimeMax > node.TimeMax {
				node.TimeMax = prev.TimeMax
			}
			node.ChainTxCount = 0
			if prev.ChainTxCount != 0 && node.TxCount != 0 {
				node.ChainTxCount = prev.ChainTxCount + node.TxCount
			}
		}
		a.BuildSkip(i)
	}
}

// BestByWork returns the position of the valid node with the most chain
// work, or NoIndex for an empty arena.
func (a *Arena) BestByWork() int32 {
	best := NoIndex
	for i := range a.nodes {
		node := &a.nodes[i]
		if node.Failed() || !node.IsValid(BlockValidTree) {
			continue
		}
		if best == NoIndex || node.ChainWork.Cmp(&a.nodes[best].ChainWork) > 0 {
			best = int32(i)
		}
	}
	return best
}
