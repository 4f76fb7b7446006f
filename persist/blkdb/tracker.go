package blkdb

import (
	"sort"

	"gopkg.in/fatih/set.v0"

	"github.com/UdjinM6/dash-sub001/model/block"
	"github.com/UdjinM6/dash-sub001/model/blockindex"
	"github.com/UdjinM6/dash-sub001/persist/chainlock"
	"github.com/UdjinM6/dash-sub001/util"
)

// FileTracker remembers which block files and block index nodes changed
// since the last flush of the block tree database.
type FileTracker struct {
	dirtyFiles      *set.Set // element type: int32
	dirtyBlockIndex *set.Set // element type: util.Hash
}

func NewFileTracker() *FileTracker {
	return &FileTracker{
		dirtyFiles:      set.New(),
		dirtyBlockIndex: set.New(),
	}
}

func (ft *FileTracker) MarkFileDirty(file int32) {
	ft.dirtyFiles.Add(file)
}

func (ft *FileTracker) MarkIndexDirty(hash util.Hash) {
	ft.dirtyBlockIndex.Add(hash)
}

func (ft *FileTracker) IsFileDirty(file int32) bool {
	return ft.dirtyFiles.Has(file)
}

func (ft *FileTracker) IsIndexDirty(hash util.Hash) bool {
	return ft.dirtyBlockIndex.Has(hash)
}

func (ft *FileTracker) Empty() bool {
	return ft.dirtyFiles.IsEmpty() && ft.dirtyBlockIndex.IsEmpty()
}

// DirtyFiles lists the dirty file numbers in ascending order.
func (ft *FileTracker) DirtyFiles() []int32 {
	files := make([]int32, 0, ft.dirtyFiles.Size())
	ft.dirtyFiles.Each(func(item interface{}) bool {
		files = append(files, item.(int32))
		return true
	})
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })
	return files
}

// Flush writes every dirty file summary and block index node in one synced
// batch. The dirty sets are only cleared once the batch is durable, so a
// failed flush can be repeated.
func (ft *FileTracker) Flush(guard *chainlock.Guard, blockTreeDB *BlockTreeDB, fileInfos []*block.BlockFileInfo,
	lastFile int32, arena *blockindex.Arena) error {
	files := make(map[int32]*block.BlockFileInfo, ft.dirtyFiles.Size())
	for _, file := range ft.DirtyFiles() {
		if int(file) < len(fileInfos) && fileInfos[file] != nil {
			files[file] = fileInfos[file]
		}
	}

	blocks := make([]*blockindex.BlockIndex, 0, ft.dirtyBlockIndex.Size())
	ft.dirtyBlockIndex.Each(func(item interface{}) bool {
		hash := item.(util.Hash)
		if pos, ok := arena.Lookup(&hash); ok {
			blocks = append(blocks, arena.Get(pos))
		}
		return true
	})

	if err := blockTreeDB.WriteBatchSync(guard, files, lastFile, blocks); err != nil {
		return err
	}
	ft.dirtyFiles.Clear()
	ft.dirtyBlockIndex.Clear()
	return nil
}
