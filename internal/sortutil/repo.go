package sortutil

import (
	"sort"

	"github.com/e-mit/gitscan/internal/model"
	"github.com/e-mit/gitscan/internal/repolist"
)

// LessNamePath provides deterministic ordering by display name first,
// then by path for repositories that share a directory name.
func LessNamePath(nameI, pathI, nameJ, pathJ string) bool {
	if nameI == nameJ {
		return pathI < pathJ
	}
	return nameI < nameJ
}

// SortSnapshots orders snapshots by display name, then path.
func SortSnapshots(snaps []model.Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return LessNamePath(snaps[i].Name, snaps[i].Path, snaps[j].Name, snaps[j].Path)
	})
}

// SortEntries orders repo list entries by path.
func SortEntries(entries []repolist.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}
