package nestrack

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// InsertClip inserts a clip into a track at index, 0 <= index <= len(n.Clips).
func (n *Node) InsertClip(index int, clip Clip) error {
	if !n.IsTrack {
		return errors.Wrapf(ErrClipsOnGroup, "inserting clip into %q", n.Name)
	}
	if index < 0 || index > len(n.Clips) {
		return errors.Wrapf(ErrIndexOutOfBounds, "insert clip at %d, %d clips", index, len(n.Clips))
	}
	if clip.Start < 0 {
		clip.Start = 0
	}
	n.Clips = slices.Insert(n.Clips, index, clip)
	return nil
}

// RemoveClip removes the clip at index and returns it.
func (n *Node) RemoveClip(index int) (Clip, error) {
	if index < 0 || index >= len(n.Clips) {
		return Clip{}, errors.Wrapf(ErrIndexOutOfBounds, "clip %d of %q, %d clips", index, n.Name, len(n.Clips))
	}
	ret := n.Clips[index]
	n.Clips = slices.Delete(n.Clips, index, index+1)
	return ret, nil
}

// Length returns the position where the last active clip below tracks stops
// playing. Looping clips count with their end position; a looping clip
// without one loops forever and counts with a single pass.
func Length(tracks []*Node) int64 {
	var ret int64
	for _, t := range tracks {
		t.Walk(func(n *Node) bool {
			for i := range n.Clips {
				if n.Clips[i].Active {
					ret = max(ret, n.Clips[i].EndSample())
				}
			}
			return true
		})
	}
	return ret
}
