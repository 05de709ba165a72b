package session

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
)

type (
	// ClipboardItem is one of ClipItem, PluginItem or NodeItem.
	ClipboardItem interface {
		// release frees whatever the item owns. It is called exactly once,
		// when the item leaves the clipboard.
		release(host nestrack.PluginHost)
	}

	// ClipItem holds a copy of a clip, including its buffer.
	ClipItem struct {
		Clip nestrack.Clip
	}

	// PluginItem holds what is needed to instantiate a copy of a plugin: its
	// identifier, state and slot settings. It owns no live instance.
	PluginItem struct {
		Slot nestrack.PluginSlot
	}

	// NodeItem holds a deep copy of a node, which owns live plugin instances
	// of its own.
	NodeItem struct {
		Node *nestrack.Node
	}
)

func (ClipItem) release(nestrack.PluginHost) {
}

func (PluginItem) release(nestrack.PluginHost) {
}

func (i NodeItem) release(host nestrack.PluginHost) {
	nestrack.ReleasePlugins(host, i.Node)
}

// Clipboard returns the current clipboard item, or nil.
func (s *Session) Clipboard() ClipboardItem {
	return s.clipboard
}

func (s *Session) setClipboard(item ClipboardItem) {
	if s.clipboard != nil {
		s.clipboard.release(s.host)
	}
	s.clipboard = item
}

// CopyNode puts a deep copy of the node at route on the clipboard.
func (s *Session) CopyNode(route nestrack.Route) error {
	n, err := nestrack.Resolve(s.tracks, route)
	if err != nil {
		return err
	}
	clone := new(nestrack.Node)
	if err := nestrack.CopyNodeFunc(s.host, s.keepSource, clone, n); err != nil {
		return errors.Wrapf(err, "copying %s", route)
	}
	s.setClipboard(NodeItem{Node: clone})
	return nil
}

// CopyClip puts a copy of the clip addressed by route on the clipboard.
func (s *Session) CopyClip(route nestrack.Route) error {
	c, err := nestrack.ResolveClip(s.tracks, route)
	if err != nil {
		return err
	}
	s.setClipboard(ClipItem{Clip: c.Copy()})
	return nil
}

// CopyPlugin puts the identifier, current state and settings of the plugin
// addressed by route on the clipboard.
func (s *Session) CopyPlugin(route nestrack.Route) error {
	p, err := nestrack.ResolvePlugin(s.tracks, route)
	if err != nil {
		return err
	}
	slot := *p
	slot.State = slices.Clone(p.State)
	slot.Relays = slices.Clone(p.Relays)
	if p.Handle != nil && s.host != nil {
		slot.State = s.host.State(p.Handle)
		slot.Identifier = s.host.Descriptor(p.Handle).Identifier()
	}
	slot.Handle = nil
	s.setClipboard(PluginItem{Slot: slot})
	return nil
}

// Paste inserts the clipboard item. A node is inserted at the position
// addressed by target, shifting the node currently there; a clip or a plugin
// is appended to the node addressed by target. The clipboard keeps its item,
// so it can be pasted again.
func (s *Session) Paste(target nestrack.Route) error {
	switch item := s.clipboard.(type) {
	case nil:
		return errors.New("clipboard is empty")
	case NodeItem:
		return s.change("PasteNode", func() error {
			if len(target) == 0 {
				return nestrack.ErrEmptyRoute
			}
			clone := new(nestrack.Node)
			if err := nestrack.CopyNode(s.host, clone, item.Node); err != nil {
				return err
			}
			if err := s.mutator.Insert(&s.tracks, target.Parent(), target.Last(), clone); err != nil {
				nestrack.ReleasePlugins(s.host, clone)
				return err
			}
			return nil
		})
	case ClipItem:
		return s.modify("PasteClip", target, func(n *nestrack.Node) error {
			return n.InsertClip(len(n.Clips), item.Clip.Copy())
		})
	case PluginItem:
		return s.modify("PastePlugin", target, func(n *nestrack.Node) error {
			if s.host == nil {
				return errors.Wrapf(nestrack.ErrPluginReinstantiationFailed, "no plugin host for %q", item.Slot.Identifier)
			}
			h, err := s.host.Instantiate(item.Slot.Identifier)
			if err != nil {
				return errors.Mark(errors.Wrapf(err, "instantiating %q", item.Slot.Identifier), nestrack.ErrPluginReinstantiationFailed)
			}
			s.host.SetState(h, item.Slot.State)
			slot := item.Slot
			slot.State = slices.Clone(item.Slot.State)
			slot.Relays = slices.Clone(item.Slot.Relays)
			slot.Handle = h
			return n.InsertPlugin(len(n.Plugins), slot)
		})
	default:
		return errors.AssertionFailedf("unknown clipboard item %T", item)
	}
}
