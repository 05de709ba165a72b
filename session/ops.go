package session

import (
	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
)

// AddTrack inserts a new empty track as the index-th child of the group at
// parent, or into the top-level list if parent is empty. index is clamped.
func (s *Session) AddTrack(parent nestrack.Route, index int, name string) error {
	return s.change("AddTrack", func() error {
		return s.mutator.Insert(&s.tracks, parent, index, nestrack.NewTrack(name))
	})
}

// AddGroup inserts a new empty group, like AddTrack.
func (s *Session) AddGroup(parent nestrack.Route, index int, name string) error {
	return s.change("AddGroup", func() error {
		return s.mutator.Insert(&s.tracks, parent, index, nestrack.NewGroup(name))
	})
}

// Delete removes the node at route and everything below it.
func (s *Session) Delete(route nestrack.Route) error {
	return s.change("Delete", func() error {
		return s.mutator.Delete(&s.tracks, route)
	})
}

// Duplicate inserts a deep copy of the node at route right after it and
// returns the route of the copy.
func (s *Session) Duplicate(route nestrack.Route) (ret nestrack.Route, err error) {
	err = s.change("Duplicate", func() error {
		ret, err = s.mutator.Duplicate(&s.tracks, route)
		return err
	})
	return ret, err
}

// MoveToGroup makes the node at moveRoute the last child of the group at
// groupRoute.
func (s *Session) MoveToGroup(moveRoute, groupRoute nestrack.Route) error {
	return s.change("MoveToGroup", func() error {
		return s.mutator.MoveToGroup(&s.tracks, moveRoute, groupRoute)
	})
}

// Reorder moves the child at source of the group at parent (or of the
// top-level list, if parent is empty) to insertion.
func (s *Session) Reorder(parent nestrack.Route, source, insertion int) error {
	return s.change("Reorder", func() error {
		return s.mutator.Reorder(&s.tracks, parent, source, insertion)
	})
}

// ReorderAcross moves the node at src to the position dst, possibly under a
// different parent.
func (s *Session) ReorderAcross(src, dst nestrack.Route) error {
	return s.change("ReorderAcross", func() error {
		return s.mutator.ReorderAcross(&s.tracks, src, dst)
	})
}

// SetName renames the node at route.
func (s *Session) SetName(route nestrack.Route, name string) error {
	return s.modify("SetName", route, func(n *nestrack.Node) error {
		n.Name = name
		return nil
	})
}

// SetGain sets the linear gain of the node at route; negative values are
// clamped to 0.
func (s *Session) SetGain(route nestrack.Route, gain float64) error {
	return s.modify("SetGain", route, func(n *nestrack.Node) error {
		n.Gain = max(gain, 0)
		return nil
	})
}

// SetPan sets the pan of the node at route, clamped to [-1,1].
func (s *Session) SetPan(route nestrack.Route, pan float64) error {
	return s.modify("SetPan", route, func(n *nestrack.Node) error {
		n.Pan = max(-1, min(pan, 1))
		return nil
	})
}

// SetSolo sets the solo flag of the node at route.
func (s *Session) SetSolo(route nestrack.Route, solo bool) error {
	return s.modify("SetSolo", route, func(n *nestrack.Node) error {
		n.Solo = solo
		return nil
	})
}

// SetMute sets the mute flag of the node at route.
func (s *Session) SetMute(route nestrack.Route, mute bool) error {
	return s.modify("SetMute", route, func(n *nestrack.Node) error {
		n.Mute = mute
		return nil
	})
}

// AddClip appends a clip to the track at route and loads its buffer with the
// decoder. A decoding failure rejects the clip.
func (s *Session) AddClip(route nestrack.Route, clip nestrack.Clip) error {
	return s.modify("AddClip", route, func(n *nestrack.Node) error {
		if !n.IsTrack {
			return errors.Wrapf(nestrack.ErrClipsOnGroup, "adding clip to %s", route)
		}
		if s.decoder != nil {
			if err := clip.Reload(s.decoder); err != nil {
				return err
			}
		}
		return n.InsertClip(len(n.Clips), clip)
	})
}

// RemoveClip removes a clip; the last element of route indexes the clips of
// the track addressed by the rest.
func (s *Session) RemoveClip(route nestrack.Route) error {
	return s.modifyLeaf("RemoveClip", route, func(n *nestrack.Node, index int) error {
		_, err := n.RemoveClip(index)
		return err
	})
}

// AddPlugin instantiates a plugin by identifier and appends it to the chain
// of the node at route. The new slot is fully wet and not bypassed.
func (s *Session) AddPlugin(route nestrack.Route, identifier string) error {
	return s.modify("AddPlugin", route, func(n *nestrack.Node) error {
		if s.host == nil {
			return errors.Newf("no plugin host to instantiate %q", identifier)
		}
		h, err := s.host.Instantiate(identifier)
		if err != nil {
			return errors.Wrapf(err, "instantiating %q", identifier)
		}
		return n.InsertPlugin(len(n.Plugins), nestrack.PluginSlot{Identifier: identifier, DryWet: 1, Handle: h})
	})
}

// RemovePlugin removes a plugin; the last element of route indexes the chain
// of the node addressed by the rest. The editor of the plugin is notified
// before removal.
func (s *Session) RemovePlugin(route nestrack.Route) error {
	return s.modifyLeaf("RemovePlugin", route, func(n *nestrack.Node, index int) error {
		if index < 0 || index >= len(n.Plugins) {
			return errors.Wrapf(nestrack.ErrIndexOutOfBounds, "plugin %d of %q, %d plugins", index, n.Name, len(n.Plugins))
		}
		if h := n.Plugins[index].Handle; h != nil {
			s.notifyEditors(h)
		}
		slot, err := n.RemovePlugin(index)
		if err != nil {
			return err
		}
		if slot.Handle != nil {
			s.retireHandle(slot.Handle)
		}
		return nil
	})
}

// ReorderPlugin moves the plugin at src to dst within the chain of the node
// at route; dst is in the index space after removing src.
func (s *Session) ReorderPlugin(route nestrack.Route, src, dst int) error {
	return s.modify("ReorderPlugin", route, func(n *nestrack.Node) error {
		return n.ReorderPlugin(src, dst)
	})
}

// SetBypassed sets the bypass flag of the plugin addressed by route.
func (s *Session) SetBypassed(route nestrack.Route, bypassed bool) error {
	return s.modifyLeaf("SetBypassed", route, func(n *nestrack.Node, index int) error {
		return n.SetBypassed(index, bypassed)
	})
}

// SetDryWet sets the dry/wet mix of the plugin addressed by route.
func (s *Session) SetDryWet(route nestrack.Route, mix float64) error {
	return s.modifyLeaf("SetDryWet", route, func(n *nestrack.Node, index int) error {
		return n.SetDryWet(index, mix)
	})
}

// AddRelay binds a MIDI control change to a parameter of the plugin
// addressed by route.
func (s *Session) AddRelay(route nestrack.Route, relay nestrack.RelayParam) error {
	return s.modifyLeaf("AddRelay", route, func(n *nestrack.Node, index int) error {
		return n.AddRelay(index, relay)
	})
}

// modify runs f on the node at route as one mutation.
func (s *Session) modify(kind string, route nestrack.Route, f func(*nestrack.Node) error) error {
	return s.change(kind, func() error {
		n, err := nestrack.Resolve(s.tracks, route)
		if err != nil {
			return err
		}
		return f(n)
	})
}

// modifyLeaf runs f on the node addressed by all but the last element of
// route, passing the last element as the index of a clip or plugin.
func (s *Session) modifyLeaf(kind string, route nestrack.Route, f func(*nestrack.Node, int) error) error {
	if len(route) < 2 {
		return errors.Wrapf(nestrack.ErrEmptyRoute, "%s: route %s does not address a node", kind, route)
	}
	return s.modify(kind, route.Parent(), func(n *nestrack.Node) error {
		return f(n, route.Last())
	})
}
