package nestrack

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// CopyNode deep-clones src into dest, which must be a freshly allocated,
// empty node. Clips are copied by value including their buffers, children
// are cloned recursively in order and every plugin is reinstantiated through
// the host with the state of the source instance. The source instance is
// released after its state was queried.
//
// Querying the source plugins may make them flush internal state, but src is
// never modified structurally. If a plugin cannot be reinstantiated, the
// error matches ErrPluginReinstantiationFailed, all plugins already
// instantiated into dest are released and dest must be discarded.
func CopyNode(host PluginHost, dest, src *Node) error {
	return CopyNodeFunc(host, nil, dest, src)
}

// CopyNodeFunc is CopyNode with the release of the source instances handed
// to release instead of host.Release. A nil release uses host.Release.
func CopyNodeFunc(host PluginHost, release func(PluginHandle), dest, src *Node) error {
	if dest == nil || src == nil {
		return errors.AssertionFailedf("CopyNode with nil node")
	}
	if !dest.IsEmpty() {
		return errors.AssertionFailedf("CopyNode destination is not empty")
	}
	if release == nil && host != nil {
		release = host.Release
	}
	if err := copyNode(host, release, dest, src); err != nil {
		ReleasePlugins(host, dest)
		return err
	}
	return nil
}

func copyNode(host PluginHost, release func(PluginHandle), dest, src *Node) error {
	dest.IsTrack = src.IsTrack
	dest.Name = src.Name
	dest.Gain = src.Gain
	dest.Pan = src.Pan
	dest.Solo = src.Solo
	dest.Mute = src.Mute
	if src.IsTrack {
		for i := range src.Clips {
			dest.Clips = append(dest.Clips, src.Clips[i].Copy())
		}
	} else {
		for _, c := range src.Children {
			child := new(Node)
			// append before copying, so that a failed copy can still be released
			dest.Children = append(dest.Children, child)
			if err := copyNode(host, release, child, c); err != nil {
				return err
			}
		}
	}
	for i := range src.Plugins {
		slot, err := copyPlugin(host, release, &src.Plugins[i])
		if err != nil {
			return errors.Wrapf(err, "copying plugin %d of %q", i, src.Name)
		}
		dest.Plugins = append(dest.Plugins, slot)
	}
	return nil
}

// copyPlugin reinstantiates the plugin of a slot. Slots without a live
// instance are reinstantiated from their stored identifier and state.
func copyPlugin(host PluginHost, release func(PluginHandle), src *PluginSlot) (PluginSlot, error) {
	if host == nil {
		return PluginSlot{}, errors.Wrapf(ErrPluginReinstantiationFailed, "no plugin host for %q", src.Identifier)
	}
	identifier, state := src.Identifier, src.State
	if src.Handle != nil {
		state = host.State(src.Handle)
		release(src.Handle)
		identifier = host.Descriptor(src.Handle).Identifier()
	}
	h, err := host.Instantiate(identifier)
	if err != nil {
		return PluginSlot{}, errors.Mark(errors.Wrapf(err, "instantiating %q", identifier), ErrPluginReinstantiationFailed)
	}
	host.SetState(h, state)
	return PluginSlot{
		Identifier: identifier,
		State:      slices.Clone(state),
		Bypassed:   src.Bypassed,
		DryWet:     src.DryWet,
		Relays:     slices.Clone(src.Relays),
		Handle:     h,
	}, nil
}

// ReleasePlugins releases every live plugin instance in the subtree of n
// and clears the handles.
func ReleasePlugins(host PluginHost, n *Node) {
	if n == nil {
		return
	}
	n.Walk(func(c *Node) bool {
		for i := range c.Plugins {
			if c.Plugins[i].Handle != nil && host != nil {
				host.Release(c.Plugins[i].Handle)
			}
			c.Plugins[i].Handle = nil
		}
		return true
	})
}

// PluginHandles returns the live plugin instances in the subtree of n,
// parents before children.
func PluginHandles(n *Node) []PluginHandle {
	var ret []PluginHandle
	n.Walk(func(c *Node) bool {
		for _, p := range c.Plugins {
			if p.Handle != nil {
				ret = append(ret, p.Handle)
			}
		}
		return true
	})
	return ret
}
