package nestrack

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// InsertPlugin inserts slot into the plugin chain at index, 0 <= index <=
// len(n.Plugins).
func (n *Node) InsertPlugin(index int, slot PluginSlot) error {
	if index < 0 || index > len(n.Plugins) {
		return errors.Wrapf(ErrIndexOutOfBounds, "insert plugin at %d, %d plugins", index, len(n.Plugins))
	}
	slot.DryWet = clampUnit(slot.DryWet)
	n.Plugins = slices.Insert(n.Plugins, index, slot)
	return nil
}

// RemovePlugin removes the plugin at index from the chain and returns it. The
// caller takes ownership of the live instance.
func (n *Node) RemovePlugin(index int) (PluginSlot, error) {
	if err := n.checkPlugin(index); err != nil {
		return PluginSlot{}, err
	}
	ret := n.Plugins[index]
	n.Plugins = slices.Delete(n.Plugins, index, index+1)
	return ret, nil
}

// ReorderPlugin moves the plugin at src to dst. The plugin is removed first
// and then inserted at dst, so dst is in the index space after the removal;
// it is clamped to the valid range.
func (n *Node) ReorderPlugin(src, dst int) error {
	slot, err := n.RemovePlugin(src)
	if err != nil {
		return err
	}
	dst = max(0, min(dst, len(n.Plugins)))
	n.Plugins = slices.Insert(n.Plugins, dst, slot)
	return nil
}

// SetBypassed sets the bypass flag of the plugin at index.
func (n *Node) SetBypassed(index int, bypassed bool) error {
	if err := n.checkPlugin(index); err != nil {
		return err
	}
	n.Plugins[index].Bypassed = bypassed
	return nil
}

// SetDryWet sets the dry/wet mix of the plugin at index, clamped to [0,1].
func (n *Node) SetDryWet(index int, mix float64) error {
	if err := n.checkPlugin(index); err != nil {
		return err
	}
	n.Plugins[index].DryWet = clampUnit(mix)
	return nil
}

// AddRelay appends an automation relay binding to the plugin at index.
// Binding the same control change twice to the same slot is a no-op.
func (n *Node) AddRelay(index int, relay RelayParam) error {
	if err := n.checkPlugin(index); err != nil {
		return err
	}
	if !slices.Contains(n.Plugins[index].Relays, relay) {
		n.Plugins[index].Relays = append(n.Plugins[index].Relays, relay)
	}
	return nil
}

// RemoveRelay removes the relay binding at relayIndex of the plugin at index.
func (n *Node) RemoveRelay(index, relayIndex int) error {
	if err := n.checkPlugin(index); err != nil {
		return err
	}
	relays := n.Plugins[index].Relays
	if relayIndex < 0 || relayIndex >= len(relays) {
		return errors.Wrapf(ErrIndexOutOfBounds, "relay %d, %d relays", relayIndex, len(relays))
	}
	n.Plugins[index].Relays = slices.Delete(relays, relayIndex, relayIndex+1)
	return nil
}

func (n *Node) checkPlugin(index int) error {
	if index < 0 || index >= len(n.Plugins) {
		return errors.Wrapf(ErrIndexOutOfBounds, "plugin %d of %q, %d plugins", index, n.Name, len(n.Plugins))
	}
	return nil
}

func clampUnit(v float64) float64 {
	return max(0, min(v, 1))
}
