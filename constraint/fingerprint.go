package constraint

import "hash/fnv"

// computeFingerprint folds every node's (instanceId, prop, source) in
// document order into a 32-bit FNV-1a hash. Two graphs built from
// structurally equal node lists (same instanceIds, props, expression
// source strings, same document order) produce the same fingerprint,
// which is the cache key the resolver's LRU is built on.
func (g *Graph) computeFingerprint() uint32 {
	h := fnv.New32a()
	for _, n := range g.Nodes {
		writeUint32(h, uint32(n.InstanceID))
		h.Write([]byte{0})
		h.Write([]byte(n.Prop))
		h.Write([]byte{0})
		h.Write([]byte(n.Source))
		h.Write([]byte{0})
	}
	return h.Sum32()
}

func writeUint32(h interface{ Write([]byte) (int, error) }, v uint32) {
	b := []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	h.Write(b)
}
