package parser

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/javafmt/internal/arena"
)

// Fingerprint hashes root's node-type/span stream (a pre-order walk of
// node type, start offset, and length for every node reachable from
// root) into a single uint64. Two parses of the same source under the
// same language version produce identical fingerprints; this is the
// cheap equality check the determinism property (spec.md §8) can
// assert against instead of a deep tree walk in every test.
//
// Grounded on the teacher's own use of xxhash.Sum64 for fast content
// equality (internal/core/file_content_store.go's FastHash field) —
// applied here to a node stream rather than raw file bytes.
func Fingerprint(a *arena.Arena, root arena.NodeIndex) (uint64, error) {
	h := xxhash.New()
	if err := hashNode(h, a, root); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func hashNode(h *xxhash.Digest, a *arena.Arena, id arena.NodeIndex) error {
	rec, err := a.Get(id)
	if err != nil {
		return err
	}

	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(rec.NodeType))
	binary.LittleEndian.PutUint32(buf[4:8], rec.StartOffset)
	binary.LittleEndian.PutUint32(buf[8:12], rec.Length)
	if _, err := h.Write(buf[:]); err != nil {
		return err
	}

	children, err := a.Children(id)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := hashNode(h, a, child); err != nil {
			return err
		}
	}
	return nil
}
