package tilemap

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Digest returns a hex blake2b-256 digest of the grid's dimensions and cells.
// Two grids with the same digest produce the same facts for the same config.
func (g *Grid) Digest() string {
	buf := make([]byte, 8*(2+len(g.cells)))
	binary.LittleEndian.PutUint64(buf[0:], uint64(g.height))
	binary.LittleEndian.PutUint64(buf[8:], uint64(g.width))
	for i, v := range g.cells {
		binary.LittleEndian.PutUint64(buf[16+8*i:], uint64(v))
	}
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
