// Package joincode produces short human-shareable session codes.
//
// A candidate code carries no uniqueness guarantee on its own; uniqueness
// comes from the insert-if-absent reserve against the session store, which
// callers retry with a fresh candidate on collision.
package joincode

import (
	"crypto/rand"
	"math/big"
)

// Alphabet is the set of characters codes are drawn from. Uppercase plus
// digits keeps codes easy to read aloud and type.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength gives a 36^6 code space, comfortably larger than the number
// of concurrently active sessions.
const DefaultLength = 6

type Generator struct {
	length int
}

func New(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

func (g *Generator) Length() int { return g.length }

// Generate returns a random candidate code.
func (g *Generator) Generate() string {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform source is broken;
			// nothing sensible to do but panic, same as uuid.New.
			panic(err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf)
}
