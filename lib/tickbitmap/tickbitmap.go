// Package tickbitmap implements the sparse, word-indexed bitmap over
// spaced ticks that lets the swap loop skip to the next initialized tick
// in bounded work per step.
//
// Grounded on agatticelli-cex-dex-arbitrage-bot's
// internal/pricing/uniswapv3/tick_bitmap.go word-splitting algorithm
// (locate the word, mask off the irrelevant half, take its most/least
// significant bit), adapted from a single big.Int word to a sparse map of
// wordPos -> *uint256.Int since a real pool's ticks are far from densely
// packed and words should be created lazily. The most-significant-bit
// search uses binary descent; the least-significant-bit search scans
// upward one bit at a time.
package tickbitmap

import (
	ui "github.com/holiman/uint256"

	"github.com/tricorn-fi/clmm-engine/lib/constants"
)

// Bitmap is a sparse mapping from word position to a 256-bit word, where
// bit i of the word at wordPos is set iff tick (wordPos*256+i)*tickSpacing
// is initialized.
type Bitmap struct {
	words map[int16]*ui.Int
}

// New returns an empty bitmap.
func New() *Bitmap {
	return &Bitmap{words: make(map[int16]*ui.Int)}
}

// Clone deep-copies the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	words := make(map[int16]*ui.Int, len(b.words))
	for k, v := range b.words {
		words[k] = v.Clone()
	}
	return &Bitmap{words: words}
}

func position(tick, tickSpacing int32) (wordPos int16, bitPos uint8) {
	compressed := compress(tick, tickSpacing)
	wordPos = int16(compressed >> 8)
	bitPos = uint8(compressed & 0xff)
	return
}

// compress divides tick by tickSpacing, rounding towards negative infinity
// so bit ordering stays monotonic across zero.
func compress(tick, tickSpacing int32) int32 {
	quotient := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		quotient--
	}
	return quotient
}

// IsInitialized reports whether tick's bit is set.
func (b *Bitmap) IsInitialized(tick, tickSpacing int32) bool {
	wordPos, bitPos := position(tick, tickSpacing)
	word, ok := b.words[wordPos]
	if !ok {
		return false
	}
	bit := new(ui.Int).And(new(ui.Int).Rsh(word, uint(bitPos)), constants.One)
	return !bit.IsZero()
}

// FlipTick toggles the bit for tick. tick must be a multiple of
// tickSpacing; callers (lib/ticktable) are responsible for that check.
func (b *Bitmap) FlipTick(tick, tickSpacing int32) {
	wordPos, bitPos := position(tick, tickSpacing)
	word, ok := b.words[wordPos]
	if !ok {
		word = new(ui.Int)
	}
	mask := new(ui.Int).Lsh(constants.One, uint(bitPos))
	next := new(ui.Int).Xor(word, mask)
	if next.IsZero() {
		delete(b.words, wordPos)
		return
	}
	b.words[wordPos] = next
}

// NextInitializedTickWithinOneWord finds, within the single word
// containing tick, the next initialized tick at or below tick (lte=true,
// price moving down) or strictly above tick (lte=false, price moving up).
// If no bit is set in that word it returns the word boundary tick with
// initialized=false, so the caller advances one word and retries, which
// bounds the work done per swap step regardless of sparsity.
func (b *Bitmap) NextInitializedTickWithinOneWord(tick, tickSpacing int32, lte bool) (next int32, initialized bool) {
	compressed := compress(tick, tickSpacing)

	if lte {
		wordPos, bitPos := position(tick, tickSpacing)
		mask := new(ui.Int).Sub(new(ui.Int).Lsh(constants.One, uint(bitPos)+1), constants.One)
		word := b.words[wordPos]
		if word == nil {
			return (int32(wordPos) << 8) * tickSpacing, false
		}
		masked := new(ui.Int).And(word, mask)
		if masked.IsZero() {
			return (int32(wordPos) << 8) * tickSpacing, false
		}
		msb := mostSignificantBit(masked)
		return (int32(wordPos)<<8 + int32(msb)) * tickSpacing, true
	}

	nextCompressed := compressed + 1
	wordPos := int16(nextCompressed >> 8)
	bitPos := uint8(nextCompressed & 0xff)
	lowMask := new(ui.Int).Sub(new(ui.Int).Lsh(constants.One, uint(bitPos)), constants.One)
	mask := new(ui.Int).Xor(constants.MaxUint256, lowMask)
	word := b.words[wordPos]
	if word == nil {
		return (int32(wordPos)<<8 + 255) * tickSpacing, false
	}
	masked := new(ui.Int).And(word, mask)
	if masked.IsZero() {
		return (int32(wordPos)<<8 + 255) * tickSpacing, false
	}
	lsb := leastSignificantBit(masked)
	return (int32(wordPos)<<8 + int32(lsb)) * tickSpacing, true
}

// mostSignificantBit locates the highest set bit of a nonzero value via
// binary descent.
func mostSignificantBit(x *ui.Int) uint8 {
	var msb uint8
	v := x.Clone()
	for _, power := range []uint{128, 64, 32, 16, 8, 4, 2, 1} {
		threshold := new(ui.Int).Lsh(constants.One, power)
		if v.Cmp(threshold) >= 0 {
			v = new(ui.Int).Rsh(v, power)
			msb += uint8(power)
		}
	}
	return msb
}

// leastSignificantBit locates the lowest set bit of a nonzero value.
func leastSignificantBit(x *ui.Int) uint8 {
	v := x.Clone()
	for i := uint8(0); i < 255; i++ {
		if !new(ui.Int).And(v, constants.One).IsZero() {
			return i
		}
		v = new(ui.Int).Rsh(v, 1)
	}
	return 255
}
