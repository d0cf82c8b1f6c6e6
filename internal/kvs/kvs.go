// Package kvs reverses the media URL scrambling done by the Kernel Video
// Sharing player engine (kt_player.js).
//
// The engine hides the real file hash in the video URL by running a keyed
// transposition network over its first 32 characters. The key comes from
// the page's public license code, so running the rounds in the opposite
// order recovers the original hash.
//
// The algorithm was reversed from player version 4.0.4 and verified with 5.0.1.
package kvs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// BlockSize is the length of the scrambled hash block.
	BlockSize = 32

	// placeholder is the non-digit character license codes carry.
	placeholder = "$"

	// discardSegments is the number of leading "function/0" path segments.
	discardSegments = 2

	// hashSegment is the index of the segment holding the block once the
	// leading segments are discarded.
	hashSegment = 5
)

// ErrPrecondition is matched by every PreconditionError.
var ErrPrecondition = errors.New("kvs: precondition violated")

// PreconditionError reports input that does not have the shape the cipher
// requires. It is a caller bug or an incompatible engine, never a transient
// condition.
type PreconditionError struct {
	Op     string
	Input  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("kvs: %s(%q): %s", e.Op, e.Input, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// LicenseToken derives the numeric keystream from a license code such as
// "$535195017620112". The result has 4*(n/2+1) digits where n is the number
// of digits left after removing the placeholder.
func LicenseToken(license string) (string, error) {
	fail := func(reason string) (string, error) {
		return "", &PreconditionError{Op: "LicenseToken", Input: license, Reason: reason}
	}

	normalized := strings.ReplaceAll(strings.ReplaceAll(license, placeholder, ""), "0", "1")
	if len(normalized) < 2 {
		return fail("too short")
	}
	if strings.IndexFunc(normalized, func(r rune) bool { return r < '1' || r > '9' }) >= 0 {
		return fail("unexpected character")
	}

	center := len(normalized) / 2
	front, err := strconv.ParseInt(normalized[:center+1], 10, 64)
	if err != nil {
		return fail("front half is not numeric")
	}
	back, err := strconv.ParseInt(normalized[center:], 10, 64)
	if err != nil {
		return fail("back half is not numeric")
	}

	diff := front - back
	if diff < 0 {
		diff = -diff
	}
	modulus := strconv.FormatInt(4*diff, 10)
	if len(modulus) < center+1 {
		return fail("halves too close to derive a key")
	}
	if len(license) < center+5 {
		return fail("too short")
	}

	var b strings.Builder
	b.Grow(4 * (center + 1))
	for o := 0; o <= center; o++ {
		m := modulus[o] - '0'
		for i := 1; i <= 4; i++ {
			c := license[o+i]
			if c < '0' || c > '9' {
				return fail(fmt.Sprintf("non-digit %q at offset %d", c, o+i))
			}
			b.WriteByte('0' + (c-'0'+m)%10)
		}
	}
	return b.String(), nil
}

// Descramble returns the real media URL for a scrambled "function/0/..."
// video URL and the license code shipped with it.
func Descramble(videoURL, license string) (string, error) {
	parts := strings.Split(videoURL, "/")
	if len(parts) < discardSegments+hashSegment+1 {
		return "", &PreconditionError{Op: "Descramble", Input: videoURL, Reason: "too few path segments"}
	}
	return transform("Descramble", videoURL, parts[discardSegments:], license, false)
}

// Scramble is the inverse of Descramble: it turns a real media URL into the
// "function/0/..." form the engine publishes.
func Scramble(mediaURL, license string) (string, error) {
	parts := strings.Split(mediaURL, "/")
	if len(parts) < hashSegment+1 {
		return "", &PreconditionError{Op: "Scramble", Input: mediaURL, Reason: "too few path segments"}
	}
	out, err := transform("Scramble", mediaURL, parts, license, true)
	if err != nil {
		return "", err
	}
	return "function/0/" + out, nil
}

func transform(op, input string, parts []string, license string, forward bool) (string, error) {
	segment := parts[hashSegment]
	if len(segment) < BlockSize {
		return "", &PreconditionError{Op: op, Input: input,
			Reason: fmt.Sprintf("hash segment has %d bytes, need %d", len(segment), BlockSize)}
	}

	token, err := LicenseToken(license)
	if err != nil {
		return "", err
	}

	var block [BlockSize]byte
	copy(block[:], segment[:BlockSize])
	permute(&block, token, forward)

	parts[hashSegment] = string(block[:]) + segment[BlockSize:]
	return strings.Join(parts, "/"), nil
}

// permute applies the 32 keyed transpositions to block. Round o swaps
// positions o and (o + sum(token[o:])) mod 32. Descrambling runs o from 31
// down to 0; scrambling runs the same rounds upwards.
func permute(block *[BlockSize]byte, token string, forward bool) {
	// suffix[o] = sum of the token digits from o onwards.
	var suffix [BlockSize + 1]int
	for i := BlockSize; i < len(token); i++ {
		suffix[BlockSize] += int(token[i] - '0')
	}
	for o := BlockSize - 1; o >= 0; o-- {
		suffix[o] = suffix[o+1]
		if o < len(token) {
			suffix[o] += int(token[o] - '0')
		}
	}

	if forward {
		for o := 0; o < BlockSize; o++ {
			l := (o + suffix[o]) % BlockSize
			block[o], block[l] = block[l], block[o]
		}
		return
	}
	for o := BlockSize - 1; o >= 0; o-- {
		l := (o + suffix[o]) % BlockSize
		block[o], block[l] = block[l], block[o]
	}
}
