package ghosttag

import (
	"bytes"
	"errors"
	"io"
	"log"
	"math/rand/v2"
	"testing"

	"github.com/bodgit/ghosttag/pixel"
	"github.com/bodgit/ghosttag/placement"
	"github.com/bodgit/ghosttag/rs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "This is a secret message!"

func makeTestGrid(t *testing.T, w, h, channels int) *pixel.Grid {
	g, err := pixel.NewGrid(w, h, channels)
	require.NoError(t, err)
	r := rand.New(rand.NewPCG(uint64(w), uint64(h)))
	for i := range g.Pix {
		g.Pix[i] = uint8(r.UintN(256))
	}
	return g
}

// flipBodyBytes corrupts one bit in each of the given body bytes, counted
// from the start of the first block
func flipBodyBytes(t *testing.T, g *pixel.Grid, seed int64, positions []int) {
	var last int
	for _, b := range positions {
		last = max(last, b)
	}
	slots, err := placement.New(seed, g.Len()-HeaderSlots).Take((len(syncWord) + last + 1) * 8)
	require.NoError(t, err)
	for _, b := range positions {
		x, y, c := g.Slot(slots[(len(syncWord)+b)*8] + HeaderSlots)
		g.Set(x, y, c, g.At(x, y, c)^1)
	}
}

func byteRange(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}

func TestRoundTrip(t *testing.T) {
	g := makeTestGrid(t, 100, 100, 3)

	out, err := Embed(g, []byte(secret), 20, 1337)
	require.NoError(t, err)

	msg, err := Extract(out, 1337)
	require.NoError(t, err)
	assert.Equal(t, secret, string(msg))
}

func TestEmbedLeavesInput(t *testing.T) {
	g := makeTestGrid(t, 64, 64, 3)
	before := g.Clone()

	_, err := Embed(g, []byte(secret), 20, 1)
	require.NoError(t, err)
	assert.Equal(t, before.Pix, g.Pix)
}

func TestRoundTripVariants(t *testing.T) {
	tables := map[string]struct {
		width, height, channels int
		redundancy              int
		seed                    int64
		length                  int
	}{
		"empty":          {40, 40, 3, 20, 7, 0},
		"alpha":          {50, 50, 4, 20, 99, 500},
		"no redundancy":  {50, 50, 3, 0, -5, 600},
		"max redundancy": {80, 80, 3, MaxRedundancy, 123456789, 700},
		"many blocks":    {120, 120, 3, 10, 2, 4000},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			g := makeTestGrid(t, table.width, table.height, table.channels)
			msg := make([]byte, table.length)
			r := rand.New(rand.NewPCG(1, 2))
			for i := range msg {
				msg[i] = uint8(r.UintN(256))
			}

			out, err := Embed(g, msg, table.redundancy, table.seed)
			require.NoError(t, err)

			got, err := Extract(out, table.seed)
			require.NoError(t, err)
			assert.Equal(t, len(msg), len(got))
			assert.True(t, bytes.Equal(msg, got))
		})
	}
}

func TestCapacityBoundary(t *testing.T) {
	assert.Equal(t, 3044, MaxPayload(100, 100, 3, 20))

	g := makeTestGrid(t, 100, 100, 3)
	limit := MaxPayload(g.Width, g.Height, g.Channels, 20)

	msg := bytes.Repeat([]byte{0x5a}, limit)
	out, err := Embed(g, msg, 20, 1337)
	require.NoError(t, err)

	got, err := Extract(out, 1337)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	_, err = Embed(g, append(msg, 0x5a), 20, 1337)
	var ce *CapacityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, limit, ce.Max)
	assert.Equal(t, limit+1, ce.Requested)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
}

func TestMaxPayload(t *testing.T) {
	assert.Equal(t, 0, MaxPayload(0, 100, 3, 20))
	assert.Equal(t, 0, MaxPayload(100, 100, 2, 20))
	assert.Equal(t, 0, MaxPayload(100, 100, 3, -1))
	assert.Equal(t, 0, MaxPayload(100, 100, 3, MaxRedundancy+1))
	assert.Equal(t, 0, MaxPayload(10, 10, 3, 20))
	assert.Greater(t, MaxPayload(100, 100, 4, 20), MaxPayload(100, 100, 3, 20))
	assert.Greater(t, MaxPayload(100, 100, 3, 10), MaxPayload(100, 100, 3, 20))
}

func TestEmbedTooSmall(t *testing.T) {
	g := makeTestGrid(t, 10, 10, 3)

	_, err := Embed(g, nil, 20, 1)
	var ce *CapacityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 0, ce.Max)
}

func TestEmbedInvalid(t *testing.T) {
	g := makeTestGrid(t, 40, 40, 3)

	_, err := Embed(g, []byte(secret), -1, 1)
	assert.True(t, errors.Is(err, ErrInvalidRedundancy))

	_, err = Embed(g, []byte(secret), MaxRedundancy+1, 1)
	assert.True(t, errors.Is(err, ErrInvalidRedundancy))

	_, err = New(MaxRedundancy+1, 1, nil)
	assert.True(t, errors.Is(err, ErrInvalidRedundancy))

	bad := &pixel.Grid{Width: 40, Height: 40, Channels: 2, Pix: make([]uint8, 40*40*2)}
	_, err = Embed(bad, []byte(secret), 20, 1)
	assert.Equal(t, ErrInvalidChannels, err)
}

func TestWrongSeed(t *testing.T) {
	g := makeTestGrid(t, 100, 100, 3)

	out, err := Embed(g, []byte(secret), 20, 1337)
	require.NoError(t, err)

	for _, seed := range []int64{0, 1, 1336, 1338, -1337} {
		_, err := Extract(out, seed)
		var e *ExtractError
		require.True(t, errors.As(err, &e))
		assert.Equal(t, WrongSeedOrNoMessage, e.Reason)
		assert.True(t, errors.Is(err, ErrWrongSeed))
		require.NotNil(t, e.Header)
		assert.Equal(t, uint32(len(secret)), e.Header.Length)
	}
}

func TestNoMessage(t *testing.T) {
	g := makeTestGrid(t, 100, 100, 3)

	_, err := Extract(g, 1337)
	var e *ExtractError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, WrongSeedOrNoMessage, e.Reason)
	assert.Nil(t, e.Header)
	assert.True(t, errors.Is(err, ErrNoHeader))

	blank, err := pixel.NewGrid(100, 100, 3)
	require.NoError(t, err)

	_, err = ReadHeader(blank)
	assert.Equal(t, ErrNoHeader, err)
}

func TestCorruptionTolerance(t *testing.T) {
	const seed = 1337

	g := makeTestGrid(t, 100, 100, 3)

	out, err := Embed(g, []byte(secret), 20, seed)
	require.NoError(t, err)

	correctable := rs.Correctable(len(secret), 20)

	damaged := out.Clone()
	flipBodyBytes(t, damaged, seed, byteRange(correctable))

	msg, err := Extract(damaged, seed)
	require.NoError(t, err)
	assert.Equal(t, secret, string(msg))

	damaged = out.Clone()
	flipBodyBytes(t, damaged, seed, byteRange(correctable+1))

	_, err = Extract(damaged, seed)
	var e *ExtractError
	require.True(t, errors.As(err, &e))
	assert.Contains(t, []Reason{UncorrectableErrors, IntegrityMismatch}, e.Reason)
}

func TestCorruptionPerBlock(t *testing.T) {
	const (
		seed       = 77
		redundancy = 20
	)

	g := makeTestGrid(t, 100, 100, 3)
	msg := bytes.Repeat([]byte("0123456789"), 60)

	out, err := Embed(g, msg, redundancy, seed)
	require.NoError(t, err)

	// Damage every block up to its limit
	var damage []int
	var offset int
	for _, k := range blocks(len(msg), redundancy) {
		for i := 0; i < rs.Correctable(k, redundancy); i++ {
			damage = append(damage, offset+i*2)
		}
		offset += k + 2*rs.Correctable(k, redundancy)
	}

	damaged := out.Clone()
	flipBodyBytes(t, damaged, seed, damage)

	got, err := Extract(damaged, seed)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestHeaderIndependence(t *testing.T) {
	const seed = 1337

	g := makeTestGrid(t, 100, 100, 3)

	out, err := Embed(g, []byte(secret), 20, seed)
	require.NoError(t, err)

	// Wreck the whole body but not the header
	for i := HeaderSlots; i < out.Len(); i++ {
		x, y, c := out.Slot(i)
		out.Set(x, y, c, out.At(x, y, c)^1)
	}

	h, err := ReadHeader(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(secret)), h.Length)
	assert.Equal(t, uint8(20), h.Redundancy)

	_, err = Extract(out, seed)
	var e *ExtractError
	require.True(t, errors.As(err, &e))
	require.NotNil(t, e.Header)
	assert.Equal(t, uint32(len(secret)), e.Header.Length)
	assert.Equal(t, uint8(20), e.Header.Redundancy)
}

func TestHeaderCorruption(t *testing.T) {
	const seed = 5

	g := makeTestGrid(t, 60, 60, 3)

	out, err := Embed(g, []byte(secret), 20, seed)
	require.NoError(t, err)

	// Flip every 9th header slot
	for i := 0; i < HeaderSlots; i += 9 {
		x, y, c := out.Slot(i)
		out.Set(x, y, c, out.At(x, y, c)^1)
	}

	msg, err := Extract(out, seed)
	require.NoError(t, err)
	assert.Equal(t, secret, string(msg))
}

func TestIntegrityMismatch(t *testing.T) {
	const seed = 11

	g := makeTestGrid(t, 80, 80, 3)

	// No parity means no correction so any damage reaches the checksum
	out, err := Embed(g, []byte(secret), 0, seed)
	require.NoError(t, err)

	flipBodyBytes(t, out, seed, []int{3})

	_, err = Extract(out, seed)
	var e *ExtractError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, IntegrityMismatch, e.Reason)
	assert.True(t, errors.Is(err, ErrIntegrityMismatch))
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "WrongSeedOrNoMessage", WrongSeedOrNoMessage.String())
	assert.Equal(t, "UncorrectableErrors", UncorrectableErrors.String())
	assert.Equal(t, "IntegrityMismatch", IntegrityMismatch.String())
	assert.Equal(t, "Unknown", Reason(0).String())
}

func TestGhostTag(t *testing.T) {
	logger := log.New(io.Discard, "", 0)

	gt, err := New(DefaultRedundancy, DefaultSeed, logger)
	require.NoError(t, err)
	assert.Equal(t, 3, gt.Channels())

	gt.SetAlpha(true)
	assert.Equal(t, 4, gt.Channels())
	gt.SetAlpha(false)

	g := makeTestGrid(t, 100, 100, 3)
	assert.Equal(t, 3043, gt.Capacity(g))

	out, err := gt.Embed(g, []byte(secret))
	require.NoError(t, err)

	// One extra byte records the format
	h, err := gt.Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(secret)+1), h.Length)

	msg, err := gt.Extract(out)
	require.NoError(t, err)
	assert.Equal(t, secret, string(msg))
}

func TestGhostTagCompression(t *testing.T) {
	gt, err := New(DefaultRedundancy, DefaultSeed, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	gt.SetCompression(true)

	g := makeTestGrid(t, 100, 100, 3)
	msg := bytes.Repeat([]byte(secret), 400)
	require.Greater(t, len(msg), gt.Capacity(g))

	out, err := gt.Embed(g, msg)
	require.NoError(t, err)

	h, err := ReadHeader(out)
	require.NoError(t, err)
	assert.Less(t, int(h.Length), len(msg))

	got, err := gt.Extract(out)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestSeedFromPassphrase(t *testing.T) {
	a := SeedFromPassphrase("correct horse battery staple")
	assert.Equal(t, a, SeedFromPassphrase("correct horse battery staple"))
	assert.NotEqual(t, a, SeedFromPassphrase("correct horse battery stapler"))
}

func TestGhostTagCapacity(t *testing.T) {
	gt, err := New(DefaultRedundancy, DefaultSeed, nil)
	require.NoError(t, err)

	g := makeTestGrid(t, 100, 100, 3)
	n := gt.Capacity(g)

	msg := bytes.Repeat([]byte{0xa5}, n)
	out, err := gt.Embed(g, msg)
	require.NoError(t, err)

	got, err := gt.Extract(out)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	_, err = gt.Embed(g, append(msg, 0xa5))
	var ce *CapacityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, n, ce.Max)
	assert.Equal(t, n+1, ce.Requested)
}

func TestGhostTagNilLogger(t *testing.T) {
	gt, err := New(DefaultRedundancy, DefaultSeed, nil)
	require.NoError(t, err)
	gt.SetCompression(true)

	g := makeTestGrid(t, 64, 64, 3)

	out, err := gt.Embed(g, []byte(secret))
	require.NoError(t, err)

	_, err = gt.Inspect(out)
	require.NoError(t, err)

	msg, err := gt.Extract(out)
	require.NoError(t, err)
	assert.Equal(t, secret, string(msg))
}

func TestGhostTagZstdPayload(t *testing.T) {
	// A message that happens to be a zstd frame comes back untouched
	payload := compress(bytes.Repeat([]byte("abc"), 50))

	gt, err := New(DefaultRedundancy, DefaultSeed, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	g := makeTestGrid(t, 64, 64, 3)

	out, err := gt.Embed(g, payload)
	require.NoError(t, err)

	got, err := gt.Extract(out)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	gt.SetCompression(true)

	out, err = gt.Embed(g, payload)
	require.NoError(t, err)

	got, err = gt.Extract(out)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestGhostTagForeignMessage(t *testing.T) {
	gt, err := New(DefaultRedundancy, DefaultSeed, nil)
	require.NoError(t, err)

	g := makeTestGrid(t, 64, 64, 3)

	// Embedded without a format byte
	out, err := Embed(g, []byte{0x7f, 'h', 'i'}, DefaultRedundancy, DefaultSeed)
	require.NoError(t, err)

	_, err = gt.Extract(out)
	var e *ExtractError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, IntegrityMismatch, e.Reason)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestPack(t *testing.T) {
	in := bytes.Repeat([]byte("abc"), 100)

	tables := map[string]struct {
		compressed bool
		format     byte
	}{
		"raw":  {false, formatRaw},
		"zstd": {true, formatZstd},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			p := pack(in, table.compressed)
			assert.Equal(t, table.format, p[0])

			out, err := unpack(p)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}

	out, err := unpack(pack(nil, false))
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = unpack(nil)
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = unpack([]byte{formatZstd, 1, 2, 3})
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}
