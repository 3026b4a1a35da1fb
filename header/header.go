// Package header decodes the fixed 24-byte RTEdbg snapshot header and the
// packed rte_cfg configuration word it carries.
package header

import (
	"encoding/binary"
	"fmt"
)

// Size is the fixed prefix length in bytes.
const Size = 24

// Sentinel buffer_size values that select a non-post-mortem logging mode.
const (
	BufferSizeStreaming       uint32 = 0xFFFFFFF0
	BufferSizeMultipleCapture uint32 = 0xFFFFFFF4
)

// LoggingMode classifies the buffer layout per §3/§4.3.
type LoggingMode int

const (
	ModePostMortem LoggingMode = iota
	ModeSingleShot
	ModeStreaming
	ModeMultipleCapture
)

// Config is the decoded rte_cfg packed word.
type Config struct {
	SingleShotEnabled bool
	SingleShotActive  bool
	FilteringEnabled  bool
	LongTimestamp     bool
	TimestampShift    int // [1,16]
	FmtIDBits         int // [9,16]
	MaxSubpackets     int // [1,256]
	HeaderSizeWords   int
	BufferSizePow2    bool
}

// Header is the bit-exact 24-byte input prefix plus the derived logging
// mode and decoded config word.
type Header struct {
	LastIndex          uint32
	Filter             uint32
	RTECfg             uint32
	TimestampFrequency uint32
	FilterCopy         uint32
	BufferSize         uint32

	Config      Config
	LoggingMode LoggingMode
}

// rte_cfg bit layout. Field widths follow §3: timestamp_shift in [1,16]
// needs 5 bits, fmt_id_bits in [9,16] needs 4 bits (stored as value-9),
// max_subpackets in [1,256] needs 9 bits (stored as value-1).
const (
	cfgSingleShotEnabledBit = 0
	cfgSingleShotActiveBit  = 1
	cfgFilteringEnabledBit  = 2
	cfgLongTimestampBit     = 3
	cfgBufferPow2Bit        = 4

	cfgTimestampShiftShift = 5
	cfgTimestampShiftMask  = 0x1F // 5 bits, stores shift-1

	cfgFmtIDBitsShift = 10
	cfgFmtIDBitsMask  = 0xF // 4 bits, stores bits-9

	cfgMaxSubpacketsShift = 14
	cfgMaxSubpacketsMask  = 0x1FF // 9 bits, stores value-1

	cfgHeaderSizeShift = 23
	cfgHeaderSizeMask  = 0x1FF // 9 bits
)

func decodeConfig(word uint32) Config {
	return Config{
		SingleShotEnabled: word&(1<<cfgSingleShotEnabledBit) != 0,
		SingleShotActive:  word&(1<<cfgSingleShotActiveBit) != 0,
		FilteringEnabled:  word&(1<<cfgFilteringEnabledBit) != 0,
		LongTimestamp:     word&(1<<cfgLongTimestampBit) != 0,
		BufferSizePow2:    word&(1<<cfgBufferPow2Bit) != 0,
		TimestampShift:    int((word>>cfgTimestampShiftShift)&cfgTimestampShiftMask) + 1,
		FmtIDBits:         int((word>>cfgFmtIDBitsShift)&cfgFmtIDBitsMask) + 9,
		MaxSubpackets:     int((word>>cfgMaxSubpacketsShift)&cfgMaxSubpacketsMask) + 1,
		HeaderSizeWords:   int((word >> cfgHeaderSizeShift) & cfgHeaderSizeMask),
	}
}

// Parse decodes the fixed header prefix from raw little-endian bytes.
func Parse(buf []byte) (*Header, error) {
	if len(buf) < Size {
		return nil, fmt.Errorf("file too small: need %d header bytes, got %d", Size, len(buf))
	}

	h := &Header{
		LastIndex:          binary.LittleEndian.Uint32(buf[0:4]),
		Filter:             binary.LittleEndian.Uint32(buf[4:8]),
		RTECfg:             binary.LittleEndian.Uint32(buf[8:12]),
		TimestampFrequency: binary.LittleEndian.Uint32(buf[12:16]),
		FilterCopy:         binary.LittleEndian.Uint32(buf[16:20]),
		BufferSize:         binary.LittleEndian.Uint32(buf[20:24]),
	}
	h.Config = decodeConfig(h.RTECfg)

	switch h.BufferSize {
	case BufferSizeStreaming:
		h.LoggingMode = ModeStreaming
	case BufferSizeMultipleCapture:
		h.LoggingMode = ModeMultipleCapture
	default:
		if h.Config.SingleShotEnabled {
			h.LoggingMode = ModeSingleShot
		} else {
			h.LoggingMode = ModePostMortem
		}
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks the invariants §3 places on rte_cfg's sub-fields.
func (h *Header) Validate() error {
	c := h.Config
	if c.TimestampShift < 1 || c.TimestampShift > 16 {
		return fmt.Errorf("timestamp_shift %d out of range [1,16]", c.TimestampShift)
	}
	if c.FmtIDBits < 9 || c.FmtIDBits > 16 {
		return fmt.Errorf("fmt_id_bits %d out of range [9,16]", c.FmtIDBits)
	}
	if c.MaxSubpackets < 1 || c.MaxSubpackets > 256 {
		return fmt.Errorf("max_subpackets %d out of range [1,256]", c.MaxSubpackets)
	}
	return nil
}

// TopmostFmtID is the exclusive upper bound on assignable format IDs: the
// last two IDs, (1<<N)-2 and (1<<N)-1, are reserved for system messages
// (§3 invariants).
func (h *Header) TopmostFmtID() int {
	return (1 << uint(h.Config.FmtIDBits)) - 2
}
