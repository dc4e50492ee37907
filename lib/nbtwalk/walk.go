package nbtwalk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/maxsupermanhd/go-vmc/v762/nbt"
)

var (
	ErrUnknownTag       = errors.New("unknown tag")
	ErrUnexpectedEndTag = errors.New("unexpected TagEnd")
	ErrNegativeSize     = errors.New("negative size")
	ErrOutOfBounds      = errors.New("out of bounds")
)

type ConextedError struct {
	E            error
	ReadingStage string
	Offset       int
}

func (err ConextedError) Error() string {
	return fmt.Sprintf("%s at %d: %s", err.E.Error(), err.Offset, err.ReadingStage)
}

func (err ConextedError) Unwrap() error {
	return err.E
}

// NBTnode is an open compound or list on the path to the current tag.
// For lists ET is the element type, S the length and I the index of the
// element being read.
type NBTnode struct {
	T      byte
	ET     byte
	N      string
	S      int
	I      int
	toRead int
}

func ByteTagName(b byte) string {
	names := []string{
		"TagEnd",
		"TagByte",
		"TagShort",
		"TagInt",
		"TagLong",
		"TagFloat",
		"TagDouble",
		"TagByteArray",
		"TagString",
		"TagList",
		"TagCompound",
		"TagIntArray",
		"TagLongArray",
	}
	if int(b) >= len(names) {
		return fmt.Sprintf("unknown tag 0x%02x", b)
	}
	return names[b]
}

func PrintNodeSlice(p []NBTnode) string {
	ret := ""
	for _, v := range p {
		if v.T == nbt.TagList {
			ret += fmt.Sprintf(".%q[%d]", v.N, v.I)
		} else {
			ret += fmt.Sprintf(".%q", v.N)
		}
	}
	return ret
}

// WalkerCallbacks are called for every tag, nil callbacks are skipped.
// List elements have no names, n is empty for them.
type WalkerCallbacks struct {
	CbEnd       func(p []NBTnode)
	CbByte      func(p []NBTnode, n string, val byte)
	CbShort     func(p []NBTnode, n string, val uint16)
	CbInt       func(p []NBTnode, n string, val uint32)
	CbLong      func(p []NBTnode, n string, val uint64)
	CbFloat     func(p []NBTnode, n string, val float32)
	CbDouble    func(p []NBTnode, n string, val float64)
	CbByteArray func(p []NBTnode, n string, val []byte)
	CbString    func(p []NBTnode, n string, val string)
	CbList      func(p []NBTnode, n string, t byte, l int)
	CbCompound  func(p []NBTnode, n string)
	CbIntArray  func(p []NBTnode, n string, val []uint32)
	CbLongArray func(p []NBTnode, n string, val []uint64)
}

func outOfBounds(stage string, offset int) error {
	return ConextedError{
		E:            ErrOutOfBounds,
		ReadingStage: stage,
		Offset:       offset,
	}
}

// inspired by github.com/rmmh/cubeographer
// reflectless nbt "parser", callbacks get entered and exited from nbt tree
// data must be uncompressed and start with the root compound
func WalkNBT(data []byte, cb *WalkerCallbacks) error {
	if cb == nil {
		cb = &WalkerCallbacks{}
	}
	p := make([]NBTnode, 0, 32)
	for i := 0; i < len(data); {
		var t byte
		n := ""
		if len(p) > 0 && p[len(p)-1].T == nbt.TagList {
			top := &p[len(p)-1]
			if top.toRead == 0 {
				p = p[:len(p)-1]
				if len(p) == 0 {
					return nil
				}
				continue
			}
			top.I = top.S - top.toRead
			top.toRead--
			t = top.ET
		} else {
			t = data[i]
			i += 1
			if t == nbt.TagEnd {
				if len(p) == 0 {
					return ConextedError{
						E:            ErrUnexpectedEndTag,
						ReadingStage: "end at the root",
						Offset:       i,
					}
				}
				if cb.CbEnd != nil {
					cb.CbEnd(p)
				}
				p = p[:len(p)-1]
				if len(p) == 0 {
					return nil
				}
				continue
			}
			if len(p) == 0 && t != nbt.TagCompound {
				return ConextedError{
					E:            ErrUnknownTag,
					ReadingStage: "root is not a compound",
					Offset:       i,
				}
			}
			if i+2 > len(data) {
				return outOfBounds("name size absent", i)
			}
			ns := int(binary.BigEndian.Uint16(data[i : i+2]))
			if i+2+ns > len(data) {
				return outOfBounds(fmt.Sprintf("name too big (%d > %d)", i+2+ns, len(data)), i)
			}
			i += 2
			n = string(data[i : i+ns])
			i += ns
		}
		switch t {
		default:
			return ConextedError{
				E:            ErrUnknownTag,
				ReadingStage: ByteTagName(t),
				Offset:       i,
			}
		case nbt.TagByte:
			if i+1 > len(data) {
				return outOfBounds("payload absent", i)
			}
			if cb.CbByte != nil {
				cb.CbByte(p, n, data[i])
			}
			i += 1
		case nbt.TagShort:
			if i+2 > len(data) {
				return outOfBounds("payload absent", i)
			}
			if cb.CbShort != nil {
				cb.CbShort(p, n, binary.BigEndian.Uint16(data[i:]))
			}
			i += 2
		case nbt.TagInt:
			if i+4 > len(data) {
				return outOfBounds("payload absent", i)
			}
			if cb.CbInt != nil {
				cb.CbInt(p, n, binary.BigEndian.Uint32(data[i:]))
			}
			i += 4
		case nbt.TagLong:
			if i+8 > len(data) {
				return outOfBounds("payload absent", i)
			}
			if cb.CbLong != nil {
				cb.CbLong(p, n, binary.BigEndian.Uint64(data[i:]))
			}
			i += 8
		case nbt.TagFloat:
			if i+4 > len(data) {
				return outOfBounds("payload absent", i)
			}
			if cb.CbFloat != nil {
				cb.CbFloat(p, n, math.Float32frombits(binary.BigEndian.Uint32(data[i:])))
			}
			i += 4
		case nbt.TagDouble:
			if i+8 > len(data) {
				return outOfBounds("payload absent", i)
			}
			if cb.CbDouble != nil {
				cb.CbDouble(p, n, math.Float64frombits(binary.BigEndian.Uint64(data[i:])))
			}
			i += 8
		case nbt.TagByteArray:
			if i+4 > len(data) {
				return outOfBounds("payload length absent", i)
			}
			s := int(int32(binary.BigEndian.Uint32(data[i:])))
			if s < 0 {
				return ErrNegativeSize
			}
			if i+4+s > len(data) {
				return outOfBounds("array size too big", i)
			}
			if cb.CbByteArray != nil {
				cb.CbByteArray(p, n, data[i+4:i+4+s])
			}
			i += 4 + s
		case nbt.TagString:
			if i+2 > len(data) {
				return outOfBounds("string size absent", i)
			}
			s := int(binary.BigEndian.Uint16(data[i:]))
			if i+2+s > len(data) {
				return outOfBounds("string size too big", i)
			}
			if cb.CbString != nil {
				cb.CbString(p, n, string(data[i+2:i+2+s]))
			}
			i += 2 + s
		case nbt.TagList:
			if i+5 > len(data) {
				return outOfBounds("length absent", i)
			}
			lt := data[i]
			if lt > nbt.TagLongArray {
				return ConextedError{
					E:            ErrUnknownTag,
					ReadingStage: "list type is weird",
					Offset:       i,
				}
			}
			ls := int(int32(binary.BigEndian.Uint32(data[i+1:])))
			if ls < 0 {
				return ErrNegativeSize
			}
			if lt == nbt.TagEnd && ls > 0 {
				return ConextedError{
					E:            ErrUnexpectedEndTag,
					ReadingStage: "list of TagEnd",
					Offset:       i,
				}
			}
			i += 4 + 1
			if cb.CbList != nil {
				cb.CbList(p, n, lt, ls)
			}
			p = append(p, NBTnode{
				T:      nbt.TagList,
				ET:     lt,
				N:      n,
				S:      ls,
				toRead: ls,
			})
		case nbt.TagCompound:
			if cb.CbCompound != nil {
				cb.CbCompound(p, n)
			}
			p = append(p, NBTnode{
				T: nbt.TagCompound,
				N: n,
			})
		case nbt.TagIntArray:
			if i+4 > len(data) {
				return outOfBounds("array length absent", i)
			}
			s := int32(binary.BigEndian.Uint32(data[i:]))
			if s < 0 {
				return ErrNegativeSize
			}
			i += 4
			if i+int(s)*4 > len(data) {
				return outOfBounds("array too big", i)
			}
			arr := make([]uint32, s)
			for ii := 0; ii < int(s); ii++ {
				arr[ii] = binary.BigEndian.Uint32(data[i+ii*4:])
			}
			if cb.CbIntArray != nil {
				cb.CbIntArray(p, n, arr)
			}
			i += int(s) * 4
		case nbt.TagLongArray:
			if i+4 > len(data) {
				return outOfBounds("array length absent", i)
			}
			s := int32(binary.BigEndian.Uint32(data[i:]))
			if s < 0 {
				return ErrNegativeSize
			}
			i += 4
			if i+int(s)*8 > len(data) {
				return outOfBounds("array too big", i)
			}
			arr := make([]uint64, s)
			for ii := 0; ii < int(s); ii++ {
				arr[ii] = binary.BigEndian.Uint64(data[i+ii*8:])
			}
			if cb.CbLongArray != nil {
				cb.CbLongArray(p, n, arr)
			}
			i += int(s) * 8
		}
	}
	if len(p) > 0 {
		return outOfBounds("unterminated "+PrintNodeSlice(p), len(data))
	}
	return nil
}
