package nbtwalk

import (
	"fmt"
	"strings"

	"github.com/maxsupermanhd/go-vmc/v762/nbt"
)

const dumpArrayPreview = 8

func dumpName(p []NBTnode, n string) string {
	if len(p) > 0 && p[len(p)-1].T == nbt.TagList {
		return fmt.Sprintf("[%d]", p[len(p)-1].I)
	}
	return fmt.Sprintf("%q", n)
}

func dumpArray[T any](arr []T) string {
	if len(arr) <= dumpArrayPreview {
		return fmt.Sprint(arr)
	}
	return fmt.Sprintf("%v... (%d total)", arr[:dumpArrayPreview], len(arr))
}

// Dump returns an indented listing of an uncompressed tag tree.
func Dump(data []byte) (string, error) {
	var b strings.Builder
	line := func(p []NBTnode, n, t string, val any) {
		b.WriteString(strings.Repeat("  ", len(p)))
		b.WriteString(t)
		b.WriteByte(' ')
		b.WriteString(dumpName(p, n))
		if val != nil {
			fmt.Fprintf(&b, " = %v", val)
		}
		b.WriteByte('\n')
	}
	err := WalkNBT(data, &WalkerCallbacks{
		CbByte: func(p []NBTnode, n string, val byte) {
			line(p, n, "Byte", int8(val))
		},
		CbShort: func(p []NBTnode, n string, val uint16) {
			line(p, n, "Short", int16(val))
		},
		CbInt: func(p []NBTnode, n string, val uint32) {
			line(p, n, "Int", int32(val))
		},
		CbLong: func(p []NBTnode, n string, val uint64) {
			line(p, n, "Long", int64(val))
		},
		CbFloat: func(p []NBTnode, n string, val float32) {
			line(p, n, "Float", val)
		},
		CbDouble: func(p []NBTnode, n string, val float64) {
			line(p, n, "Double", val)
		},
		CbByteArray: func(p []NBTnode, n string, val []byte) {
			line(p, n, fmt.Sprintf("ByteArray(%d)", len(val)), dumpArray(val))
		},
		CbString: func(p []NBTnode, n string, val string) {
			line(p, n, "String", fmt.Sprintf("%q", val))
		},
		CbList: func(p []NBTnode, n string, t byte, l int) {
			line(p, n, fmt.Sprintf("List(%s, %d)", ByteTagName(t), l), nil)
		},
		CbCompound: func(p []NBTnode, n string) {
			line(p, n, "Compound", nil)
		},
		CbIntArray: func(p []NBTnode, n string, val []uint32) {
			line(p, n, fmt.Sprintf("IntArray(%d)", len(val)), dumpArray(val))
		},
		CbLongArray: func(p []NBTnode, n string, val []uint64) {
			line(p, n, fmt.Sprintf("LongArray(%d)", len(val)), dumpArray(val))
		},
	})
	return b.String(), err
}
