package nbtwalk

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/maxsupermanhd/go-vmc/v762/nbt"
)

func appendName(data []byte, name string) []byte {
	ret := binary.BigEndian.AppendUint16(data, uint16(len(name)))
	ret = append(ret, []byte(name)...)
	return ret
}

func testTree() []byte {
	data := []byte{nbt.TagCompound}
	data = appendName(data, "Testing")

	data = append(data, nbt.TagString)
	data = appendName(data, "Hello")
	data = appendName(data, "World")

	data = append(data, nbt.TagList)
	data = appendName(data, "Nums")
	data = append(data, nbt.TagInt, 0, 0, 0, 2)
	data = binary.BigEndian.AppendUint32(data, 7)
	data = binary.BigEndian.AppendUint32(data, 0xFFFFFFFF)

	data = append(data, nbt.TagList)
	data = appendName(data, "Items")
	data = append(data, nbt.TagCompound, 0, 0, 0, 2)
	data = append(data, nbt.TagByte)
	data = appendName(data, "a")
	data = append(data, 1)
	data = append(data, nbt.TagEnd)
	data = append(data, nbt.TagEnd)

	data = append(data, nbt.TagCompound)
	data = appendName(data, "Arrays")

	data = append(data, nbt.TagByteArray)
	data = appendName(data, "The112233")
	data = append(data, 0, 0, 0, 3)
	data = append(data, 11, 22, 33)

	data = append(data, nbt.TagIntArray)
	data = appendName(data, "NumberNine")
	data = append(data, 0, 0, 0, 1)
	data = binary.BigEndian.AppendUint32(data, 9)

	data = append(data, nbt.TagLongArray)
	data = appendName(data, "NumberNineNine")
	data = append(data, 0, 0, 0, 1)
	data = binary.BigEndian.AppendUint64(data, 99)

	data = append(data, nbt.TagEnd)

	data = append(data, nbt.TagByte)
	data = appendName(data, "Nice")
	data = append(data, 0x69)

	data = append(data, nbt.TagEnd)
	return data
}

func TestDump(t *testing.T) {
	got, err := Dump(testTree())
	if err != nil {
		t.Fatal(err)
	}
	want := `Compound "Testing"
  String "Hello" = "World"
  List(TagInt, 2) "Nums"
    Int [0] = 7
    Int [1] = -1
  List(TagCompound, 2) "Items"
    Compound [0]
      Byte "a" = 1
    Compound [1]
  Compound "Arrays"
    ByteArray(3) "The112233" = [11 22 33]
    IntArray(1) "NumberNine" = [9]
    LongArray(1) "NumberNineNine" = [99]
  Byte "Nice" = 105
`
	if got != want {
		t.Fatalf("dump mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWalkPaths(t *testing.T) {
	var paths []string
	ends := 0
	err := WalkNBT(testTree(), &WalkerCallbacks{
		CbInt: func(p []NBTnode, n string, val uint32) {
			paths = append(paths, PrintNodeSlice(p))
		},
		CbByte: func(p []NBTnode, n string, val byte) {
			paths = append(paths, PrintNodeSlice(p)+"."+n)
		},
		CbEnd: func(p []NBTnode) {
			ends++
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		`."Testing"."Nums"[0]`,
		`."Testing"."Nums"[1]`,
		`."Testing"."Items"[0]."".a`,
		`."Testing".Nice`,
	}
	if len(paths) != len(want) {
		t.Fatalf("got paths %q, want %q", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("path %d is %q, want %q", i, paths[i], want[i])
		}
	}
	if ends != 4 {
		t.Fatalf("got %d compound ends, want 4", ends)
	}
}

func TestWalkMarshaled(t *testing.T) {
	type section struct {
		Y           int8    `nbt:"Y"`
		BlockStates []int64 `nbt:"BlockStates"`
	}
	type level struct {
		XPos     int32     `nbt:"xPos"`
		Sections []section `nbt:"Sections"`
	}
	data, err := nbt.Marshal(struct {
		Level level `nbt:"Level"`
	}{Level: level{XPos: -3, Sections: []section{{Y: 0, BlockStates: []int64{1, 2}}, {Y: 1}}}})
	if err != nil {
		t.Fatal(err)
	}
	xPos := int32(0)
	sections := 0
	err = WalkNBT(data, &WalkerCallbacks{
		CbInt: func(p []NBTnode, n string, val uint32) {
			if n == "xPos" {
				xPos = int32(val)
			}
		},
		CbByte: func(p []NBTnode, n string, val byte) {
			if n == "Y" {
				sections++
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if xPos != -3 || sections != 2 {
		t.Fatalf("got xPos %d and %d sections", xPos, sections)
	}
}

func TestTruncated(t *testing.T) {
	data := testTree()
	for l := 1; l < len(data); l++ {
		err := WalkNBT(data[:l], nil)
		if err == nil {
			t.Fatalf("no error on %d of %d bytes", l, len(data))
		}
	}
}

func TestBadInput(t *testing.T) {
	if err := WalkNBT([]byte{nbt.TagEnd}, nil); !errors.Is(err, ErrUnexpectedEndTag) {
		t.Fatalf("got %v, want ErrUnexpectedEndTag", err)
	}
	data := append([]byte{nbt.TagCompound}, 0, 0, 0x42, 0, 0)
	if err := WalkNBT(data, nil); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("got %v, want ErrUnknownTag", err)
	}
	data = append([]byte{nbt.TagCompound}, 0, 0, nbt.TagList, 0, 1, 'l', nbt.TagEnd, 0, 0, 0, 1, nbt.TagEnd)
	if err := WalkNBT(data, nil); !errors.Is(err, ErrUnexpectedEndTag) {
		t.Fatalf("got %v, want ErrUnexpectedEndTag", err)
	}
}
