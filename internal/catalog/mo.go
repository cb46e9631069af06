package catalog

import (
	"bytes"
	"encoding/binary"
	"os"
	"sort"
	"strings"
)

// moMagic is the little-endian magic number of GNU MO files.
const moMagic uint32 = 0x950412de

// CompileMO renders the catalog into the GNU MO binary lookup form.
// Untranslated, fuzzy and obsolete entries are omitted. Original
// strings are sorted byte-ascending as required for binary search,
// msgctxt is joined to msgid with EOT, plural forms with NUL.
func (f *File) CompileMO() []byte {
	type pair struct {
		id  string
		str string
	}

	pairs := make([]pair, 0, len(f.Entries)+1)
	if f.Header != nil {
		pairs = append(pairs, pair{id: "", str: f.Header.MsgStr})
	}
	for _, e := range f.Entries {
		if e.Obsolete || !e.IsTranslated() {
			continue
		}
		id := e.MsgID
		if e.MsgCtxt != "" {
			id = e.MsgCtxt + "\x04" + id
		}
		var str string
		if e.MsgIDPlural != "" {
			id += "\x00" + e.MsgIDPlural
			forms := make([]string, 0, len(e.MsgStrPlural))
			for _, idx := range sortedPluralIndexes(e.MsgStrPlural) {
				forms = append(forms, e.MsgStrPlural[idx])
			}
			str = strings.Join(forms, "\x00")
		} else {
			str = e.MsgStr
		}
		pairs = append(pairs, pair{id: id, str: str})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	n := uint32(len(pairs))
	origTableOff := uint32(28)
	transTableOff := origTableOff + 8*n
	hashTableOff := transTableOff + 8*n

	var data bytes.Buffer
	origTable := make([]uint32, 0, 2*n)
	transTable := make([]uint32, 0, 2*n)
	dataStart := hashTableOff

	for _, p := range pairs {
		origTable = append(origTable, uint32(len(p.id)), dataStart+uint32(data.Len()))
		data.WriteString(p.id)
		data.WriteByte(0)
	}
	for _, p := range pairs {
		transTable = append(transTable, uint32(len(p.str)), dataStart+uint32(data.Len()))
		data.WriteString(p.str)
		data.WriteByte(0)
	}

	var out bytes.Buffer
	header := []uint32{moMagic, 0, n, origTableOff, transTableOff, 0, hashTableOff}
	for _, v := range header {
		binary.Write(&out, binary.LittleEndian, v)
	}
	for _, v := range origTable {
		binary.Write(&out, binary.LittleEndian, v)
	}
	for _, v := range transTable {
		binary.Write(&out, binary.LittleEndian, v)
	}
	out.Write(data.Bytes())

	return out.Bytes()
}

// WriteMOFile compiles the catalog and writes the MO form to disk.
func (f *File) WriteMOFile(path string) error {
	return os.WriteFile(path, f.CompileMO(), 0o644)
}
