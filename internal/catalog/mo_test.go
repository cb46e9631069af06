package catalog

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeMO reads back a compiled MO blob into an id→str map.
func decodeMO(t *testing.T, blob []byte) map[string]string {
	t.Helper()
	require.GreaterOrEqual(t, len(blob), 28, "truncated header")

	u32 := func(off uint32) uint32 {
		return binary.LittleEndian.Uint32(blob[off : off+4])
	}

	require.Equal(t, moMagic, u32(0), "magic")
	require.Equal(t, uint32(0), u32(4), "revision")

	n := u32(8)
	origOff := u32(12)
	transOff := u32(16)

	readString := func(tableOff, i uint32) string {
		length := u32(tableOff + 8*i)
		offset := u32(tableOff + 8*i + 4)
		require.Equal(t, byte(0), blob[offset+length], "missing NUL terminator")
		return string(blob[offset : offset+length])
	}

	result := make(map[string]string, n)
	prev := ""
	for i := uint32(0); i < n; i++ {
		id := readString(origOff, i)
		if i > 0 {
			require.Less(t, prev, id, "original strings must be sorted")
		}
		prev = id
		result[id] = readString(transOff, i)
	}
	return result
}

func TestCompileMO_LookupTable(t *testing.T) {
	f := NewFile("fr")
	f.AddEntry(&Entry{MsgID: "Invoice", MsgStr: "Facture"})
	f.AddEntry(&Entry{MsgID: "Amount", MsgStr: "Montant"})
	f.AddEntry(&Entry{MsgCtxt: "menu", MsgID: "Open", MsgStr: "Ouvrir"})
	f.AddEntry(&Entry{
		MsgID:        "One record",
		MsgIDPlural:  "%d records",
		MsgStrPlural: map[int]string{0: "Un enregistrement", 1: "%d enregistrements"},
	})
	// These two must not appear in the compiled output.
	f.AddEntry(&Entry{MsgID: "Draft", MsgStr: ""})
	f.AddEntry(&Entry{MsgID: "Old", MsgStr: "Vieux", Obsolete: true})

	table := decodeMO(t, f.CompileMO())

	assert.Equal(t, "Facture", table["Invoice"])
	assert.Equal(t, "Montant", table["Amount"])
	assert.Equal(t, "Ouvrir", table["menu\x04Open"])
	assert.Equal(t, "Un enregistrement\x00%d enregistrements", table["One record\x00%d records"])

	_, hasDraft := table["Draft"]
	assert.False(t, hasDraft)
	_, hasOld := table["Old"]
	assert.False(t, hasOld)

	// Header entry is present under the empty id.
	assert.Contains(t, table[""], "Content-Type: text/plain; charset=UTF-8")
}

func TestWriteMOFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merged.mo")

	f := NewFile("es")
	f.AddEntry(&Entry{MsgID: "Customer", MsgStr: "Cliente"})
	require.NoError(t, f.WriteMOFile(path))

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	table := decodeMO(t, blob)
	assert.Equal(t, "Cliente", table["Customer"])
}
