package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/sgeproto/frame"
	"github.com/wippyai/sgeproto/schema"
	"github.com/wippyai/sgeproto/value"
)

const testSchema = "testdata/person.sge"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheck(t *testing.T) {
	out, _, err := run(t, "check", testSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "ok, 3 messages")

	bad := filepath.Join(t.TempDir(), "bad.sge")
	require.NoError(t, os.WriteFile(bad, []byte("A { x: Nope; }"), 0o600))
	_, stderr, err := run(t, "check", testSchema, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 schemas failed")
	assert.Contains(t, stderr, "undeclared type")
}

func TestEncodeDecode(t *testing.T) {
	for _, pack := range []bool{false, true} {
		t.Run(map[bool]string{false: "raw", true: "packed"}[pack], func(t *testing.T) {
			bin := filepath.Join(t.TempDir(), "alice.bin")
			args := []string{"encode", "-s", testSchema, "-t", "Person", "-o", bin, "testdata/alice.yaml"}
			if pack {
				args = append(args, "--pack")
			}
			_, _, err := run(t, args...)
			require.NoError(t, err)

			data, err := os.ReadFile(bin)
			require.NoError(t, err)
			assert.Equal(t, pack, bytes.HasPrefix(data, []byte("SG")))

			out, _, err := run(t, "decode", "-s", testSchema, bin)
			require.NoError(t, err)
			assert.Contains(t, out, "# Person (id 1")

			got, err := readDocuments([]byte(out))
			require.NoError(t, err)
			src, err := os.ReadFile("testdata/alice.yaml")
			require.NoError(t, err)
			want, err := readDocuments(src)
			require.NoError(t, err)

			require.Len(t, got, len(want))
			for i := range want {
				assert.True(t, got[i].Equal(want[i]), "document %d: got %s, want %s", i, got[i], want[i])
			}
		})
	}
}

func TestEncodeMany(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "encode", "-s", testSchema, "-t", "Person", "-p", "-o", dir,
		"testdata/alice.yaml", "testdata/carol.json")
	require.NoError(t, err)

	for _, name := range []string{"alice.sgf", "carol.sgf"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		_, err = frame.Unpack(data)
		assert.NoError(t, err, name)
	}

	_, _, err = run(t, "encode", "-s", testSchema, "-t", "Person", "testdata/alice.yaml", "testdata/carol.json")
	assert.ErrorContains(t, err, "--output directory")
}

func TestEncodeManySameName(t *testing.T) {
	src, err := os.ReadFile("testdata/alice.yaml")
	require.NoError(t, err)
	tmp := t.TempDir()
	var inputs []string
	for _, sub := range []string{"a", "b"} {
		in := filepath.Join(tmp, sub, "person.yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(in), 0o755))
		require.NoError(t, os.WriteFile(in, src, 0o600))
		inputs = append(inputs, in)
	}

	out := filepath.Join(tmp, "out")
	args := append([]string{"encode", "-s", testSchema, "-t", "Person", "-o", out}, inputs...)
	_, _, err = run(t, args...)
	assert.ErrorContains(t, err, "both write")
	assert.NoDirExists(t, out)
}

func TestEncodeErrors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: X\nphone: [{type: notanumber}]\n"), 0o600))

	_, _, err := run(t, "encode", "-s", testSchema, "-t", "Person", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone[0].type")

	_, _, err = run(t, "encode", "-t", "Person", bad)
	assert.ErrorContains(t, err, "no schema")

	_, _, err = run(t, "encode", "-s", testSchema, bad)
	assert.ErrorContains(t, err, "--type")
}

func TestPackUnpack(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw")
	framed := filepath.Join(dir, "framed")
	back := filepath.Join(dir, "back")
	content := append([]byte{1, 2, 3}, make([]byte, 40)...)
	require.NoError(t, os.WriteFile(raw, content, 0o600))

	_, _, err := run(t, "pack", "-o", framed, raw)
	require.NoError(t, err)
	_, _, err = run(t, "unpack", "-o", back, framed)
	require.NoError(t, err)

	got, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, _, err = run(t, "unpack", raw)
	assert.ErrorContains(t, err, "frame_corrupt")
}

func TestInspectPlain(t *testing.T) {
	out, _, err := run(t, "inspect", "--plain", "-s", testSchema)
	require.NoError(t, err)

	reg, err := schema.ParseFile(testSchema)
	require.NoError(t, err)
	assert.Equal(t, reg.String(), out)
}

func TestConfigAndMetrics(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "sgeproto.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("schema: "+testSchema+"\nlog:\n  level: error\n"), 0o600))

	_, stderr, err := run(t, "inspect", "--plain", "-c", cfgPath, "--metrics")
	require.NoError(t, err)
	assert.Contains(t, stderr, `sgeproto_operations_total{op="parse",status="success",type=""} 1`)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("bogus: true\n"), 0o600))
	_, _, err = run(t, "inspect", "-c", bad)
	assert.ErrorContains(t, err, "bogus")
}

func TestToNodeRoundTrip(t *testing.T) {
	v := value.Record(map[string]value.Value{
		"blob":  value.Bytes([]byte{0, 1, 0xff}),
		"big":   value.UInt(1 << 63),
		"neg":   value.Int(-5),
		"ratio": value.Double(2),
		"ok":    value.Bool(true),
		"list":  value.Array(value.Str("a"), value.Str("b")),
	})

	var buf bytes.Buffer
	enc := newYAMLEncoder(&buf)
	require.NoError(t, enc.Encode(toNode(v)))
	require.NoError(t, enc.Close())
	out := buf.String()
	assert.Contains(t, out, "ratio: 2.0")
	assert.Contains(t, out, "!!binary")

	got, err := readDocuments([]byte(out))
	require.NoError(t, err)
	require.Len(t, got, 1)

	blob, _ := got[0].Get("blob")
	s, ok := blob.AsStr()
	require.True(t, ok, "binary scalars decode as strings")
	assert.Equal(t, "\x00\x01\xff", s)

	big, _ := got[0].Get("big")
	assert.True(t, big.Equal(value.UInt(1<<63)))
	ratio, _ := got[0].Get("ratio")
	assert.True(t, ratio.Equal(value.Double(2)))
}

func TestBrowserModel(t *testing.T) {
	reg, err := schema.ParseFile(testSchema)
	require.NoError(t, err)
	m := newBrowserModel("person.sge", reg)
	require.Len(t, m.visible, 3)

	typeText := func(s string) {
		for _, r := range s {
			m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
	}

	typeText("num")
	require.Len(t, m.visible, 1)
	assert.Equal(t, "Phone", m.visible[0].Name)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, stateDetail, m.state)
	view := m.View()
	assert.Contains(t, view, "Phone")
	assert.Contains(t, view, "num")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateList, m.state)

	typeText("zzz")
	assert.Empty(t, m.visible)
	assert.Contains(t, m.View(), "no matching messages")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
