package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	digest "github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/meigma/casc"
	"github.com/meigma/casc/internal/testutil"
	"github.com/meigma/casc/tact"
)

var (
	fileCKey     = bytes.Repeat([]byte{0x11}, 16)
	fileEKey     = bytes.Repeat([]byte{0x21}, 16)
	manifestCKey = bytes.Repeat([]byte{0x12}, 16)
	manifestEKey = bytes.Repeat([]byte{0x22}, 16)
	encodingKey  = bytes.Repeat([]byte{0xEE}, 16)
	fileContent  = []byte("hello from cascget")
)

// buildStore writes a store holding one file, one empty content manifest
// and their encoding table.
func buildStore(tb testing.TB) string {
	tb.Helper()

	manifest := make([]byte, tact.ContentManifestHeaderSize+4)
	binary.LittleEndian.PutUint32(manifest[0:], 4242)
	binary.LittleEndian.PutUint32(manifest[tact.ContentManifestHeaderSize:], 0x636D66<<8)

	filePayload := testutil.BuildBLTE(tb, testutil.Chunk{Mode: 'Z', Content: fileContent})
	manifestPayload := testutil.BuildBLTE(tb, testutil.Chunk{Mode: 'N', Content: manifest})

	table := testutil.BuildEncoding(tb, testutil.EncodingTable{
		CKeySize: 16,
		EKeySize: 16,
		CPageKiB: 1,
		EPageKiB: 1,
		Specs:    []string{"z", "n"},
		CPages: [][]testutil.CKeyRecord{{
			{CKey: fileCKey, Size: uint64(len(fileContent)), EKeys: [][]byte{fileEKey}},
			{CKey: manifestCKey, Size: uint64(len(manifest)), EKeys: [][]byte{manifestEKey}},
		}},
		EPages: [][]testutil.EKeyRecord{{
			{EKey: fileEKey, SpecIndex: 0, Size: uint64(len(filePayload))},
		}},
	})

	return testutil.BuildStore(tb,
		testutil.Record{Key: fileEKey, Payload: filePayload, Bucket: 1},
		testutil.Record{Key: manifestEKey, Payload: manifestPayload, Bucket: 2, File: 1},
		testutil.Record{Key: encodingKey, Payload: testutil.BuildBLTE(tb, testutil.Chunk{Mode: 'Z', Content: table}), Bucket: 3},
	).Dir
}

func runCmd(tb testing.TB, args ...string) (stdout []byte, err error) {
	tb.Helper()

	var out, errOut bytes.Buffer
	err = run(args, &out, &errOut)
	return out.Bytes(), err
}

func TestRun_Stat(t *testing.T) {
	t.Parallel()

	dir := buildStore(t)

	out, err := runCmd(t, "--store", dir, "stat")
	require.NoError(t, err)
	var rep statReport
	require.NoError(t, json.Unmarshal(out, &rep))
	assert.Equal(t, dir, rep.Dir)
	assert.Equal(t, "data", rep.DataPath)
	assert.Equal(t, 3, rep.Entries)
	require.Len(t, rep.Buckets, 16)
	assert.Equal(t, uint32(0), rep.Buckets[0].Version)
	assert.Empty(t, rep.Buckets[0].File)
	assert.Equal(t, "0100000001.idx", rep.Buckets[1].File)
	assert.Nil(t, rep.Encoding)

	out, err = runCmd(t, "--store", dir, "--encoding-key", casc.FormatKey(encodingKey), "stat")
	require.NoError(t, err)
	rep = statReport{}
	require.NoError(t, json.Unmarshal(out, &rep))
	require.NotNil(t, rep.Encoding)
	assert.Equal(t, 2, rep.Encoding.ContentKeys)
	assert.Equal(t, 16, rep.Encoding.CKeySize)
	assert.Equal(t, []string{"z", "n"}, rep.Encoding.Specs)
}

func TestRun_StatCBOR(t *testing.T) {
	t.Parallel()

	dir := buildStore(t)
	out, err := runCmd(t, "--store", dir, "--format", "cbor", "stat")
	require.NoError(t, err)

	var rep statReport
	require.NoError(t, cbor.Unmarshal(out, &rep))
	assert.Equal(t, 3, rep.Entries)

	// Deterministic encoding gives identical bytes on every run.
	again, err := runCmd(t, "--store", dir, "--format", "cbor", "stat")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestRun_Resolve(t *testing.T) {
	t.Parallel()

	dir := buildStore(t)
	ek := casc.FormatKey(encodingKey)

	out, err := runCmd(t, "--store", dir, "--encoding-key", ek, "resolve", casc.FormatKey(fileCKey))
	require.NoError(t, err)
	var rep resolveReport
	require.NoError(t, json.Unmarshal(out, &rep))
	assert.Equal(t, []string{casc.FormatKey(fileEKey)}, rep.EKeys)
	assert.Equal(t, uint64(len(fileContent)), rep.ContentSize)
	assert.Equal(t, "z", rep.Spec)
	assert.NotZero(t, rep.EncodedSize)

	// The manifest has no e-key page entry.
	out, err = runCmd(t, "--store", dir, "--encoding-key", ek, "resolve", casc.FormatKey(manifestCKey))
	require.NoError(t, err)
	rep = resolveReport{}
	require.NoError(t, json.Unmarshal(out, &rep))
	assert.Empty(t, rep.Spec)

	_, err = runCmd(t, "--store", dir, "--encoding-key", ek, "resolve", "00")
	require.ErrorIs(t, err, casc.ErrEntryNotFound)
}

func TestRun_Get(t *testing.T) {
	t.Parallel()

	dir := buildStore(t)
	ek := casc.FormatKey(encodingKey)

	out, err := runCmd(t, "--store", dir, "--encoding-key", ek, "get", casc.FormatKey(fileCKey))
	require.NoError(t, err)
	assert.Equal(t, fileContent, out)

	dest := filepath.Join(t.TempDir(), "file.bin")
	out, err = runCmd(t, "--store", dir, "--encoding-key", ek, "get", casc.FormatKey(fileCKey), "-o", dest)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, fileContent, written)

	var rep fileReport
	require.NoError(t, json.Unmarshal(out, &rep))
	assert.Equal(t, casc.FormatKey(fileCKey), rep.CKey)
	assert.Equal(t, casc.FormatKey(fileEKey), rep.EKey)
	assert.Equal(t, len(fileContent), rep.Size)
	assert.Equal(t, digest.FromBytes(fileContent).String(), rep.Digest)
	assert.Equal(t, dest, rep.Output)
}

func TestRun_Raw(t *testing.T) {
	t.Parallel()

	dir := buildStore(t)
	dest := filepath.Join(t.TempDir(), "file.blte")

	// raw needs no encoding table.
	out, err := runCmd(t, "--store", dir, "--format", "yaml", "raw", "-o", dest, casc.FormatKey(fileEKey))
	require.NoError(t, err)

	var rep fileReport
	require.NoError(t, yaml.Unmarshal(out, &rep))
	assert.Empty(t, rep.CKey)
	assert.Equal(t, casc.FormatKey(fileEKey), rep.EKey)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("BLTE"), written[:4])
	assert.Equal(t, len(written), rep.Size)
	assert.Equal(t, digest.FromBytes(written).String(), rep.Digest)
}

func TestRun_Manifest(t *testing.T) {
	t.Parallel()

	dir := buildStore(t)
	out, err := runCmd(t, "--store", dir, "--encoding-key", casc.FormatKey(encodingKey),
		"manifest", "TactManifest/Win_SPWin_RCN_EExt.cmf", casc.FormatKey(manifestCKey))
	require.NoError(t, err)

	var rep manifestReport
	require.NoError(t, json.Unmarshal(out, &rep))
	assert.Equal(t, uint32(4242), rep.Build)
	assert.Empty(t, rep.Entries)
	assert.Empty(t, rep.Assets)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	dir := buildStore(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing command", []string{"--store", dir}},
		{"unknown command", []string{"--store", dir, "list"}},
		{"missing store", []string{"stat"}},
		{"missing encoding key", []string{"--store", dir, "resolve", casc.FormatKey(fileCKey)}},
		{"bad key", []string{"--store", dir, "raw", "zz"}},
		{"extra argument", []string{"--store", dir, "stat", "extra"}},
		{"missing argument", []string{"--store", dir, "raw"}},
		{"bad format", []string{"--store", dir, "--format", "xml", "stat"}},
		{"bad store", []string{"--store", filepath.Join(dir, "missing"), "stat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := runCmd(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	require.NoError(t, run([]string{"--help"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "manifest <name> <ckey>")
	assert.Contains(t, errOut.String(), "--encoding-key")
}
