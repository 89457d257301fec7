package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatCBOR = "cbor"
)

// cborEncMode produces identical bytes for identical reports.
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cascget: CBOR encoder initialization failed: " + err.Error())
	}
}

// writeReport encodes v to w in format.
func writeReport(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatCBOR:
		data, err := cborEncMode.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

type bucketReport struct {
	Bucket  int    `json:"bucket" yaml:"bucket" cbor:"bucket"`
	Version uint32 `json:"version" yaml:"version" cbor:"version"`
	File    string `json:"file,omitempty" yaml:"file,omitempty" cbor:"file,omitempty"`
}

type encodingReport struct {
	Key         string   `json:"key" yaml:"key" cbor:"key"`
	ContentKeys int      `json:"content_keys" yaml:"content_keys" cbor:"content_keys"`
	CKeySize    int      `json:"ckey_size" yaml:"ckey_size" cbor:"ckey_size"`
	EKeySize    int      `json:"ekey_size" yaml:"ekey_size" cbor:"ekey_size"`
	Specs       []string `json:"specs" yaml:"specs" cbor:"specs"`
}

type statReport struct {
	Dir        string          `json:"dir" yaml:"dir" cbor:"dir"`
	DataPath   string          `json:"data_path" yaml:"data_path" cbor:"data_path"`
	Entries    int             `json:"entries" yaml:"entries" cbor:"entries"`
	FreeSpaces int             `json:"free_spaces" yaml:"free_spaces" cbor:"free_spaces"`
	Buckets    []bucketReport  `json:"buckets" yaml:"buckets" cbor:"buckets"`
	Encoding   *encodingReport `json:"encoding,omitempty" yaml:"encoding,omitempty" cbor:"encoding,omitempty"`
}

type resolveReport struct {
	CKey        string   `json:"ckey" yaml:"ckey" cbor:"ckey"`
	EKeys       []string `json:"ekeys" yaml:"ekeys" cbor:"ekeys"`
	ContentSize uint64   `json:"content_size" yaml:"content_size" cbor:"content_size"`
	Spec        string   `json:"spec,omitempty" yaml:"spec,omitempty" cbor:"spec,omitempty"`
	EncodedSize uint64   `json:"encoded_size,omitempty" yaml:"encoded_size,omitempty" cbor:"encoded_size,omitempty"`
}

type fileReport struct {
	CKey   string `json:"ckey,omitempty" yaml:"ckey,omitempty" cbor:"ckey,omitempty"`
	EKey   string `json:"ekey" yaml:"ekey" cbor:"ekey"`
	Size   int    `json:"size" yaml:"size" cbor:"size"`
	Digest string `json:"digest" yaml:"digest" cbor:"digest"`
	Output string `json:"output" yaml:"output" cbor:"output"`
}

type manifestEntryReport struct {
	Index uint32 `json:"index" yaml:"index" cbor:"index"`
	HashA string `json:"hash_a" yaml:"hash_a" cbor:"hash_a"`
	HashB string `json:"hash_b" yaml:"hash_b" cbor:"hash_b"`
}

type manifestAssetReport struct {
	GUID string `json:"guid" yaml:"guid" cbor:"guid"`
	Type uint16 `json:"type" yaml:"type" cbor:"type"`
	Size uint32 `json:"size" yaml:"size" cbor:"size"`
	MD5  string `json:"md5" yaml:"md5" cbor:"md5"`
}

type manifestReport struct {
	Name    string                `json:"name" yaml:"name" cbor:"name"`
	CKey    string                `json:"ckey" yaml:"ckey" cbor:"ckey"`
	Build   uint32                `json:"build" yaml:"build" cbor:"build"`
	Entries []manifestEntryReport `json:"entries" yaml:"entries" cbor:"entries"`
	Assets  []manifestAssetReport `json:"assets" yaml:"assets" cbor:"assets"`
}
