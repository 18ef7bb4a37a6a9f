// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/holiman/uint256"
	"github.com/pierrec/lz4"
)

// history dumps are JSON lines, one block header per line, optionally inside an lz4 frame

// lz4 frame magic number, little-endian
var lz4FrameMagic = []byte{0x04, 0x22, 0x4d, 0x18}

// max length of one exported line
const maxSampleLineSize = 1 << 20

type sampleJSON struct {
	Height               int64     `json:"height"`
	Hash                 BlockHash `json:"hash"`
	Timestamp            int64     `json:"timestamp"`
	CumulativeDifficulty string    `json:"cumulative_difficulty"`
	MajorVersion         uint8     `json:"major_version"`
	MinorVersion         uint8     `json:"minor_version"`
	SizeVote             uint64    `json:"size_vote"`
	Size                 uint64    `json:"size"`
}

// ExportSamples writes samples as JSON lines. The output is an lz4 frame if compress is set.
func ExportSamples(w io.Writer, samples []BlockSample, compress bool) error {
	out := w
	var zw *lz4.Writer
	if compress {
		zw = lz4.NewWriter(w)
		out = zw
	}

	bw := bufio.NewWriter(out)
	enc := json.NewEncoder(bw)
	for _, sample := range samples {
		record := sampleJSON{
			Height:               sample.Height,
			Hash:                 sample.Hash,
			Timestamp:            sample.Timestamp,
			CumulativeDifficulty: sample.CumulativeDifficulty.ToBig().String(),
			MajorVersion:         sample.MajorVersion,
			MinorVersion:         sample.MinorVersion,
			SizeVote:             sample.SizeVote,
			Size:                 sample.Size,
		}
		if err := enc.Encode(&record); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if zw != nil {
		return zw.Close()
	}
	return nil
}

// ImportSamples reads JSON lines written by ExportSamples, compressed or not.
// Header dumps from other tools are accepted too: unknown fields are ignored and
// "block_capacity_vote" and "transactions_size" are read as the size vote and size.
func ImportSamples(r io.Reader) ([]BlockSample, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(lz4FrameMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}

	var in io.Reader = br
	if bytes.Equal(magic, lz4FrameMagic) {
		in = lz4.NewReader(br)
	}

	var samples []BlockSample
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxSampleLineSize)
	line := 0
	for scanner.Scan() {
		line++
		record := bytes.TrimSpace(scanner.Bytes())
		if len(record) == 0 {
			continue
		}
		sample, err := parseSample(record)
		if err != nil {
			return nil, fmt.Errorf("Line %d: %w", line, err)
		}
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func parseSample(record []byte) (BlockSample, error) {
	var sample BlockSample
	var err error

	if sample.Height, err = jsonparser.GetInt(record, "height"); err != nil {
		return sample, fmt.Errorf("height: %w", err)
	}
	if sample.Height < 0 || sample.Height > MAX_NUMBER {
		return sample, fmt.Errorf("Height %d out of range", sample.Height)
	}
	hash, err := jsonparser.GetString(record, "hash")
	if err != nil {
		return sample, fmt.Errorf("hash: %w", err)
	}
	if err := sample.Hash.UnmarshalText([]byte(hash)); err != nil {
		return sample, fmt.Errorf("hash: %w", err)
	}
	if sample.Timestamp, err = jsonparser.GetInt(record, "timestamp"); err != nil {
		return sample, fmt.Errorf("timestamp: %w", err)
	}
	if sample.Timestamp < 0 || sample.Timestamp > MAX_NUMBER {
		return sample, fmt.Errorf("Timestamp %d out of range", sample.Timestamp)
	}

	cumulative, _, _, err := jsonparser.Get(record, "cumulative_difficulty")
	if err != nil {
		return sample, fmt.Errorf("cumulative_difficulty: %w", err)
	}
	if err := parseDifficulty(&sample.CumulativeDifficulty, string(cumulative)); err != nil {
		return sample, err
	}

	major, err := jsonparser.GetInt(record, "major_version")
	if err != nil {
		return sample, fmt.Errorf("major_version: %w", err)
	}
	minor, err := getOptionalInt(record, "minor_version")
	if err != nil {
		return sample, err
	}
	if major < 0 || major > 255 || minor < 0 || minor > 255 {
		return sample, fmt.Errorf("Version %d.%d out of range", major, minor)
	}
	sample.MajorVersion, sample.MinorVersion = uint8(major), uint8(minor)

	vote, err := getOptionalInt(record, "size_vote", "block_capacity_vote")
	if err != nil {
		return sample, err
	}
	size, err := getOptionalInt(record, "size", "transactions_size")
	if err != nil {
		return sample, err
	}
	if vote < 0 || size < 0 {
		return sample, fmt.Errorf("Negative size %d or size vote %d", size, vote)
	}
	sample.SizeVote, sample.Size = uint64(vote), uint64(size)
	return sample, nil
}

// returns the value of the first key present, 0 if none is
func getOptionalInt(record []byte, keys ...string) (int64, error) {
	for _, key := range keys {
		value, err := jsonparser.GetInt(record, key)
		if err == jsonparser.KeyPathNotFoundError {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return value, nil
	}
	return 0, nil
}

// accepts a decimal string or a bare JSON number
func parseDifficulty(d *uint256.Int, s string) error {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 {
		return fmt.Errorf("Invalid cumulative difficulty %s", strconv.Quote(s))
	}
	if overflow := d.SetFromBig(b); overflow {
		return fmt.Errorf("Cumulative difficulty %s overflows 256 bits", s)
	}
	return nil
}
