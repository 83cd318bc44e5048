package carve

import (
	"encoding/binary"
)

const mainHeaderSize = 100
const walHeaderSize = 32
const sqliteMagic = "SQLite format 3\x00"

// TextEncoding is the database's declared text encoding (main header offset
// 56), used when decoding TEXT columns (spec.md §3 serial type ≥13 odd).
type TextEncoding uint32

const (
	EncodingUTF8    TextEncoding = 1
	EncodingUTF16LE TextEncoding = 2
	EncodingUTF16BE TextEncoding = 3
)

// Header is the decoded 100-byte main database header (spec.md §4.2).
// Field names follow the on-disk layout rather than the teacher's
// binary.Read struct (that struct over-read trailing SQLite-version fields
// this decoder never needs); only the fields the spec names are kept.
type Header struct {
	PageSize            int
	FileChangeCounter    uint32
	PageCount           uint32
	FirstFreelistTrunk  uint32
	FreelistPageCount   uint32
	AutoVacuum          uint32
	TextEncoding        TextEncoding
}

// ReadHeader parses the first 100 bytes of a main database file.
// Grounded on the teacher's DatabaseRawImpl.parseHeader (database_raw.go)
// and original_source/SQBite/Modules/parsesqliteheader.py.
func ReadHeader(buf []byte) (*Header, error) {
	if len(buf) < mainHeaderSize {
		return nil, newDecodeError("read_header", 1, 0, ErrTruncatedHeader)
	}
	if string(buf[:16]) != sqliteMagic {
		return nil, newDecodeError("read_header", 1, 0, ErrNotSQLite)
	}

	rawPageSize := binary.BigEndian.Uint16(buf[16:18])
	pageSize := int(rawPageSize)
	if rawPageSize == 1 {
		pageSize = 65536
	}
	if pageSize < 512 || pageSize > 65536 || pageSize&(pageSize-1) != 0 {
		return nil, newDecodeError("read_header", 1, 16, ErrBadPageSize)
	}

	h := &Header{
		PageSize:           pageSize,
		FileChangeCounter:  binary.BigEndian.Uint32(buf[24:28]),
		PageCount:          binary.BigEndian.Uint32(buf[28:32]),
		FirstFreelistTrunk: binary.BigEndian.Uint32(buf[32:36]),
		FreelistPageCount:  binary.BigEndian.Uint32(buf[36:40]),
		AutoVacuum:         binary.BigEndian.Uint32(buf[52:56]),
		TextEncoding:       TextEncoding(binary.BigEndian.Uint32(buf[56:60])),
	}
	if h.TextEncoding == 0 {
		h.TextEncoding = EncodingUTF8
	}
	return h, nil
}

// WALHeader is the decoded 32-byte WAL header (spec.md §4.2).
type WALHeader struct {
	PageSize int
	Salt1    uint32
	Salt2    uint32
}

const (
	walMagicLE uint32 = 0x377F0682
	walMagicBE uint32 = 0x377F0683
)

// ReadWALHeader parses the first 32 bytes of a WAL sidecar file. Grounded on
// original_source/SQBite/Modules/parsewalheader.py.
func ReadWALHeader(buf []byte) (*WALHeader, error) {
	if len(buf) < walHeaderSize {
		return nil, newDecodeError("read_wal_header", 0, 0, ErrTruncatedHeader)
	}
	magic := binary.BigEndian.Uint32(buf[0:4])
	if magic != walMagicLE && magic != walMagicBE {
		return nil, newDecodeError("read_wal_header", 0, 0, ErrNotWAL)
	}
	return &WALHeader{
		PageSize: int(binary.BigEndian.Uint32(buf[8:12])),
		Salt1:    binary.BigEndian.Uint32(buf[16:20]),
		Salt2:    binary.BigEndian.Uint32(buf[20:24]),
	}, nil
}
