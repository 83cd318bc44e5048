package carve

import (
	"encoding/binary"
	"testing"
)

func buildMainHeader(pageSize uint16, pageCount, firstTrunk, autoVacuum uint32) []byte {
	buf := make([]byte, mainHeaderSize)
	copy(buf, sqliteMagic)
	binary.BigEndian.PutUint16(buf[16:18], pageSize)
	binary.BigEndian.PutUint32(buf[28:32], pageCount)
	binary.BigEndian.PutUint32(buf[32:36], firstTrunk)
	binary.BigEndian.PutUint32(buf[52:56], autoVacuum)
	binary.BigEndian.PutUint32(buf[56:60], uint32(EncodingUTF8))
	return buf
}

func TestReadHeaderValid(t *testing.T) {
	buf := buildMainHeader(4096, 10, 0, 0)
	h, err := ReadHeader(buf)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.PageSize != 4096 {
		t.Errorf("PageSize = %d, want 4096", h.PageSize)
	}
	if h.PageCount != 10 {
		t.Errorf("PageCount = %d, want 10", h.PageCount)
	}
}

func TestReadHeaderPageSizeOneMeans65536(t *testing.T) {
	buf := buildMainHeader(1, 1, 0, 0)
	h, err := ReadHeader(buf)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.PageSize != 65536 {
		t.Errorf("PageSize = %d, want 65536", h.PageSize)
	}
}

func TestReadHeaderBadMagic(t *testing.T) {
	buf := buildMainHeader(4096, 1, 0, 0)
	copy(buf, "NOT A SQLITE FIL")
	_, err := ReadHeader(buf)
	if !isKind(err, ErrNotSQLite) {
		t.Errorf("ReadHeader() error = %v, want ErrNotSQLite", err)
	}
}

func TestReadHeaderBadPageSize(t *testing.T) {
	buf := buildMainHeader(4097, 1, 0, 0) // not a power of two
	_, err := ReadHeader(buf)
	if !isKind(err, ErrBadPageSize) {
		t.Errorf("ReadHeader() error = %v, want ErrBadPageSize", err)
	}
}

func TestReadHeaderTruncated(t *testing.T) {
	_, err := ReadHeader(make([]byte, 50))
	if !isKind(err, ErrTruncatedHeader) {
		t.Errorf("ReadHeader() error = %v, want ErrTruncatedHeader", err)
	}
}

func TestReadWALHeaderBadMagic(t *testing.T) {
	buf := make([]byte, walHeaderSize)
	_, err := ReadWALHeader(buf)
	if !isKind(err, ErrNotWAL) {
		t.Errorf("ReadWALHeader() error = %v, want ErrNotWAL", err)
	}
}

func TestReadWALHeaderValid(t *testing.T) {
	buf := make([]byte, walHeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], walMagicBE)
	binary.BigEndian.PutUint32(buf[8:12], 4096)
	binary.BigEndian.PutUint32(buf[16:20], 111)
	binary.BigEndian.PutUint32(buf[20:24], 222)
	h, err := ReadWALHeader(buf)
	if err != nil {
		t.Fatalf("ReadWALHeader() error = %v", err)
	}
	if h.PageSize != 4096 || h.Salt1 != 111 || h.Salt2 != 222 {
		t.Errorf("ReadWALHeader() = %+v, want PageSize=4096 Salt1=111 Salt2=222", h)
	}
}
