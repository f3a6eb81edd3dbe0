// pkg/object/encrypt.go

package object

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	encryptSalt  = "rafs-ctr"
	encryptIters = 10000
	encryptKey   = 32 // AES-256
)

// encrypted stores the file encrypted with AES-CTR. The keystream is addressed
// by byte offset so every chunk can be read or written on its own.
type encrypted struct {
	Storage
	block cipher.Block
	iv    [aes.BlockSize]byte
}

// NewEncrypted returns a storage that encrypts everything written to s.
// Key and IV are both derived from passphrase, so the file can be read back
// under any name or URL as long as the passphrase is the same.
func NewEncrypted(s Storage, passphrase string) (Storage, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("empty passphrase")
	}
	dk := pbkdf2.Key([]byte(passphrase), []byte(encryptSalt), encryptIters, encryptKey+aes.BlockSize, sha256.New)
	block, err := aes.NewCipher(dk[:encryptKey])
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %s", err)
	}
	e := &encrypted{Storage: s, block: block}
	copy(e.iv[:], dk[encryptKey:])
	return e, nil
}

func (e *encrypted) String() string {
	return fmt.Sprintf("%s(encrypted)", e.Storage)
}

// xorAt applies the keystream for the file range starting at off to buf in place.
func (e *encrypted) xorAt(buf []byte, off int64) {
	if len(buf) == 0 {
		return
	}
	var iv [aes.BlockSize]byte
	copy(iv[:], e.iv[:])
	// add the block counter to the 128-bit big endian IV
	ctr := uint64(off / aes.BlockSize)
	lo := binary.BigEndian.Uint64(iv[8:])
	hi := binary.BigEndian.Uint64(iv[:8])
	nlo := lo + ctr
	if nlo < lo {
		hi++
	}
	binary.BigEndian.PutUint64(iv[:8], hi)
	binary.BigEndian.PutUint64(iv[8:], nlo)

	stream := cipher.NewCTR(e.block, iv[:])
	if skip := int(off % aes.BlockSize); skip > 0 {
		var pad [aes.BlockSize]byte
		stream.XORKeyStream(pad[:skip], pad[:skip])
	}
	stream.XORKeyStream(buf, buf)
}

func (e *encrypted) FetchChunk(off int64, capacity int) ([]byte, error) {
	buf, err := e.Storage.FetchChunk(off, capacity)
	if err != nil {
		return nil, err
	}
	e.xorAt(buf, off)
	return buf, nil
}

func (e *encrypted) PushChunk(off int64, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	e.xorAt(buf, off)
	return e.Storage.PushChunk(off, buf)
}

// Grow writes an encrypted zero, so the last byte of the grown range reads back as zero.
func (e *encrypted) Grow(newLength int64) error {
	if newLength <= 0 {
		return nil
	}
	return e.PushChunk(newLength-1, []byte{0})
}

func (e *encrypted) Remove() error {
	if r, ok := e.Storage.(Remover); ok {
		return r.Remove()
	}
	return fmt.Errorf("%s does not support Remove()", e.Storage)
}

var _ Storage = &encrypted{}
