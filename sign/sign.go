// Package sign implements the signed-module envelope spliced into a WASM
// binary's custom section: a zstd-compressed, LEB128-length-prefixed
// metadata token authenticated with ECDSA over secp256k1, ported
// byte-for-byte from the signing envelope of the system this engine
// implements.
package sign

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tea-actorx/actorx-go/actorx"
)

// wasmHeadLength is the length of a WASM module's magic number + version
// header, which precedes the custom signature section we splice in.
const wasmHeadLength = 8

// currentVersion is the Metatoken wire version produced by Sign.
const currentVersion = uint32(1)

// sectionName is the custom WASM section name carrying the signature token,
// prefixed with a tab character exactly as the original envelope does.
var sectionName = []byte("\tSignature")

// ErrInvalidSignatureFormat signals that a module's custom section is not a
// recognizable signature envelope.
var ErrInvalidSignatureFormat = errors.New("sign: invalid signature format")

// ErrSignatureMismatch signals that a module's signature does not verify
// against its embedded signer key.
var ErrSignatureMismatch = errors.New("sign: signature mismatch")

// metatoken is the outer envelope: a versioned, msgpack-encoded metadata
// payload plus the ECDSA signature over it.
type metatoken struct {
	Version   uint32
	Payload   []byte
	Signature []byte
}

// Sign splices a signature envelope for metadata into wasm, signing with the
// secp256k1 private key signer. metadata.Signer is overwritten with the
// corresponding compressed SEC1 public key before signing, matching the
// original envelope's behavior of deriving the signer field from the key
// rather than trusting a caller-supplied one.
func Sign(wasm []byte, metadata actorx.Metadata, signer *btcec.PrivateKey) ([]byte, error) {
	metadata.Signer = signer.PubKey().SerializeCompressed()

	payload, err := msgpack.Marshal(&metadata)
	if err != nil {
		return nil, fmt.Errorf("sign: marshal metadata: %w", err)
	}

	digest := sha256.New()
	digest.Write(wasm[:wasmHeadLength])
	digest.Write(wasm[wasmHeadLength:])
	digest.Write(payload)
	signature := ecdsa.Sign(signer, digest.Sum(nil))

	token, err := msgpack.Marshal(&metatoken{
		Version:   currentVersion,
		Payload:   payload,
		Signature: signature.Serialize(),
	})
	if err != nil {
		return nil, fmt.Errorf("sign: marshal token: %w", err)
	}

	compressed, err := zstdCompress(token)
	if err != nil {
		return nil, fmt.Errorf("sign: compress token: %w", err)
	}

	section := encodeSection(compressed)

	out := make([]byte, 0, len(wasm)+len(section))
	out = append(out, wasm[:wasmHeadLength]...)
	out = append(out, section...)
	out = append(out, wasm[wasmHeadLength:]...)
	return out, nil
}

// Verify checks wasm's embedded signature envelope and returns the signed
// metadata on success.
func Verify(wasm []byte) (actorx.Metadata, error) {
	var metadata actorx.Metadata
	if len(wasm) < wasmHeadLength {
		return metadata, ErrInvalidSignatureFormat
	}
	head := wasm[:wasmHeadLength]
	rest := wasm[wasmHeadLength:]

	if len(rest) < 1 || rest[0] != 0 {
		return metadata, ErrInvalidSignatureFormat
	}
	rest = rest[1:]

	sectionLen, n, err := decodeLEB128(rest)
	if err != nil {
		return metadata, fmt.Errorf("%w: %w", ErrInvalidSignatureFormat, err)
	}
	rest = rest[n:]

	if uint64(len(rest)) < sectionLen {
		return metadata, ErrInvalidSignatureFormat
	}
	section, wasmRest := rest[:sectionLen], rest[sectionLen:]

	if !bytes.HasPrefix(section, sectionName) {
		return metadata, ErrInvalidSignatureFormat
	}
	compressed := section[len(sectionName):]

	tokenBytes, err := zstdDecompress(compressed)
	if err != nil {
		return metadata, fmt.Errorf("sign: decompress token: %w", err)
	}

	var token metatoken
	if err := msgpack.Unmarshal(tokenBytes, &token); err != nil {
		return metadata, fmt.Errorf("sign: unmarshal token: %w", err)
	}
	if err := msgpack.Unmarshal(token.Payload, &metadata); err != nil {
		return metadata, fmt.Errorf("sign: unmarshal metadata: %w", err)
	}

	pubKey, err := btcec.ParsePubKey(metadata.Signer)
	if err != nil {
		return metadata, fmt.Errorf("sign: parse signer key: %w", err)
	}

	digest := sha256.New()
	digest.Write(head)
	digest.Write(wasmRest)
	digest.Write(token.Payload)

	signature, err := ecdsa.ParseDERSignature(token.Signature)
	if err != nil {
		return metadata, fmt.Errorf("sign: parse signature: %w", err)
	}
	if !signature.Verify(digest.Sum(nil), pubKey) {
		return metadata, ErrSignatureMismatch
	}

	return metadata, nil
}

func encodeSection(compressed []byte) []byte {
	lengthPayload := encodeLEB128(uint64(len(compressed) + len(sectionName)))
	section := make([]byte, 0, 1+len(lengthPayload)+len(sectionName)+len(compressed))
	section = append(section, 0) // custom section id
	section = append(section, lengthPayload...)
	section = append(section, sectionName...)
	section = append(section, compressed...)
	return section
}

func zstdCompress(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, nil), nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}

// encodeLEB128 encodes n as an unsigned little-endian base-128 varint,
// matching the Rust leb128 crate's write::unsigned.
func encodeLEB128(n uint64) []byte {
	var buf []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if n == 0 {
			return buf
		}
	}
}

// decodeLEB128 decodes an unsigned LEB128 varint from the front of b,
// returning the value and the number of bytes consumed.
func decodeLEB128(b []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i, c := range b {
		if shift >= 64 {
			return 0, 0, errors.New("sign: leb128 overflow")
		}
		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.New("sign: truncated leb128 value")
}
