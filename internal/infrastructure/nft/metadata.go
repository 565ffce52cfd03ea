package nft

import (
	"encoding/binary"
	"fmt"
	"strings"

	"portfolio_aggregator/internal/domain/entity"
)

// metadataHeaderLen covers the fields before the name string in a metadata
// account: key (1 byte), update authority (32), mint (32).
const metadataHeaderLen = 1 + 32 + 32

// maxMetadataStringLen guards against decoding garbage length prefixes.
const maxMetadataStringLen = 4096

// DecodeMetadata decodes the Borsh-encoded name, symbol and uri out of a raw
// metadata account. The on-chain strings are fixed-capacity and padded with
// NUL bytes, which are trimmed here.
func DecodeMetadata(mint, metadataAddress string, data []byte) (*entity.OnChainNftMetadata, error) {
	offset := metadataHeaderLen

	name, offset, err := readBorshString(data, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to decode name of metadata %s: %w", metadataAddress, err)
	}
	symbol, offset, err := readBorshString(data, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to decode symbol of metadata %s: %w", metadataAddress, err)
	}
	uri, _, err := readBorshString(data, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to decode uri of metadata %s: %w", metadataAddress, err)
	}

	return &entity.OnChainNftMetadata{
		Mint:            mint,
		MetadataAddress: metadataAddress,
		Name:            name,
		Symbol:          symbol,
		URI:             uri,
	}, nil
}

// readBorshString reads a u32-length-prefixed string and returns the trimmed
// value plus the offset just past it.
func readBorshString(data []byte, offset int) (string, int, error) {
	if offset+4 > len(data) {
		return "", 0, fmt.Errorf("truncated string length at offset %d", offset)
	}
	length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	if length > maxMetadataStringLen {
		return "", 0, fmt.Errorf("implausible string length %d at offset %d", length, offset)
	}
	offset += 4
	if offset+length > len(data) {
		return "", 0, fmt.Errorf("truncated string payload at offset %d (length %d)", offset, length)
	}
	value := strings.TrimRight(string(data[offset:offset+length]), "\x00")
	return strings.TrimSpace(value), offset + length, nil
}
