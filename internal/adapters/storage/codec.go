// Package storage encodes cleaned quote collections in the supported
// storage formats.
package storage

import (
	"github.com/jsamuelsen/quote-filter/internal/ports"
)

// Format names.
const (
	FormatCSV     = "csv"
	FormatBytes   = "bytes"
	FormatBytesZ  = "bytesz"
	FormatMsgpack = "msgpack"
)

// Codecs returns one codec per supported format. delimiter applies to csv.
func Codecs(delimiter rune) []ports.QuoteCodec {
	return []ports.QuoteCodec{
		NewCSVCodec(delimiter),
		GobCodec{},
		GzipGobCodec{},
		MsgpackCodec{},
	}
}
