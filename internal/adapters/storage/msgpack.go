package storage

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/jsamuelsen/quote-filter/internal/domain"
)

// MsgpackCodec stores quotes as a msgpack array of maps keyed by the
// msgpack tags on domain.Quote.
type MsgpackCodec struct{}

// Name implements ports.QuoteCodec.
func (MsgpackCodec) Name() string { return FormatMsgpack }

// Encode implements ports.QuoteCodec.
func (MsgpackCodec) Encode(w io.Writer, quotes []domain.Quote) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)

	if err := enc.Encode(quotes); err != nil {
		return fmt.Errorf("encoding msgpack: %w", err)
	}

	return nil
}

// Decode implements ports.QuoteCodec.
func (MsgpackCodec) Decode(r io.Reader) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, 0)
	if err := msgpack.NewDecoder(r).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("decoding msgpack: %w", err)
	}

	return quotes, nil
}
