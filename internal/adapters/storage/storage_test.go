package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jsamuelsen/quote-filter/internal/domain"
)

func sampleQuotes() []domain.Quote {
	return []domain.Quote{
		{Content: `He said "hi".`, Author: "Jane Doe", Tags: []string{"life", "love"}},
		{Content: "Plain, with comma.", Author: "John", Tags: []string{"wisdom"}},
	}
}

func TestCodecs_Names(t *testing.T) {
	var names []string
	for _, c := range Codecs(',') {
		names = append(names, c.Name())
	}

	assert.Equal(t, []string{FormatCSV, FormatBytes, FormatBytesZ, FormatMsgpack}, names)
}

func TestCodecs_PreserveQuotes(t *testing.T) {
	for _, codec := range Codecs(',') {
		t.Run(codec.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, codec.Encode(&buf, sampleQuotes()))

			got, err := codec.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, sampleQuotes(), got)
		})
	}
}

func TestCSVCodec_Encode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVCodec(',').Encode(&buf, sampleQuotes()))

	expected := "quote,author,category\n" +
		"\"He said \"\"hi\"\".\",Jane Doe,\"life, love\"\n" +
		"\"Plain, with comma.\",John,wisdom\n"
	assert.Equal(t, expected, buf.String())
}

func TestCSVCodec_DecodeCleanedOutput(t *testing.T) {
	input := "id,author,category,quote\n7,Jane Doe,life,I'm here.\n8,Anon,,Hello.\n"

	quotes, err := NewCSVCodec(',').Decode(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, quotes, 2)
	assert.Equal(t, domain.Quote{Content: "I'm here.", Author: "Jane Doe", Tags: []string{"life"}}, quotes[0])
	assert.Nil(t, quotes[1].Tags)
}

func TestCSVCodec_DecodeMissingColumn(t *testing.T) {
	_, err := NewCSVCodec(',').Decode(strings.NewReader("quote,author\nq,a\n"))

	assert.True(t, domain.IsMalformedRecord(err))
}

func TestGzipGobCodec_IsCompressed(t *testing.T) {
	var plain, zipped bytes.Buffer
	quotes := make([]domain.Quote, 200)
	for i := range quotes {
		quotes[i] = domain.Quote{Content: "The same quote again.", Author: "Echo", Tags: []string{"repeat"}}
	}

	require.NoError(t, GobCodec{}.Encode(&plain, quotes))
	require.NoError(t, GzipGobCodec{}.Encode(&zipped, quotes))

	assert.Equal(t, []byte{0x1f, 0x8b}, zipped.Bytes()[:2])
	assert.Less(t, zipped.Len(), plain.Len())
}

func TestGzipGobCodec_RejectsPlainGob(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GobCodec{}.Encode(&buf, sampleQuotes()))

	_, err := GzipGobCodec{}.Decode(&buf)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gzip")
}

func TestMsgpackCodec_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MsgpackCodec{}.Encode(&buf, sampleQuotes()[:1]))

	var raw []map[string]any
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &raw))

	require.Len(t, raw, 1)
	assert.Equal(t, "Jane Doe", raw[0]["author"])
	assert.Equal(t, `He said "hi".`, raw[0]["content"])
	assert.Contains(t, raw[0], "tags")
}

func TestDecoders_RejectGarbage(t *testing.T) {
	garbage := []byte("definitely not an encoded quote list")
	for _, codec := range Codecs(',')[1:] {
		t.Run(codec.Name(), func(t *testing.T) {
			_, err := codec.Decode(bytes.NewReader(garbage))
			assert.Error(t, err)
		})
	}
}

func TestSink_EncodesOnClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(MsgpackCodec{}, &buf)

	require.NoError(t, sink.WriteHeader([]string{"author", "quote", "category", "likes"}))

	for _, q := range sampleQuotes() {
		rec, err := domain.NewRecord(
			[]string{"author", "quote", "category", "likes"},
			[]string{q.Author, q.Content, q.Category(), "3"},
		)
		require.NoError(t, err)
		require.NoError(t, sink.Write(context.Background(), rec))
	}

	assert.Zero(t, buf.Len(), "nothing is written before Close")
	assert.Equal(t, 2, sink.Len())

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	decoded, err := MsgpackCodec{}.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleQuotes(), decoded)
}

func TestSink_EmptyCollection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSink(NewCSVCodec(','), &buf).Close())

	assert.Equal(t, "quote,author,category\n", buf.String())
}
