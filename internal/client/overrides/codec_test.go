package overrides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOverrides(t *testing.T) {
	assert.Equal(t, "{}", encodeOverrides(nil))
	assert.Equal(t, `{"u1"=true}`, encodeOverrides(map[string]bool{"u1": true}))
	assert.Equal(t, `{"a"=false,"b"=true,"c"=true}`,
		encodeOverrides(map[string]bool{"c": true, "a": false, "b": true}))
}

func TestEncodePending(t *testing.T) {
	assert.Equal(t, "[]", encodePending(nil))
	assert.Equal(t, `["id1","id2"]`, encodePending(map[string]struct{}{"id2": {}, "id1": {}}))
}

func TestEncode_EscapesQuoteAndBackslashOnly(t *testing.T) {
	assert.Equal(t, `{"a,b=c"=true}`, encodeOverrides(map[string]bool{"a,b=c": true}))
	assert.Equal(t, `{"say \"hi\""=false}`, encodeOverrides(map[string]bool{`say "hi"`: false}))
	assert.Equal(t, `["C:\\tmp"]`, encodePending(map[string]struct{}{`C:\tmp`: {}}))
}

func TestDecodeOverrides_LegacyFormat(t *testing.T) {
	got, err := decodeOverrides(`{"k1"=true,"k2"=false}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"k1": true, "k2": false}, got)
}

func TestDecodeOverrides_ToleratesWhitespaceAndUnquotedKeys(t *testing.T) {
	got, err := decodeOverrides(` { "k1" = true , k2=false } `)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"k1": true, "k2": false}, got)
}

func TestDecodeOverrides_Empty(t *testing.T) {
	for _, in := range []string{"{}", "{ }", " {}\n"} {
		got, err := decodeOverrides(in)
		require.NoError(t, err, in)
		assert.Empty(t, got)
	}
}

func TestDecodeOverrides_SkipsMalformedEntries(t *testing.T) {
	got, err := decodeOverrides(`{"ok"=true,"noequals","bad"=maybe,,"also"=false}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingEquals)
	assert.ErrorIs(t, err, errInvalidBool)
	assert.ErrorIs(t, err, errEmptyEntry)
	assert.Equal(t, map[string]bool{"ok": true, "also": false}, got)
}

func TestDecodeOverrides_RejectsBadEnvelope(t *testing.T) {
	for _, in := range []string{"", "garbage", `["u1"]`, `{"u1"=true`} {
		got, err := decodeOverrides(in)
		require.ErrorIs(t, err, errNotWrapped, in)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestDecodeOverrides_UnterminatedQuoteKeepsOtherEntries(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]bool
	}{
		{`{"u1=true}`, map[string]bool{}},
		{`{"u1"=true,"u2=false}`, map[string]bool{"u1": true}},
		{`{"u1"=true,"u2=false,"u3"=true}`, map[string]bool{"u1": true, "u3": true}},
	}
	for _, tt := range tests {
		got, err := decodeOverrides(tt.in)
		require.ErrorIs(t, err, errUnterminated, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDecodeOverrides_LegacyTrailingBackslash(t *testing.T) {
	got, err := decodeOverrides(`{"a\"=true,"u1"=false}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{`a\`: true, "u1": false}, got)

	got, err = decodeOverrides(`{"u1"=false, "a\" = true}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{`a\`: true, "u1": false}, got)
}

func TestDecodePending_UnterminatedQuoteKeepsOtherEntries(t *testing.T) {
	got, err := decodePending(`["u1","u2]`)
	require.ErrorIs(t, err, errUnterminated)
	assert.Equal(t, map[string]struct{}{"u1": {}}, got)

	got, err = decodePending(`["a\","b"]`)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{`a\`: {}, "b": {}}, got)
}

func TestDecode_EscapedQuoteStillPreferred(t *testing.T) {
	in := map[string]bool{`a"=true`: true, `b\`: false}
	got, err := decodeOverrides(encodeOverrides(in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestDecodePending(t *testing.T) {
	got, err := decodePending(`["id1", "id2" ,id3]`)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"id1": {}, "id2": {}, "id3": {}}, got)

	got, err = decodePending(`[]`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodePending_SkipsTrailingContent(t *testing.T) {
	got, err := decodePending(`["good","bad"x]`)
	require.ErrorIs(t, err, errTrailingContent)
	assert.Equal(t, map[string]struct{}{"good": {}}, got)
}

func TestRoundTrip_ReservedCharacters(t *testing.T) {
	overrides := map[string]bool{
		"plain":        true,
		"with,comma":   false,
		"with=equals":  true,
		`with"quote`:   false,
		`back\slash`:   true,
		`trailing\`:    false,
		`"`:            true,
		"":             false,
		"ünïcödé,=\"x": true,
	}
	got, err := decodeOverrides(encodeOverrides(overrides))
	require.NoError(t, err)
	assert.Equal(t, overrides, got)

	pending := map[string]struct{}{}
	for k := range overrides {
		pending[k] = struct{}{}
	}
	gotPending, err := decodePending(encodePending(pending))
	require.NoError(t, err)
	assert.Equal(t, pending, gotPending)
}

func TestDecode_LoneBackslashIsLiteral(t *testing.T) {
	got, err := decodeOverrides(`{"a\b"=true}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{`a\b`: true}, got)
}
