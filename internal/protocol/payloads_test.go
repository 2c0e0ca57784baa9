package protocol

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDisplayContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    DisplayContext
		wantErr bool
	}{
		{in: "popup", want: ContextPopup},
		{in: "iframe", want: ContextIframe},
		{in: " IFrame ", want: ContextIframe},
		{in: "", wantErr: true},
		{in: "tab", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDisplayContext(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownDisplayContext)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "unknown", DisplayContext("").String())
}

func TestDecodeInitReply(t *testing.T) {
	t.Parallel()

	t.Run("full reply", func(t *testing.T) {
		got, err := DecodeInitReply(map[string]any{
			"parentId": "relay",
			"context":  "iframe",
			"props":    map[string]any{"x": float64(1)},
		})
		require.NoError(t, err)
		assert.Equal(t, "relay", got.ParentID)
		assert.Equal(t, ContextIframe, got.Context)
		assert.Equal(t, map[string]any{"x": float64(1)}, got.Props)
	})

	t.Run("props default to empty", func(t *testing.T) {
		got, err := DecodeInitReply(map[string]any{"context": "popup"})
		require.NoError(t, err)
		assert.Empty(t, got.ParentID)
		assert.NotNil(t, got.Props)
		assert.Empty(t, got.Props)
	})

	t.Run("props are copied", func(t *testing.T) {
		src := map[string]any{"a": "b"}
		got, err := DecodeInitReply(map[string]any{"context": "popup", "props": src})
		require.NoError(t, err)
		got.Props["a"] = "changed"
		assert.Equal(t, "b", src["a"])
	})

	t.Run("missing context", func(t *testing.T) {
		_, err := DecodeInitReply(map[string]any{"props": map[string]any{}})
		assert.ErrorIs(t, err, ErrUnknownDisplayContext)
	})

	t.Run("wrong types", func(t *testing.T) {
		_, err := DecodeInitReply(map[string]any{"context": 1})
		assert.ErrorIs(t, err, ErrInvalidPayload)

		_, err = DecodeInitReply(map[string]any{"context": "popup", "props": "nope"})
		assert.ErrorIs(t, err, ErrInvalidPayload)

		_, err = DecodeInitReply(map[string]any{"context": "popup", "parentId": true})
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("encode omits empty parent id", func(t *testing.T) {
		enc := InitReply{Context: ContextPopup}.Encode()
		assert.NotContains(t, enc, "parentId")
		assert.Equal(t, "popup", enc["context"])

		back, err := DecodeInitReply(InitReply{ParentID: "f", Context: ContextIframe}.Encode())
		require.NoError(t, err)
		assert.Equal(t, "f", back.ParentID)
	})
}

func TestDecodeResize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    map[string]any
		want    Resize
		wantErr bool
	}{
		{name: "floats from the wire", data: map[string]any{"width": float64(300), "height": float64(200)}, want: Resize{300, 200}},
		{name: "ints", data: map[string]any{"width": 10, "height": int64(20)}, want: Resize{10, 20}},
		{name: "fractional", data: map[string]any{"width": 1.5, "height": 2.0}, wantErr: true},
		{name: "missing height", data: map[string]any{"width": 1}, wantErr: true},
		{name: "string width", data: map[string]any{"width": "1", "height": 1}, wantErr: true},
		{name: "negative", data: map[string]any{"width": -1, "height": 1}, wantErr: true},
		{name: "huge float", data: map[string]any{"width": 1e300, "height": 1.0}, wantErr: true},
		{name: "two to the 63", data: map[string]any{"width": 1.0, "height": math.Ldexp(1, 63)}, wantErr: true},
		{name: "huge negative float", data: map[string]any{"width": -1e300, "height": 1.0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResize(tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	got, err := DecodeRedirect(map[string]any{"url": "https://example.com/next"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/next", got.URL)

	_, err = DecodeRedirect(map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	assert.ErrorIs(t, Redirect{URL: "  "}.Validate(), ErrInvalidPayload)
}

func TestDecodeRedirectReply(t *testing.T) {
	t.Parallel()

	assert.True(t, DecodeRedirectReply(map[string]any{"navigated": true}).Navigated)
	assert.False(t, DecodeRedirectReply(map[string]any{"navigated": "yes"}).Navigated)
	assert.False(t, DecodeRedirectReply(nil).Navigated)
	assert.Equal(t, map[string]any{"navigated": true}, RedirectReply{Navigated: true}.Encode())
}

func TestDecodePropsUpdate(t *testing.T) {
	t.Parallel()

	got, err := DecodePropsUpdate(PropsUpdate{Props: map[string]any{"y": 2}}.Encode())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"y": 2}, got.Props)

	_, err = DecodePropsUpdate(map[string]any{"props": []any{1}})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
