package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwall/driftwall/pkg/waylandclient"
)

func TestParseLayer(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    waylandclient.Layer
		wantErr bool
	}{
		{"empty defaults to background", "", waylandclient.LayerBackground, false},
		{"background", "background", waylandclient.LayerBackground, false},
		{"bottom", "bottom", waylandclient.LayerBottom, false},
		{"top", "top", waylandclient.LayerTop, false},
		{"overlay", "overlay", waylandclient.LayerOverlay, false},
		{"unknown", "weird", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLayer(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "xrgb", firstNonEmpty("", "xrgb"))
	assert.Equal(t, "xbgr", firstNonEmpty("xbgr", "xrgb"))
	assert.Equal(t, "", firstNonEmpty())
}
