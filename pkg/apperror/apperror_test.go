package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driftwall/driftwall/pkg/bufferpool"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/waylandclient"
)

func TestClassifyMapsKnownSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{fmt.Errorf("wrap: %w", waylandclient.ErrCompositorLost), KindCompositorLost},
		{fmt.Errorf("wrap: %w", imaging.ErrDecode), KindDecode},
		{fmt.Errorf("wrap: %w", imaging.ErrUnsupportedGeometry), KindUnsupportedGeometry},
		{fmt.Errorf("wrap: %w", bufferpool.ErrBusy), KindBusy},
		{fmt.Errorf("wrap: %w", ErrNoOutput), KindNoOutput},
		{fmt.Errorf("wrap: %w", ErrProtocolMismatch), KindProtocolMismatch},
		{errors.New("some random socket error"), KindIOError},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.want, Classify(tt.err))
	}
}

func TestOnlyCompositorLostIsFatal(t *testing.T) {
	for k := KindIOError; k <= KindCompositorLost; k++ {
		if k == KindCompositorLost {
			assert.True(t, k.Fatal())
			assert.Equal(t, 1, k.ExitCode())
		} else {
			assert.False(t, k.Fatal(), k.String())
			assert.Equal(t, 0, k.ExitCode())
		}
	}
}

func TestBusyIsNeverSurfaced(t *testing.T) {
	assert.False(t, KindBusy.Surfaced())
	assert.True(t, KindNoOutput.Surfaced())
}

func TestErrorFormatsOutputDetail(t *testing.T) {
	e := New(KindNoOutput, "HDMI-A-2", ErrNoOutput)
	assert.Contains(t, e.Error(), "HDMI-A-2")
	assert.ErrorIs(t, e, ErrNoOutput)
}
