package streamer

import (
	"context"
	"testing"

	"github.com/celestix/gotgproto"
	"github.com/gotd/td/telegram"
)

func TestDialBindsEmbeddedClientDC(t *testing.T) {
	// gotgproto.Client carries a DC field that shadows the embedded
	// telegram.Client's DC method. Binding the method value here fails to
	// compile if the pool ever goes back to the shadowed selector.
	var dial func(context.Context, int, int64) (telegram.CloseInvoker, error) = new(gotgproto.Client).Client.DC
	if dial == nil {
		t.Fatal("DC method not bound")
	}
}
