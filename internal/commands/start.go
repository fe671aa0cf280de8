package commands

import (
	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/dispatcher/handlers"
	"github.com/celestix/gotgproto/ext"
	"github.com/celestix/gotgproto/storage"
)

func loadStart(d dispatcher.Dispatcher) {
	d.AddHandler(handlers.NewCommand("start", start))
}

func start(ctx *ext.Context, u *ext.Update) error {
	chatID := u.EffectiveChat().GetID()
	peer := ctx.PeerStorage.GetPeerById(chatID)
	if peer.Type != int(storage.TypeUser) {
		return dispatcher.EndGroups
	}
	ctx.Reply(u, ext.ReplyTextString(
		"Hi! Send me any file and I will reply with a direct download link.\n"+
			"Links support seeking, so media players can jump around the file."), nil)
	return dispatcher.EndGroups
}
