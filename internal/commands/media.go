package commands

import (
	"fmt"
	"net/url"

	"github.com/babupakkakivellu/File-To-Link/config"
	"github.com/babupakkakivellu/File-To-Link/internal/linkcode"
	"github.com/babupakkakivellu/File-To-Link/internal/streamer"
	"github.com/babupakkakivellu/File-To-Link/internal/utils"
	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/dispatcher/handlers"
	"github.com/celestix/gotgproto/dispatcher/handlers/filters"
	"github.com/celestix/gotgproto/ext"
	"github.com/celestix/gotgproto/storage"
	"go.uber.org/zap"
)

func loadMedia(d dispatcher.Dispatcher) {
	d.AddHandler(handlers.NewMessage(filters.Message.Media, sendLink))
}

// sendLink copies the incoming file into the archive channel and replies
// with a download URL for the archived copy. The original message stays
// with the user; the link always points at the archive, so it survives
// the user deleting their copy.
func sendLink(ctx *ext.Context, u *ext.Update) error {
	chatID := u.EffectiveChat().GetID()
	peer := ctx.PeerStorage.GetPeerById(chatID)
	if peer.Type != int(storage.TypeUser) {
		return dispatcher.EndGroups
	}

	identity, err := streamer.IdentityFromMedia(u.EffectiveMessage.Media)
	if err != nil {
		ctx.Reply(u, ext.ReplyTextString("Sorry, I can't generate a link for this kind of message."), nil)
		return dispatcher.EndGroups
	}

	archivedID, err := utils.ForwardToArchive(ctx, config.ValueOf.DumpChannelID, chatID, u.EffectiveMessage.ID)
	if err != nil {
		log.Error("Failed to archive message",
			zap.Int64("chatId", chatID),
			zap.Int("messageId", u.EffectiveMessage.ID),
			zap.Error(err))
		ctx.Reply(u, ext.ReplyTextString("Something went wrong while storing your file, try again later."), nil)
		return dispatcher.EndGroups
	}

	token, err := linkcode.Encode(archivedID, config.ValueOf.DumpChannelID)
	if err != nil {
		log.Error("Failed to encode link token",
			zap.Int("messageId", archivedID),
			zap.Error(err))
		ctx.Reply(u, ext.ReplyTextString("Something went wrong while generating your link, try again later."), nil)
		return dispatcher.EndGroups
	}

	name := identity.Name
	if name == "" {
		name = "file"
	}
	link := fmt.Sprintf("%s/dl/%s/%s", config.ValueOf.BaseURL, token, url.PathEscape(name))
	ctx.Reply(u, ext.ReplyTextString(link), nil)
	return dispatcher.EndGroups
}
