package utils

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/ext"
	"github.com/celestix/gotgproto/storage"
	"github.com/gotd/td/constant"
	"github.com/gotd/td/tg"
)

// ToBotAPIChannelID converts a plain Telegram channel ID to the
// bot-API-style -100<id> form. gotgproto stores peers under bot-API
// keys, so PeerStorage lookups must use this format.
func ToBotAPIChannelID(plainChannelID int64) int64 {
	var id constant.TDLibPeerID
	id.Channel(plainChannelID)
	return int64(id)
}

// GetMessage fetches a single message from a channel by ID.
func GetMessage(ctx context.Context, client *gotgproto.Client, channelID int64, messageID int) (*tg.Message, error) {
	channel, err := GetChannelPeer(ctx, client.API(), client.PeerStorage, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel peer: %w", err)
	}
	res, err := client.API().ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: channel,
		ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: messageID}},
	})
	if err != nil {
		return nil, err
	}
	messages, ok := res.(*tg.MessagesChannelMessages)
	if !ok || len(messages.Messages) == 0 {
		return nil, errors.New("message not found in channel")
	}
	message, ok := messages.Messages[0].(*tg.Message)
	if !ok {
		return nil, errors.New("message was deleted or is not accessible")
	}
	return message, nil
}

// GetChannelPeer resolves an InputChannel for the given plain channel
// ID, using PeerStorage as a cache to avoid repeated channels.getChannels
// calls. Resolved peers persist for the session lifetime.
func GetChannelPeer(ctx context.Context, api *tg.Client, peerStorage *storage.PeerStorage, channelID int64) (*tg.InputChannel, error) {
	cached := peerStorage.GetInputPeerById(ToBotAPIChannelID(channelID))
	switch peer := cached.(type) {
	case *tg.InputPeerEmpty:
		// fall through to the API
	case *tg.InputPeerChannel:
		return &tg.InputChannel{
			ChannelID:  peer.ChannelID,
			AccessHash: peer.AccessHash,
		}, nil
	default:
		return nil, errors.New("unexpected type of input peer")
	}

	channels, err := api.ChannelsGetChannels(ctx, []tg.InputChannelClass{
		&tg.InputChannel{ChannelID: channelID},
	})
	if err != nil {
		return nil, err
	}
	if len(channels.GetChats()) == 0 {
		return nil, errors.New("no channels found")
	}
	channel, ok := channels.GetChats()[0].(*tg.Channel)
	if !ok {
		return nil, errors.New("type assertion to *tg.Channel failed")
	}
	peerStorage.AddPeer(channel.GetID(), channel.AccessHash, storage.TypeChannel, "")
	return channel.AsInput(), nil
}

// ForwardToArchive copies a message into the archive channel and returns
// the ID of the archived copy. DropAuthor makes the copy anonymous, so
// the archive does not expose the uploader.
func ForwardToArchive(ctx *ext.Context, archiveChannelID int64, fromChatID int64, messageID int) (int, error) {
	fromPeer := ctx.PeerStorage.GetInputPeerById(fromChatID)
	if fromPeer.Zero() {
		return 0, fmt.Errorf("fromChatId: %d is not a valid peer", fromChatID)
	}
	toPeer, err := GetChannelPeer(ctx, ctx.Raw, ctx.PeerStorage, archiveChannelID)
	if err != nil {
		return 0, err
	}
	update, err := ctx.Raw.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		RandomID:   []int64{rand.Int63()},
		FromPeer:   fromPeer,
		ID:         []int{messageID},
		ToPeer:     &tg.InputPeerChannel{ChannelID: toPeer.ChannelID, AccessHash: toPeer.AccessHash},
		DropAuthor: true,
	})
	if err != nil {
		return 0, err
	}
	updates, ok := update.(*tg.Updates)
	if !ok {
		return 0, fmt.Errorf("unexpected updates type %T", update)
	}
	for _, u := range updates.Updates {
		if channelMsg, ok := u.(*tg.UpdateNewChannelMessage); ok {
			if msg, ok := channelMsg.Message.(*tg.Message); ok {
				return msg.ID, nil
			}
		}
	}
	return 0, errors.New("archived message ID not found in updates")
}
