// Package commands wires the bot-side surface: the welcome command, the
// media handler that archives files and replies with download links, and
// the owner-only stats command.
package commands

import (
	"github.com/celestix/gotgproto"
	"go.uber.org/zap"
)

var log *zap.Logger

func Load(l *zap.Logger, client *gotgproto.Client) {
	log = l.Named("Commands")
	defer log.Sugar().Info("Loaded all commands")
	loadStart(client.Dispatcher)
	loadMedia(client.Dispatcher)
	loadStats(client.Dispatcher)
}
