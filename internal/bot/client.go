package bot

import (
	"github.com/babupakkakivellu/File-To-Link/config"
	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
)

// StartClient starts the primary bot, the identity users talk to and the
// one that performs message existence checks for the HTTP edge.
func StartClient(l *zap.Logger) (*gotgproto.Client, error) {
	log := l.Named("MainBot").Sugar()
	log.Info("Starting main bot")

	var sessionType sessionMaker.SessionConstructor
	if config.ValueOf.UseSessionFile {
		sessionType = sessionMaker.SqlSession(sqlite.Open("sessions/main.session"))
	} else {
		sessionType = sessionMaker.SimpleSession()
	}

	client, err := gotgproto.NewClient(
		int(config.ValueOf.ApiID),
		config.ValueOf.ApiHash,
		gotgproto.ClientTypeBot(config.ValueOf.MainBotToken),
		&gotgproto.ClientOpts{
			Session:          sessionType,
			DisableCopyright: true,
			Middlewares:      GetFloodMiddleware(log.Desugar()),
		},
	)
	if err != nil {
		return nil, err
	}
	log.Infof("Main bot started: @%s", client.Self.Username)
	return client, nil
}
