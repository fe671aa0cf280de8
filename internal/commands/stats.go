package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/babupakkakivellu/File-To-Link/config"
	"github.com/babupakkakivellu/File-To-Link/internal/bot"
	"github.com/babupakkakivellu/File-To-Link/internal/utils"
	"github.com/celestix/gotgproto/dispatcher"
	"github.com/celestix/gotgproto/dispatcher/handlers"
	"github.com/celestix/gotgproto/ext"
)

func loadStats(d dispatcher.Dispatcher) {
	d.AddHandler(handlers.NewCommand("stats", stats))
}

func stats(ctx *ext.Context, u *ext.Update) error {
	user := u.EffectiveUser()
	if user == nil || config.ValueOf.OwnerID == 0 || user.GetID() != config.ValueOf.OwnerID {
		return dispatcher.EndGroups
	}

	var b strings.Builder
	b.WriteString("Worker pool:\n")
	for _, worker := range bot.Workers.Bots {
		fmt.Fprintf(&b, "#%d @%s: %d active, %d total, %d failed, up %s\n",
			worker.ID,
			worker.Self.Username,
			worker.Load(),
			worker.TotalRequests(),
			worker.FailedRequests(),
			utils.TimeFormat(uint64(time.Since(worker.StartTime()).Seconds())))
	}
	ctx.Reply(u, ext.ReplyTextString(b.String()), nil)
	return dispatcher.EndGroups
}
